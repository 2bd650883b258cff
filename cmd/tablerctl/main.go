package main

import (
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tablerkit/tabler-api-go/internal/cli"
	"github.com/tablerkit/tabler-api-go/sdk/config"
)

func main() {
	// Logging stays off unless TABLER_DEBUG is set or the config asks for it.
	if os.Getenv(config.EnvDebug) != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)
	go listenForInterrupt(stopChan)

	cli.Execute()
}

func listenForInterrupt(stop chan os.Signal) {
	<-stop
	log.Fatal().Msg("Interrupt signal received. Exiting...")
}
