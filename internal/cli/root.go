// Package cli implements the tablerctl command line.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	tabler "github.com/tablerkit/tabler-api-go/sdk"
	"github.com/tablerkit/tabler-api-go/sdk/config"
)

// app carries what every subcommand needs once the root has set it up.
type app struct {
	configPath string
	sdk        *tabler.SDK
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Command execution failed.")
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "tablerctl",
		Short:         "Call a Tabler dashboard API with stored credentials",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.sdk == nil {
				return nil
			}
			return a.sdk.Close()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")

	rootCmd.AddCommand(
		loginCmd(a),
		logoutCmd(a),
		statusCmd(a),
		requestCmd(a, "get"),
		requestCmd(a, "post"),
		requestCmd(a, "put"),
		requestCmd(a, "delete"),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	zerolog.SetGlobalLevel(level)
	logger := log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()})

	sdk, err := tabler.NewSDK(cfg, tabler.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to initialize client: %w", err)
	}
	a.sdk = sdk
	return nil
}
