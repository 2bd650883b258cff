package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tablerkit/tabler-api-go/sdk/client"
)

func requestCmd(a *app, verb string) *cobra.Command {
	var headers []string
	method := strings.ToUpper(verb)
	takesBody := method == http.MethodPost || method == http.MethodPut

	use := verb + " <path>"
	args := cobra.ExactArgs(1)
	if takesBody {
		use += " [json-body]"
		args = cobra.RangeArgs(1, 2)
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Send a %s request and print the JSON reply", method),
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			header, err := parseHeaders(headers)
			if err != nil {
				return err
			}

			var body any
			if len(args) == 2 {
				if !json.Valid([]byte(args[1])) {
					return fmt.Errorf("request body is not valid JSON")
				}
				body = json.RawMessage(args[1])
			}

			value, err := a.sdk.Client.Dispatch(cmd.Context(), args[0], method, header, body)
			if status, ok := client.StatusCode(err); ok && status == http.StatusUnauthorized {
				return fmt.Errorf("%w (run 'tablerctl login' to sign in again)", err)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, value)
		},
	}
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Extra header as 'Name: value' (repeatable)")
	return cmd
}

func parseHeaders(raw []string) (http.Header, error) {
	header := http.Header{}
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", h)
		}
		header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return header, nil
}

func printJSON(cmd *cobra.Command, value any) error {
	if value == nil {
		return nil
	}
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
