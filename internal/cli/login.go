package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tablerkit/tabler-api-go/sdk/auth"
	"golang.org/x/term"
)

func loginCmd(a *app) *cobra.Command {
	var email string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			if email == "" {
				email = promptForInput(cmd, in, "Email: ")
			}

			var password string
			var err error
			if passwordStdin {
				password, err = readLine(in)
			} else {
				password, err = promptForPassword(cmd, in, "Password: ")
			}
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			if !validateCredentials(email, password) {
				return fmt.Errorf("email and password cannot be empty")
			}

			if _, err := a.sdk.Auth.Login(cmd.Context(), auth.Credentials{Email: email, Password: password}); err != nil {
				return err
			}
			cmd.Println("Login was successful.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")

	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored tokens",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a.sdk.Auth.Logout()
			cmd.Println("Logged out.")
		},
	}
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a token is stored",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if a.sdk.Auth.IsAuthenticated() {
				cmd.Println("Authenticated.")
				return
			}
			cmd.Println("Not authenticated.")
		},
	}
}

func promptForInput(cmd *cobra.Command, in *bufio.Reader, prompt string) string {
	cmd.Print(prompt)
	line, _ := readLine(in)
	return line
}

// promptForPassword reads without echo when stdin is a terminal.
func promptForPassword(cmd *cobra.Command, in *bufio.Reader, prompt string) (string, error) {
	cmd.Print(prompt)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		cmd.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(password)), nil
	}
	return readLine(in)
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func validateCredentials(email, password string) bool {
	return email != "" && password != ""
}
