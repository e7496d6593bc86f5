// cmd/client/cmd/auth/login.go
package auth

import (
	"fmt"
	"net/http"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"voicedrop/cmd/client/cmd/types"
	"voicedrop/internal/app/client"
)

var loginEmail string

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to your account",
	Long: `Log in with email and password.

The session cookie is kept in the config directory until you log out or
it expires.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		email := loginEmail
		if email == "" {
			if email, err = types.Prompt("Email: "); err != nil {
				return err
			}
		}
		password, err := types.PromptPassword("Password: ")
		if err != nil {
			return err
		}

		u, err := app.Login(cmd.Context(), email, password)
		if client.StatusCode(err) == http.StatusUnauthorized {
			return fmt.Errorf("invalid credentials")
		}
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		color.Green("Logged in as %s", u.Username)
		return nil
	},
}

func init() {
	LoginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
}
