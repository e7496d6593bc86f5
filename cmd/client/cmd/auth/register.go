// cmd/client/cmd/auth/register.go
package auth

import (
	"fmt"
	"net/http"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"voicedrop/cmd/client/cmd/types"
	"voicedrop/internal/app/client"
	"voicedrop/internal/domain/user"
)

var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an account on the voicedrop server.

Your username is the address others send recordings to. You are logged in
right after registering.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		username, err := types.Prompt("Username: ")
		if err != nil {
			return err
		}
		email, err := types.Prompt("Email: ")
		if err != nil {
			return err
		}
		password, err := types.PromptPassword("Password: ")
		if err != nil {
			return err
		}
		confirm, err := types.PromptPassword("Repeat password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		u, err := app.Register(cmd.Context(), user.RegisterRequest{
			Username: username,
			Email:    email,
			Password: password,
		})
		if client.StatusCode(err) == http.StatusUnprocessableEntity {
			return fmt.Errorf("invalid registration data: %w", err)
		}
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}

		color.Green("Registered and logged in as %s", u.Username)
		return nil
	},
}
