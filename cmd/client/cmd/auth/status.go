package auth

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"voicedrop/cmd/client/cmd/types"
)

var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who you are logged in as",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		st, err := app.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		if !st.Authenticated || st.User == nil {
			color.Yellow("Not logged in")
			return nil
		}
		color.Green("Logged in as %s <%s>", st.User.Username, st.User.Email)
		return nil
	},
}
