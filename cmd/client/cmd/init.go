// cmd/client/cmd/init.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"voicedrop/cmd/client/cmd/auth"
	"voicedrop/cmd/client/cmd/record"
	"voicedrop/cmd/client/cmd/sync"
	"voicedrop/cmd/client/cmd/types"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up the voicedrop client",
	Long: `init creates the local config directory and checks that the server
is reachable.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		cfg := app.Config()

		fmt.Println("Config directory:", cfg.ConfigDir)
		fmt.Println("Server:", cfg.ServerURL)

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := app.CheckConnection(ctx); err != nil {
			color.Yellow("Server is not reachable: %v", err)
			fmt.Println("Cached recordings stay playable with: voicedrop record play --offline")
		} else {
			color.Green("Server is reachable")
		}

		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Println("1. Create an account:      voicedrop auth register")
		fmt.Println("2. Send someone a message: voicedrop record new --to <username>")
		fmt.Println("3. Listen to your inbox:   voicedrop record play")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.RegisterCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)
	auth.AuthCmd.AddCommand(auth.StatusCmd)

	rootCmd.AddCommand(record.RecordCmd)
	record.RecordCmd.AddCommand(record.NewCmd)
	record.RecordCmd.AddCommand(record.ListCmd)
	record.RecordCmd.AddCommand(record.GetCmd)
	record.RecordCmd.AddCommand(record.PlayCmd)

	rootCmd.AddCommand(sync.SyncCmd)
}
