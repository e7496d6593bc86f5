package sync

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"voicedrop/cmd/client/cmd/types"
	"voicedrop/internal/app/client"
)

var syncStatus bool

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the offline inbox cache",
	Long: `Fetch your inbox from the server and store it locally so recordings
can be played without a connection.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		if syncStatus {
			return showStatus(cmd, app)
		}

		items, cached, err := app.Inbox(cmd.Context(), false)
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		if cached {
			color.Yellow("Server unreachable, cache left unchanged (%d recordings)", len(items))
			return nil
		}
		color.Green("Cached %d recordings", len(items))
		return nil
	},
}

func showStatus(cmd *cobra.Command, app *client.App) error {
	user := app.Username()
	if user == "" {
		color.Yellow("Not logged in")
		return nil
	}

	items, _, err := app.Inbox(cmd.Context(), true)
	if err != nil {
		return err
	}

	last := "never"
	if t := app.LastFetch(); !t.IsZero() {
		last = t.Local().Format(time.DateTime)
	}
	fmt.Printf("Account:      %s\n", user)
	fmt.Printf("Cached:       %d recordings\n", len(items))
	fmt.Printf("Last synced:  %s\n", last)
	return nil
}

func init() {
	SyncCmd.Flags().BoolVar(&syncStatus, "status", false, "show cache status instead of syncing")
}
