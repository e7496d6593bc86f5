package record

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"voicedrop/cmd/client/cmd/types"
	"voicedrop/internal/app/client"
)

var getOut string

var GetCmd = &cobra.Command{
	Use:   "get <number>",
	Short: "Save a recording to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		items, _, err := app.Inbox(cmd.Context(), offline)
		if err != nil {
			return fmt.Errorf("load recordings: %w", err)
		}
		i, err := pick(items, args[0])
		if err != nil {
			return err
		}

		path := getOut
		if path == "" {
			path = fmt.Sprintf("voicedrop-%s%s", args[0], client.FileExtension(items[i].ContentType))
		}

		player := app.NewPlayer()
		if err := player.SetItems(items); err != nil {
			return err
		}
		if err := writeFile(path, func(f *os.File) error { return player.Download(i, f) }); err != nil {
			return err
		}

		color.Green("Saved to %s", path)
		return nil
	},
}

func init() {
	GetCmd.Flags().StringVarP(&getOut, "out", "o", "", "output file (default voicedrop-<number>.<ext>)")
	GetCmd.Flags().BoolVar(&offline, "offline", false, "use the local cache only")
}
