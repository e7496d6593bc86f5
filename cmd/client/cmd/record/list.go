// cmd/client/cmd/record/list.go
package record

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"voicedrop/cmd/client/cmd/types"
	"voicedrop/internal/app/client/playback"
)

var (
	listFormat string
	offline    bool
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recordings sent to you",
	Long: `List your inbox, newest first. The number in the first column is the
one to pass to "record get" and "record play".`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		items, cached, err := app.Inbox(cmd.Context(), offline)
		if err != nil {
			return fmt.Errorf("list recordings: %w", err)
		}
		if cached && !offline {
			color.Yellow("Server unreachable, showing cached recordings")
		}

		switch listFormat {
		case "json":
			return printItemsJSON(items)
		default:
			return printItemsTable(items)
		}
	},
}

func printItemsTable(items []playback.Item) error {
	if len(items) == 0 {
		fmt.Println("No recordings yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "#\tReceived\tLength\tType\t\n")
	for i, it := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t\n",
			playback.Label(len(items), i),
			it.CreatedAt.Local().Format(time.DateTime),
			formatSeconds(time.Duration(it.Duration*float64(time.Second))),
			it.ContentType,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nTotal: %d\n", len(items))
	return nil
}

func printItemsJSON(items []playback.Item) error {
	type row struct {
		Number      int       `json:"number"`
		ID          string    `json:"id"`
		CreatedAt   time.Time `json:"created_at"`
		ContentType string    `json:"content_type"`
		Duration    float64   `json:"duration"`
	}

	rows := make([]row, 0, len(items))
	for i, it := range items {
		rows = append(rows, row{
			Number:      playback.Label(len(items), i),
			ID:          it.ID,
			CreatedAt:   it.CreatedAt,
			ContentType: it.ContentType,
			Duration:    it.Duration,
		})
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rows)
}

func init() {
	ListCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table, json)")
	ListCmd.Flags().BoolVar(&offline, "offline", false, "use the local cache only")
}
