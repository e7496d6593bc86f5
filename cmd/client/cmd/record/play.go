package record

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"voicedrop/cmd/client/cmd/types"
	"voicedrop/internal/app/client"
	"voicedrop/internal/app/client/playback"
)

const barWidth = 20

var PlayCmd = &cobra.Command{
	Use:   "play [number]",
	Short: "Listen to your recordings",
	Long: `Play recordings from your inbox, starting with the newest or the given
number. Commands are read line by line:

  Enter   play / pause
  n, b    next (older) / back (newer)
  s <N>   seek to N percent
  w       write the current recording to a file
  q       quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		items, cached, err := app.Inbox(cmd.Context(), offline)
		if err != nil {
			return fmt.Errorf("load recordings: %w", err)
		}
		if len(items) == 0 {
			fmt.Println("No recordings yet")
			return nil
		}
		if cached && !offline {
			color.Yellow("Server unreachable, playing cached recordings")
		}

		start := 0
		if len(args) == 1 {
			if start, err = pick(items, args[0]); err != nil {
				return err
			}
		}

		player := app.NewPlayer()
		defer player.Close()
		player.OnProgress = func(p playback.Progress) {
			fmt.Printf("\r%s", progressLine(p, player.State()))
		}
		if err := player.SetItems(items); err != nil {
			return err
		}
		if err := player.Select(start); err != nil {
			return err
		}
		if err := player.TogglePlayPause(); err != nil {
			return err
		}

		return control(player, items)
	},
}

func control(player *playback.Controller, items []playback.Item) error {
	for {
		line, err := types.Prompt("")
		if err != nil {
			return nil
		}

		fields := strings.Fields(line)
		cmd := ""
		if len(fields) > 0 {
			cmd = strings.ToLower(fields[0])
		}

		switch cmd {
		case "", "p", "space":
			err = player.TogglePlayPause()
			if errors.Is(err, playback.ErrInvalidTransition) {
				err = player.Select(0)
			}
		case "n", "next":
			if !player.HasNext() {
				fmt.Println("This is the oldest recording")
				continue
			}
			err = player.Next()
		case "b", "back":
			if !player.HasPrevious() {
				fmt.Println("This is the newest recording")
				continue
			}
			err = player.Previous()
		case "s", "seek":
			if len(fields) < 2 {
				fmt.Println("usage: s <percent>")
				continue
			}
			var pct float64
			pct, err = strconv.ParseFloat(strings.TrimSuffix(fields[1], "%"), 64)
			if err == nil {
				err = player.Seek(pct / 100)
			}
		case "w", "write":
			err = writeCurrent(player, items)
		case "q", "quit":
			return nil
		default:
			fmt.Println("commands: Enter, n, b, s <N>, w, q")
			continue
		}

		if err != nil {
			color.Red("%v", err)
		}
	}
}

func writeCurrent(player *playback.Controller, items []playback.Item) error {
	i := player.Index()
	if i < 0 {
		return errors.New("nothing selected")
	}
	label := playback.Label(len(items), i)
	path := fmt.Sprintf("voicedrop-%d%s", label, client.FileExtension(items[i].ContentType))
	if err := writeFile(path, func(f *os.File) error { return player.Download(i, f) }); err != nil {
		return err
	}
	color.Green("Saved to %s", path)
	return nil
}

func progressLine(p playback.Progress, state playback.State) string {
	filled := int(p.Fraction * barWidth)
	filled = min(max(filled, 0), barWidth)
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled)
	return fmt.Sprintf("#%d [%s] %s / %s %-8s", p.Label, bar, formatSeconds(p.Position), formatSeconds(p.Duration), state)
}

func init() {
	PlayCmd.Flags().BoolVar(&offline, "offline", false, "use the local cache only")
}
