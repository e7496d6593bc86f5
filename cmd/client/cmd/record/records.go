package record

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"voicedrop/internal/app/client/playback"
)

// RecordCmd groups recording commands.
var RecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record, send and listen to voice messages",
	Long: `Record a message for any registered user, or list, download and play
the recordings sent to you.`,
}

// pick converts a 1-based label as shown by "record list" into an index.
// Label 1 is the oldest recording.
func pick(items []playback.Item, arg string) (int, error) {
	label, err := strconv.Atoi(arg)
	if err != nil || label < 1 || label > len(items) {
		return 0, fmt.Errorf("no recording #%s, choose 1..%d", arg, len(items))
	}
	return len(items) - label, nil
}

func formatSeconds(d time.Duration) string {
	s := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
