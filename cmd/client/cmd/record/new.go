package record

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"voicedrop/cmd/client/cmd/types"
	"voicedrop/internal/app/client"
	"voicedrop/internal/app/client/capture"
	"voicedrop/internal/app/client/playback"
)

var (
	sendTo  string
	outFile string
)

var NewCmd = &cobra.Command{
	Use:   "new",
	Short: "Record a voice message",
	Long: `Record from the microphone until you press Enter, then send the
recording, save it to a file, listen to it or throw it away.

No account is needed to send.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		rec := app.NewRecorder()
		defer rec.Close()
		rec.OnElapsed = func(s int) {
			fmt.Printf("\r%s %s ", color.RedString("● recording"), formatSeconds(time.Duration(s)*time.Second))
		}

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		defer signal.Stop(interrupt)
		go func() {
			if _, ok := <-interrupt; ok {
				_ = rec.Close()
				fmt.Println()
				os.Exit(130)
			}
		}()

		for {
			if err := recordOnce(cmd, rec); err != nil {
				return err
			}

			again, err := review(cmd, app, rec)
			if err != nil || !again {
				return err
			}
		}
	},
}

// recordOnce records one message, Enter stops.
func recordOnce(cmd *cobra.Command, rec *capture.Controller) error {
	if err := rec.Start(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("Recording. Press Enter to stop.")
	if _, err := types.Prompt(""); err != nil {
		return err
	}
	if err := rec.Stop(); err != nil {
		if devErr := rec.Err(); devErr != nil {
			return devErr
		}
		return err
	}
	fmt.Println()

	blob, ok := rec.Blob()
	if !ok {
		if err := rec.Err(); err != nil {
			return err
		}
		return errors.New("nothing was recorded")
	}
	if err := rec.Err(); err != nil {
		color.Yellow("Recording ended early: %v", err)
	}
	fmt.Printf("Recorded %s (%d bytes, %s)\n", formatSeconds(blob.Duration), len(blob.Data), blob.ContentType)
	return nil
}

// review offers the actions on a stopped recording. It reports whether
// another message should be recorded.
func review(cmd *cobra.Command, app *client.App, rec *capture.Controller) (bool, error) {
	for {
		choice, err := types.Prompt("[s]end  [p]lay  [w]rite to file  [d]elete  [q]uit: ")
		if err != nil {
			return false, err
		}

		switch strings.ToLower(choice) {
		case "s", "send":
			target := sendTo
			if target == "" {
				if target, err = types.Prompt("Send to username: "); err != nil {
					return false, err
				}
			}
			err := rec.Send(cmd.Context(), target)
			switch {
			case err == nil:
				color.Green("Successfully Sent!")
			case errors.Is(err, client.ErrNetwork):
				color.Red("Could not reach the server, the recording is kept: %v", err)
			default:
				color.Red("%v", err)
			}
		case "p", "play":
			if err := preview(rec, app.Config().PlayCommand); err != nil {
				color.Red("%v", err)
			}
		case "w", "write":
			path, err := save(rec)
			if err != nil {
				color.Red("%v", err)
				continue
			}
			color.Green("Saved to %s", path)
		case "d", "delete":
			if err := rec.Delete(); err != nil {
				return false, err
			}
			again, err := types.Prompt("Deleted. Record another? [y/N]: ")
			if err != nil {
				return false, err
			}
			return strings.EqualFold(again, "y"), nil
		case "q", "quit", "":
			return false, nil
		}
	}
}

func save(rec *capture.Controller) (string, error) {
	blob, ok := rec.Blob()
	if !ok {
		return "", errors.New("nothing recorded")
	}
	path := outFile
	if path == "" {
		path = "voicedrop-" + blob.RecordedAt.Format("20060102-150405") + client.FileExtension(blob.ContentType)
	}
	return path, writeFile(path, func(f *os.File) error { return rec.Download(f) })
}

func preview(rec *capture.Controller, command []string) error {
	blob, ok := rec.Blob()
	if !ok {
		return errors.New("nothing recorded")
	}
	path, err := rec.MediaPath()
	if err != nil {
		return err
	}

	media, err := playback.NewExecPlayer(command).Load(path, blob.ContentType, blob.Duration)
	if err != nil {
		return err
	}
	defer media.Close()

	done := make(chan struct{})
	media.Attach(playback.Listener{OnEnded: func() { close(done) }})
	if err := media.Play(); err != nil {
		return err
	}
	fmt.Println("Playing. Press Enter to stop.")

	stop := make(chan struct{})
	go func() {
		_, _ = types.Prompt("")
		close(stop)
	}()
	select {
	case <-done:
		fmt.Println("Finished. Press Enter to continue.")
		<-stop
	case <-stop:
	}
	return nil
}

func init() {
	NewCmd.Flags().StringVarP(&sendTo, "to", "t", "", "recipient username")
	NewCmd.Flags().StringVarP(&outFile, "out", "o", "", "file for [w]rite (default voicedrop-<time>.<ext>)")
}
