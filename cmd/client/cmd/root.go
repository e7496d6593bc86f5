// cmd/client/cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"voicedrop/cmd/client/cmd/types"
	"voicedrop/internal/app/client"
	"voicedrop/internal/app/client/config"
	"voicedrop/internal/utils/logger"
)

var (
	cfgFile   string
	serverURL string
	debug     bool
	app       *client.App
)

var rootCmd = &cobra.Command{
	Use:   "voicedrop",
	Short: "voicedrop - anonymous voice messages",
	Long: `voicedrop records short voice messages and delivers them to a
registered user without revealing who sent them.

Anyone can send. Logging in is only needed to listen to your own inbox.`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.SetServer(serverURL); err != nil {
		return err
	}

	env := cfg.Env
	if debug {
		env = config.EnvLocal
	}
	log := logger.New(env)
	if !debug {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("init client: %w", err)
	}

	cmd.SetContext(context.WithValue(cmd.Context(), types.ClientAppKey, app))
	return nil
}

func closeApp(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	return app.Close()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "env file with VOICEDROP_* settings (default .env)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "voicedrop server URL")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging")
}
