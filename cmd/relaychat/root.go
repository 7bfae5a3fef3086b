package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/edgard/relaychat/internal/config"
	"github.com/edgard/relaychat/internal/logger"
)

// cli holds state shared by subcommands after the root pre-run.
type cli struct {
	configPath string
	envFile    string
	cfg        *config.Config
	log        *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:           "relaychat",
		Short:         "Relay between a web chat and Telegram",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init()
		},
	}

	cmd.PersistentFlags().StringVar(&c.configPath, "config", "./config.yaml", "Config file path (optional).")
	cmd.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "Dotenv file loaded into the environment (optional).")

	cmd.AddCommand(newServeCmd(c))
	cmd.AddCommand(newWebhookCmd(c))
	cmd.AddCommand(newChatsCmd(c))
	cmd.AddCommand(newSendCmd(c))
	cmd.AddCommand(newStatusCmd(c))

	return cmd
}

// init loads the dotenv file, the configuration, and the logger.
func (c *cli) init() error {
	if envFile := strings.TrimSpace(c.envFile); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", c.configPath, "error", err)
		return err
	}
	c.cfg = cfg

	c.log = logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	c.log.Debug("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)
	return nil
}
