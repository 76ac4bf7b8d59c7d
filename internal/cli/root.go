package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	port       string
	apiURL     string
	logLevel   string
}

// Execute runs the CLI.
func Execute() error {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "trivia",
		Short:        "Timed multiple-choice trivia rounds against a remote question bank",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&opts.port, "port", os.Getenv("PORT"), "port to listen on (serve)")
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api", os.Getenv("TRIVIA_API_URL"), "quiz backend base URL")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	cmd.AddCommand(NewServeCmd(opts))
	cmd.AddCommand(NewPlayCmd(opts))
	cmd.AddCommand(NewEpisodesCmd(opts))
	cmd.AddCommand(NewLeaderboardCmd(opts))
	cmd.AddCommand(NewStatsCmd(opts))
	cmd.AddCommand(NewIdentityCmd(opts))
	cmd.AddCommand(NewSettingsCmd(opts))
	cmd.AddCommand(NewSyncCmd(opts))
	cmd.AddCommand(NewMigrateCmd(opts))
	return cmd
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "", "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}
