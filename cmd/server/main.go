package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"referearn/internal/platform/config"
	"referearn/internal/platform/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	envFile string
	cfg     config.Server
	log     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	serve := newServeCmd(a)
	cmd := &cobra.Command{
		Use:               "referearn",
		Short:             "Refer & Earn referral API",
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
		// The bare binary serves.
		RunE: serve.RunE,
	}
	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.AddCommand(serve, newMigrateCmd(a))
	return cmd
}

// load reads .env and the environment and builds the logger.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "configuration error:", err)
		return err
	}
	a.cfg = cfg
	a.log = logger.New(logger.Options{
		Level: cfg.LogLevel,
		JSON:  cfg.IsProduction(),
	})
	slog.SetDefault(a.log)
	return nil
}
