// Package main provides the forge CLI: it turns a web server request into
// generated backend code and validates it.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/p-blackswan/forge/internal/config"
)

// Set via -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "forge",
		Short:         "Generate, build and smoke-test a backend web server from a request",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newBuildCmd(), newEndpointsCmd(), newVersionCmd())
	return rootCmd
}

// loadConfig reads .env, then the environment.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	return config.Load()
}

func newLogger(cfg *config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if cfg.Environment == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	log.Logger = logger
	return logger
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the forge version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "forge %s (%s)\n", version, commit)
		},
	}
}
