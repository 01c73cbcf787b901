package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tessro/finch/internal/config"
	finchErrors "github.com/tessro/finch/internal/errors"
	"github.com/tessro/finch/internal/log"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "finch",
	Short: "Browse and play your Jellyfin library from the terminal",
	Long: `Finch is a terminal client for Jellyfin media servers. It browses libraries,
plays movies, series and music through an external player, follows remote-control
commands from other clients, and keeps a background download queue.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		return initLogging(cmd)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.finchrc)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return finchErrors.WithSuggestion(
			fmt.Errorf("%w: %w", finchErrors.ErrInvalidConfig, err),
			"Fix the values above or run 'finch config show' to inspect them",
		)
	}

	return nil
}

// fullscreenAnnotation marks commands that own the terminal. Without a log
// file they log nowhere.
const fullscreenAnnotation = "fullscreen"

func initLogging(cmd *cobra.Command) error {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}

	lc := log.Config{Level: level}
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		lc.Output = f
	} else if cmd.Annotations[fullscreenAnnotation] == "true" {
		lc.Output = io.Discard
	}
	log.Configure(lc)
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, finchErrors.Format(err))
		os.Exit(1)
	}
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}
