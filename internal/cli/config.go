package cli

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/tessro/finch/internal/config"
	finchErrors "github.com/tessro/finch/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing finch configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration, including defaults and FINCH_* overrides.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long:  `Open the configuration file in your default editor.`,
	RunE:  runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  `Create a new configuration file with default values.`,
	RunE:  runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value. Keys are written as section.field.

Examples:
  finch config set server.url http://jellyfin.local:8096
  finch config set playback.player vlc
  finch config set playback.player_args "--fs --no-osc"
  finch config set downloads.rate_limit 2048`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)

	keys := make([]string, 0, len(configFields))
	for k := range configFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	configSetCmd.Long += "\n\nSupported keys:\n  " + strings.Join(keys, "\n  ")
}

// configFields maps settable keys to the field they address.
var configFields = map[string]func(c *config.Config) any{
	"server.url":                 func(c *config.Config) any { return &c.Server.URL },
	"server.timeout":             func(c *config.Config) any { return &c.Server.Timeout },
	"server.max_retries":         func(c *config.Config) any { return &c.Server.MaxRetries },
	"server.discovery_timeout":   func(c *config.Config) any { return &c.Server.DiscoveryTimeout },
	"playback.player":            func(c *config.Config) any { return &c.Playback.Player },
	"playback.player_args":       func(c *config.Config) any { return &c.Playback.PlayerArgs },
	"playback.volume":            func(c *config.Config) any { return &c.Playback.Volume },
	"playback.max_bitrate":       func(c *config.Config) any { return &c.Playback.MaxBitrate },
	"playback.force_direct_play": func(c *config.Config) any { return &c.Playback.ForceDirectPlay },
	"playback.audio_language":    func(c *config.Config) any { return &c.Playback.AudioLanguage },
	"playback.subtitle_language": func(c *config.Config) any { return &c.Playback.SubtitleLanguage },
	"playback.progress_debounce": func(c *config.Config) any { return &c.Playback.ProgressDebounce },
	"playback.report_interval":   func(c *config.Config) any { return &c.Playback.ReportInterval },
	"remote.enabled":             func(c *config.Config) any { return &c.Remote.Enabled },
	"remote.keep_alive":          func(c *config.Config) any { return &c.Remote.KeepAlive },
	"remote.metrics_addr":        func(c *config.Config) any { return &c.Remote.MetricsAddr },
	"downloads.dir":              func(c *config.Config) any { return &c.Downloads.Dir },
	"downloads.concurrency":      func(c *config.Config) any { return &c.Downloads.Concurrency },
	"downloads.rate_limit":       func(c *config.Config) any { return &c.Downloads.RateLimit },
	"cache.size":                 func(c *config.Config) any { return &c.Cache.Size },
	"cache.ttl":                  func(c *config.Config) any { return &c.Cache.TTL },
	"tail.interval":              func(c *config.Config) any { return &c.Tail.Interval },
	"tui.theme":                  func(c *config.Config) any { return &c.TUI.Theme },
	"tui.refresh_interval":       func(c *config.Config) any { return &c.TUI.RefreshInterval },
	"log.level":                  func(c *config.Config) any { return &c.Log.Level },
	"log.file":                   func(c *config.Config) any { return &c.Log.File },
}

// setConfigValue parses value for the field behind key and stores it in c.
func setConfigValue(c *config.Config, key, value string) error {
	field, ok := configFields[key]
	if !ok {
		return finchErrors.WithSuggestion(
			fmt.Errorf("unknown config key %q", key),
			"Run 'finch config set --help' for the list of keys",
		)
	}

	switch p := field(c).(type) {
	case *string:
		*p = value
	case *int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("value must be an integer for %s", key)
		}
		*p = n
	case *bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("value must be true or false for %s", key)
		}
		*p = b
	case *[]string:
		*p = strings.Fields(value)
	default:
		return fmt.Errorf("unsupported field type for %s", key)
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if JSONOutput() {
		return printJSON(cfg)
	}

	fmt.Printf("# %s\n", getConfigPath())
	encoder := toml.NewEncoder(os.Stdout)
	encoder.Indent = "  "
	return encoder.Encode(cfg)
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return finchErrors.WithSuggestion(
			fmt.Errorf("%w at %s", finchErrors.ErrConfigNotFound, configPath),
			"Run 'finch config init' first",
		)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"nano", "vim", "vi", "notepad"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set EDITOR environment variable")
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	return editorCmd.Run()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists at %s", configPath)
	}

	if err := config.Save(config.Default(), configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if JSONOutput() {
		return printJSON(map[string]string{
			"status": "created",
			"path":   configPath,
		})
	}
	fmt.Printf("Created config file: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set your server address: finch config set server.url <url>")
	fmt.Println("  2. Run 'finch login' to sign in")
	return nil
}

// getConfigPath returns the file config commands read and write. It never
// reflects FINCH_* overrides.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.Path()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	configPath := getConfigPath()

	// Decode the file alone so defaults and env overrides are not persisted.
	fileCfg := &config.Config{}
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, fileCfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := setConfigValue(fileCfg, key, value); err != nil {
		return err
	}

	check := *fileCfg
	check.ApplyDefaults()
	if err := check.Validate(); err != nil {
		return fmt.Errorf("%w: %w", finchErrors.ErrInvalidConfig, err)
	}

	if err := config.Save(fileCfg, configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if JSONOutput() {
		return printJSON(map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	}
	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}
