package cli

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	finchErrors "github.com/tessro/finch/internal/errors"
	"github.com/tessro/finch/internal/settings"
)

// settingKeys are the per-device preferences kept in the local database.
// They override the matching config file defaults.
var settingKeys = []string{
	settings.KeyAudioLanguage,
	settings.KeyDeviceID,
	settings.KeyForceDirectPlay,
	settings.KeyMaxBitrate,
	settings.KeySubtitleLanguage,
	settings.KeyVolume,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage device preferences",
	Long: `Preferences stored on this device, such as the last volume and preferred
audio language. They take precedence over the config file.

Keys: ` + strings.Join(settingKeys, ", "),
}

var settingsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored preferences",
	RunE:    runSettingsList,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show a preference",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a preference",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Forget a preference and fall back to the config file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsUnset,
}

func init() {
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsUnsetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func checkSettingKey(key string) error {
	if slices.Contains(settingKeys, key) {
		return nil
	}
	return finchErrors.WithSuggestion(
		fmt.Errorf("unknown setting %q", key),
		"Valid keys: "+strings.Join(settingKeys, ", "),
	)
}

func withSettings(fn func(s *settings.Store) error) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(e.settings)
}

func runSettingsList(cmd *cobra.Command, args []string) error {
	return withSettings(func(s *settings.Store) error {
		all, err := s.All()
		if err != nil {
			return err
		}
		if JSONOutput() {
			return printJSON(all)
		}
		if len(all) == 0 {
			fmt.Println("No preferences stored")
			return nil
		}

		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		table := NewTable("KEY", "VALUE")
		for _, k := range keys {
			table.Row(k, all[k])
		}
		table.Flush()
		return nil
	})
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if err := checkSettingKey(key); err != nil {
		return err
	}
	return withSettings(func(s *settings.Store) error {
		value, err := s.Get(key)
		if errors.Is(err, settings.ErrNotFound) {
			return finchErrors.WithSuggestion(
				fmt.Errorf("%s is not set", key),
				fmt.Sprintf("Run 'finch settings set %s <value>'", key),
			)
		}
		if err != nil {
			return err
		}
		if JSONOutput() {
			return printJSON(map[string]string{key: value})
		}
		fmt.Println(value)
		return nil
	})
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if err := checkSettingKey(key); err != nil {
		return err
	}
	if err := settings.Validate(key, value); err != nil {
		return err
	}
	return withSettings(func(s *settings.Store) error {
		if err := s.Set(key, value); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
		if JSONOutput() {
			return printJSON(map[string]string{key: value})
		}
		fmt.Printf("%s = %s\n", key, value)
		return nil
	})
}

func runSettingsUnset(cmd *cobra.Command, args []string) error {
	key := args[0]
	if err := checkSettingKey(key); err != nil {
		return err
	}
	return withSettings(func(s *settings.Store) error {
		if err := s.Delete(key); err != nil {
			return err
		}
		if !JSONOutput() {
			fmt.Printf("Unset %s\n", key)
		}
		return nil
	})
}
