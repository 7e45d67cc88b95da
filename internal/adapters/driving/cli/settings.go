package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

// keyPositionBackend gets a numbered menu in the wizard.
const keyPositionBackend = "position.backend"

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change timeline, cache, position and decode settings.

Settings are stored in config.toml inside the data directory and take
effect the next time rewind starts.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	RunE:  runSettingsKeys,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Long: `Change a single setting.

Examples:
  rewind settings set timeline.max_frames 800
  rewind settings set timeline.jump_radius 15m
  rewind settings set position.backend sqlite`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Walk through every setting, keeping the current value on an empty answer.`,
	RunE:  runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func requireSettings() error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	values, err := settingsService.Values()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")

	section := ""
	for _, key := range settingsService.Keys() {
		group, name, _ := strings.Cut(key, ".")
		if group != section {
			section = group
			cmd.Println()
			cmd.Printf("[%s]\n", group)
		}
		cmd.Printf("  %s: %s\n", name, values[key])
	}
	cmd.Println()
	cmd.Printf("Data source version: %d\n", settingsService.DataSourceVersion())

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'rewind settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	values, err := settingsService.Values()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Rewind Settings Wizard")
	cmd.Println("======================")
	cmd.Println("Press enter to keep the current value.")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())
	changed := 0
	for _, key := range settingsService.Keys() {
		current := values[key]
		var answer string

		if key == keyPositionBackend {
			backends := domain.AllPositionBackends()
			def := 1
			cmd.Printf("%s:\n", key)
			for i, b := range backends {
				cmd.Printf("  %d. %s\n", i+1, b.Description())
				if b.String() == current {
					def = i + 1
				}
			}
			cmd.Printf("Enter choice [%d]: ", def)
			answer = backends[parseChoice(readLine(reader), len(backends), def)-1].String()
		} else {
			cmd.Printf("%s [%s]: ", key, current)
			answer = readLine(reader)
		}

		if answer == "" || answer == current {
			continue
		}
		if err := settingsService.Set(key, answer); err != nil {
			cmd.Printf("  Invalid value, keeping %s: %v\n", current, err)
			continue
		}
		changed++
	}

	cmd.Println()
	cmd.Printf("Updated %d settings.\n", changed)
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}
