package cli

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tessro/encore/internal/config"
	"github.com/tessro/encore/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing encore configuration.`,
	// A missing file is not an error here: init creates it and show
	// prints the defaults.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		err := loadConfig()
		if stderrors.Is(err, errors.ErrConfigNotFound) {
			cfg = config.Default()
			return nil
		}
		return err
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration values, including defaults and ENCORE_* overrides.`,
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
	Long: `Set a configuration value.

Supported keys:
  deezer.base_url          Catalog API base URL
  deezer.timeout           Request timeout in seconds
  playback.poll_interval   Engine status poll interval in milliseconds
  playback.sample_rate     Output sample rate in Hz
  history.disabled         Disable listening history (true/false)
  history.path             History database path
  history.limit            Entries shown by default
  tui.theme                auto, dark or light
  tui.refresh_interval     UI refresh interval in milliseconds
  log.level                debug, info, warn or error
  log.file                 Log file path

Examples:
  encore config set tui.theme dark
  encore config set playback.poll_interval 100`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configSetThemeCmd = &cobra.Command{
	Use:   "set-theme",
	Short: "Interactively select the UI theme",
	RunE:  runConfigSetTheme,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetThemeCmd)
	rootCmd.AddCommand(configCmd)
}

// configKind is the TOML type of a settable key.
type configKind int

const (
	kindString configKind = iota
	kindInt
	kindBool
)

var configKeys = map[string]configKind{
	"deezer.base_url":        kindString,
	"deezer.timeout":         kindInt,
	"playback.poll_interval": kindInt,
	"playback.sample_rate":   kindInt,
	"history.disabled":       kindBool,
	"history.path":           kindString,
	"history.limit":          kindInt,
	"tui.theme":              kindString,
	"tui.refresh_interval":   kindInt,
	"log.level":              kindString,
	"log.file":               kindString,
}

// parseConfigValue converts value to the type key is stored as.
func parseConfigValue(key, value string) (any, error) {
	kind, ok := configKeys[key]
	if !ok {
		keys := make([]string, 0, len(configKeys))
		for k := range configKeys {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, errors.WithSuggestion(
			fmt.Errorf("unknown key %q: %w", key, errors.ErrInvalidConfig),
			"Supported keys: "+strings.Join(keys, ", "))
	}

	switch kind {
	case kindInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("value must be an integer for %s", key)
		}
		return i, nil
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("value must be true or false for %s", key)
		}
		return b, nil
	default:
		return value, nil
	}
}

// setConfigValue applies key=value to raw TOML and checks the result is a
// valid configuration.
func setConfigValue(data []byte, key, value string) (map[string]any, error) {
	typed, err := parseConfigValue(key, value)
	if err != nil {
		return nil, err
	}

	raw := make(map[string]any)
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	section, field, _ := strings.Cut(key, ".")
	sectionMap, ok := raw[section].(map[string]any)
	if !ok {
		sectionMap = make(map[string]any)
		raw[section] = sectionMap
	}
	sectionMap[field] = typed

	// Round-trip through the schema to validate
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
		return nil, err
	}
	var check config.Config
	if _, err := toml.Decode(buf.String(), &check); err != nil {
		return nil, fmt.Errorf("%s: %w", key, errors.ErrInvalidConfig)
	}
	check.ApplyDefaults()
	if err := check.Validate(); err != nil {
		return nil, err
	}

	return raw, nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(cfg)
	}

	encoder := toml.NewEncoder(os.Stdout)
	encoder.Indent = "  "
	return encoder.Encode(cfg)
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", configPath, errors.ErrConfigNotFound)
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

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := writeConfigFile(configPath, config.Default()); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{
			"status": "created",
			"path":   configPath,
		})
	}
	fmt.Printf("Created config file: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  encore chart      # see what's trending")
	fmt.Println("  encore ui         # browse and play interactively")
	return nil
}

// getConfigPath returns --config, else the first existing file on the
// search path, else ~/.encorerc.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}

	paths := config.SearchPaths()
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if len(paths) == 0 {
		return ".encorerc"
	}
	return paths[0]
}

// writeConfigFile encodes v as TOML under a header comment.
func writeConfigFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, _ = fmt.Fprintln(f, "# Encore Configuration")
	_, _ = fmt.Fprintln(f, "# https://github.com/tessro/encore")
	_, _ = fmt.Fprintln(f, "")

	encoder := toml.NewEncoder(f)
	encoder.Indent = "  "
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	configPath := getConfigPath()

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", configPath, errors.ErrConfigNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	raw, err := setConfigValue(data, key, value)
	if err != nil {
		return err
	}
	if err := writeConfigFile(configPath, raw); err != nil {
		return err
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

func runConfigSetTheme(cmd *cobra.Command, args []string) error {
	theme := cfg.TUI.Theme
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select UI theme").
				Description("auto follows the terminal background").
				Options(
					huh.NewOption("Auto", "auto"),
					huh.NewOption("Dark", "dark"),
					huh.NewOption("Light", "light"),
				).
				Value(&theme),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("selection cancelled: %w", err)
	}

	return runConfigSet(cmd, []string{"tui.theme", theme})
}
