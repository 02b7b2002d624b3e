package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/tessro/encore/internal/config"
	"github.com/tessro/encore/internal/errors"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "encore",
	Short: "Preview music from the terminal",
	Long: `Encore searches the Deezer catalog and plays 30 second previews.

Run 'encore ui' for the full-screen player or 'encore shell' for a prompt.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.encorerc)")
	flags.BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log to stderr as well as the log file")
}

// loadConfig reads the config named by --config, or the default search
// path, and validates it.
func loadConfig() error {
	var err error
	if cfgFile == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(cfgFile)
	}
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return errors.WithSuggestion(
			fmt.Errorf("%s: %w", cfgFile, errors.ErrConfigNotFound),
			"Run 'encore config init' to create one")
	case err != nil:
		return errors.WithSuggestion(
			fmt.Errorf("failed to parse config: %v: %w", err, errors.ErrInvalidConfig),
			"Check the file with 'encore config show'")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err)
	}
	return nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		os.Exit(1)
	}
}

// JSONOutput reports whether --json was given.
func JSONOutput() bool {
	return jsonOut
}

// Verbose reports whether --verbose was given.
func Verbose() bool {
	return verbose
}
