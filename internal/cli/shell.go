package cli

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tessro/encore/internal/config"
	"github.com/tessro/encore/internal/shell"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive command shell",
	Long: `Start a line-oriented shell with tab completion.

Type 'help' inside the shell for the list of commands.`,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sh := shell.New(a.player, a.catalog, a.history, os.Stdout, a.logger)
	return sh.Run(ctx, filepath.Join(config.DataDir(), "shell_history"))
}
