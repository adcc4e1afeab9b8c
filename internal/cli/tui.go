package cli

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ocrbot/backend/internal/controller"
	"github.com/ocrbot/backend/internal/logger"
	"github.com/ocrbot/backend/internal/tui"
	"github.com/spf13/cobra"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the widget in the terminal",
		Long: "Run the widget in the terminal. Type a file path, then extract and copy the\n" +
			"result to the system clipboard. Logs go to tui.log in the data directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(os.Stderr)
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			// Logs would corrupt the screen
			logFile, err := os.OpenFile(filepath.Join(cfg.GetDataDir(), "tui.log"),
				os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("opening log file: %w", err)
			}
			defer logFile.Close()
			logger.Init(logFile, effectiveLevel(cfg))

			opts := controllerOptions(cfg)
			opts.Clipboard = controller.SystemClipboard{}
			ctrl, err := controller.New(opts)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			program := tea.NewProgram(tui.NewModel(ctrl), tea.WithContext(cmd.Context()))
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("error running program: %w", err)
			}
			return nil
		},
	}
}
