package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ocrbot/backend/internal/controller"
	"github.com/ocrbot/backend/internal/models"
	"github.com/ocrbot/backend/internal/storage"
	"github.com/spf13/cobra"
)

var (
	copyResult bool
	outputPath string
)

// ErrExtractionFailed is returned when the attempt ends in the error state
var ErrExtractionFailed = errors.New("extraction failed")

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract text from a single PDF or image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(os.Stderr)
			if err != nil {
				return err
			}

			opts := controllerOptions(cfg)
			if copyResult {
				opts.Clipboard = controller.SystemClipboard{}
			}
			ctrl, err := controller.New(opts)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			state, err := extractFile(ctx, ctrl, args[0])
			if err != nil {
				return err
			}

			if outputPath != "" {
				if err := os.WriteFile(outputPath, []byte(state.ExtractedText), 0644); err != nil {
					return fmt.Errorf("writing %s: %w", outputPath, err)
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), state.ExtractedText)
			}

			if state.Error != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", state.Error)
			}
			if copyResult {
				if err := ctrl.CopyToClipboard(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "Copied!")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&copyResult, "copy", false, "Copy the extracted text to the system clipboard")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the text to a file instead of stdout")
	return cmd
}

// extractFile selects path and runs one attempt to completion
func extractFile(ctx context.Context, ctrl *controller.Controller, path string) (models.WidgetState, error) {
	artifact, err := storage.FileArtifact(path)
	if err != nil {
		return models.WidgetState{}, err
	}

	if err := ctrl.SelectFile(artifact); err != nil {
		if errors.Is(err, controller.ErrInvalidFileType) {
			return ctrl.Snapshot(), fmt.Errorf("%s: %s", path, controller.MsgInvalidFileType)
		}
		return ctrl.Snapshot(), err
	}

	if err := ctrl.ExtractText(ctx); err != nil {
		state := ctrl.Snapshot()
		if state.Status == models.StatusError && state.Error != "" {
			return state, fmt.Errorf("%w: %s (%v)", ErrExtractionFailed, state.Error, err)
		}
		return state, err
	}
	return ctrl.Snapshot(), nil
}
