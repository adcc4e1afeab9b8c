// Package cli wires configuration, logging and the front ends into cobra commands.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ocrbot/backend/internal/config"
	"github.com/ocrbot/backend/internal/controller"
	"github.com/ocrbot/backend/internal/extractor"
	"github.com/ocrbot/backend/internal/logger"
	"github.com/ocrbot/backend/internal/models"
	"github.com/spf13/cobra"
)

// DefaultConfigName is looked up next to the executable when --config is not given
const DefaultConfigName = "ocrbot.config.xml"

var (
	configPath string
	envFile    string
	logLevel   string
)

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ocrbot",
		Short: "Upload a PDF or image and extract its Persian text",
		Long: `ocrbot serves a small upload widget that sends a PDF or image to a text
extraction endpoint and shows the result, ready to copy.

Without OCR_API_URL (or with the placeholder YOUR_API_URL) it runs in demo
mode and returns a sample text after a short delay.

Examples:
  ocrbot serve                          # Start the web widget
  ocrbot serve --config ./ocrbot.yaml   # Use a YAML config file
  ocrbot tui                            # Terminal widget
  ocrbot extract scan.pdf --copy        # One-shot extraction to stdout and clipboard`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Config file (.xml, .yaml or .yml). Default: "+DefaultConfigName+" next to the executable")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"Environment file loaded before the config; missing files are ignored")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override the configured log level (debug, info, warn, error)")

	root.AddCommand(newServeCmd(), newTUICmd(), newExtractCmd(), newVersionCmd())
	return root
}

// loadConfig reads .env, the config file and initializes logging to w
func loadConfig(w io.Writer) (*config.AppConfig, string, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	path := configPath
	if path == "" {
		exePath, err := os.Executable()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get executable path: %w", err)
		}
		path = filepath.Join(filepath.Dir(exePath), DefaultConfigName)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(w, effectiveLevel(cfg))
	return cfg, path, nil
}

// effectiveLevel applies the --log-level flag over the configured level
func effectiveLevel(cfg *config.AppConfig) string {
	if logLevel != "" {
		return logLevel
	}
	return cfg.Advanced.LogLevel
}

// controllerOptions builds the per-controller settings shared by every front end
func controllerOptions(cfg *config.AppConfig) controller.Options {
	opts := controller.Options{
		Mode:           cfg.Mode(),
		DemoDelay:      cfg.DemoDelay(),
		CopyResetDelay: cfg.CopyResetDelay(),
	}
	if opts.Mode == models.ModeLive {
		client := extractor.NewHTTPClient(strings.TrimSpace(cfg.Extractor.Endpoint), cfg.ExtractorTimeout())
		logger.Info("extraction endpoint configured", "endpoint", client.Endpoint(), "timeout", cfg.ExtractorTimeout())
		opts.Extractor = client
	} else {
		logger.Warn("extraction endpoint not configured, running in demo mode")
	}
	return opts
}
