// Package config provides file-based configuration with environment overrides.
// The file format follows the extension: .yaml/.yml is YAML, anything else XML.
package config

import (
	"encoding/xml"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/bytes"
	"github.com/ocrbot/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// PlaceholderEndpoint is the literal shipped in sample configs; it counts as unset.
const PlaceholderEndpoint = "YOUR_API_URL"

// AppConfig represents the root configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"OcrBot" yaml:"-"`

	Server     ServerConfig     `xml:"Server" yaml:"server"`
	Storage    StorageConfig    `xml:"Storage" yaml:"storage"`
	Extractor  ExtractorConfig  `xml:"Extractor" yaml:"extractor"`
	Widget     WidgetConfig     `xml:"Widget" yaml:"widget"`
	Processing ProcessingConfig `xml:"Processing" yaml:"processing"`
	Advanced   AdvancedConfig   `xml:"Advanced" yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port" yaml:"port"`
	BindAddress  string `xml:"BindAddress" yaml:"bindAddress"`
	EnableCORS   bool   `xml:"EnableCORS" yaml:"enableCors"`
	AllowOrigins string `xml:"AllowOrigins" yaml:"allowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds" yaml:"readTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds" yaml:"writeTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds" yaml:"idleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit" yaml:"bodyLimit"`
}

// StorageConfig contains upload storage settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory" yaml:"dataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory" yaml:"uploadsDirectory"`
	MaxUploadSize    string `xml:"MaxUploadSize" yaml:"maxUploadSize"`
}

// ExtractorConfig points at the external text extraction service
type ExtractorConfig struct {
	Endpoint       string `xml:"Endpoint" yaml:"endpoint"`
	TimeoutSeconds int    `xml:"TimeoutSeconds" yaml:"timeoutSeconds"`
}

// WidgetConfig holds the widget's timing
type WidgetConfig struct {
	DemoDelayMs int `xml:"DemoDelayMs" yaml:"demoDelayMs"`
	CopyResetMs int `xml:"CopyResetMs" yaml:"copyResetMs"`
}

// ProcessingConfig contains session lifecycle settings
type ProcessingConfig struct {
	MaxSessions            int  `xml:"MaxSessions" yaml:"maxSessions"`
	SessionTimeoutMinutes  int  `xml:"SessionTimeoutMinutes" yaml:"sessionTimeoutMinutes"`
	CleanupIntervalMinutes int  `xml:"CleanupIntervalMinutes" yaml:"cleanupIntervalMinutes"`
	EnableCompression      bool `xml:"EnableCompression" yaml:"enableCompression"`
	CompressionLevel       int  `xml:"CompressionLevel" yaml:"compressionLevel"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel" yaml:"logLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging" yaml:"enableRequestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 120,
			IdleTimeout:  120,
			BodyLimit:    "32M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			MaxUploadSize:    "25M",
		},
		Extractor: ExtractorConfig{
			Endpoint:       "",
			TimeoutSeconds: 120,
		},
		Widget: WidgetConfig{
			DemoDelayMs: 2000,
			CopyResetMs: 2000,
		},
		Processing: ProcessingConfig{
			MaxSessions:            100,
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
			EnableCompression:      true,
			CompressionLevel:       5,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from file, creating a default one on first run
func LoadConfig(configPath string) (*AppConfig, error) {
	var config *AppConfig

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config = DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		config = DefaultConfig()
		if isYAML(configPath) {
			err = yaml.Unmarshal(data, config)
		} else {
			err = xml.Unmarshal(data, config)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration in the format implied by the path
func (c *AppConfig) Save(configPath string) error {
	var content []byte
	if isYAML(configPath) {
		output, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		content = append([]byte("# ocrbot configuration\n# Generated on first run\n\n"), output...)
	} else {
		output, err := xml.MarshalIndent(c, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		header := []byte(xml.Header + "\n<!-- ocrbot configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
		content = append(header, output...)
	}

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR override
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.UploadsDirectory = filepath.Join(dataDir, "uploads")
	}

	// OCR_API_URL wins; VITE_API_URL is accepted from older .env files
	if endpoint := os.Getenv("OCR_API_URL"); endpoint != "" {
		c.Extractor.Endpoint = endpoint
	} else if endpoint := os.Getenv("VITE_API_URL"); endpoint != "" {
		c.Extractor.Endpoint = endpoint
	}

	if level := os.Getenv("OCR_LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Storage.DataDirectory) {
		c.Storage.DataDirectory = filepath.Join(configDir, c.Storage.DataDirectory)
	}
	if !filepath.IsAbs(c.Storage.UploadsDirectory) {
		c.Storage.UploadsDirectory = filepath.Join(configDir, c.Storage.UploadsDirectory)
	}
}

// Mode reports whether extraction is live or simulated. It is fixed at startup.
func (c *AppConfig) Mode() models.Mode {
	endpoint := strings.TrimSpace(c.Extractor.Endpoint)
	if endpoint == "" || endpoint == PlaceholderEndpoint {
		return models.ModeDemo
	}
	return models.ModeLive
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// ExtractorTimeout returns the outbound request deadline
func (c *AppConfig) ExtractorTimeout() time.Duration {
	return time.Duration(c.Extractor.TimeoutSeconds) * time.Second
}

// DemoDelay returns the simulated processing time in demo mode
func (c *AppConfig) DemoDelay() time.Duration {
	return time.Duration(c.Widget.DemoDelayMs) * time.Millisecond
}

// CopyResetDelay returns how long the copy acknowledgement stays raised
func (c *AppConfig) CopyResetDelay() time.Duration {
	return time.Duration(c.Widget.CopyResetMs) * time.Millisecond
}

// MaxUploadBytes parses Storage.MaxUploadSize; 0 means unlimited
func (c *AppConfig) MaxUploadBytes() (int64, error) {
	return ParseSize(c.Storage.MaxUploadSize)
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// ParseSize converts sizes like "25M", "512K", "2Gi" or plain bytes to a byte count.
// It uses the same parser as echo's BodyLimit, so "M" is 10^6 and "Mi" is 2^20.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	n, err := bytes.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	// out-of-range float conversions come back negative or saturated
	if n < 0 || n == math.MaxInt64 {
		return 0, fmt.Errorf("invalid size %q: out of range", s)
	}
	return n, nil
}
