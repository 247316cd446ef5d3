package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultEndpoint is the Wikimedia Commons API endpoint
	DefaultEndpoint = "https://commons.wikimedia.org/w/api.php"

	// DefaultLimit is the default number of images to collect per search
	DefaultLimit = 100

	// DefaultMaxFileSize is the default size ceiling in bytes
	DefaultMaxFileSize int64 = 80000000

	envPrefix = "COMMONSFETCH_"
)

// DefaultMIMETypes lists the content types accepted by default
var DefaultMIMETypes = []string{"image/png", "image/jpeg"}

// Config holds all configuration options for commonsfetch
type Config struct {
	// Remote API settings
	API APIConfig `yaml:"api" json:"api"`

	// Search and filter settings
	Search SearchConfig `yaml:"search" json:"search"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds MediaWiki API settings
type APIConfig struct {
	Endpoint  string        `yaml:"endpoint" json:"endpoint"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// SearchConfig holds result collection settings
type SearchConfig struct {
	Limit              int      `yaml:"limit" json:"limit"`
	MaxFileSize        int64    `yaml:"max_file_size" json:"max_file_size"`
	MIMETypes          []string `yaml:"mime_types" json:"mime_types"`
	FollowContinuation bool     `yaml:"follow_continuation" json:"follow_continuation"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	Progress      bool   `yaml:"progress" json:"progress"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Endpoint:  DefaultEndpoint,
			UserAgent: "commonsfetch/1.0 (https://github.com/commonsfetch/commonsfetch)",
			// zero means the http.Client default: no timeout
			Timeout: 0,
		},
		Search: SearchConfig{
			Limit:              DefaultLimit,
			MaxFileSize:        DefaultMaxFileSize,
			MIMETypes:          append([]string(nil), DefaultMIMETypes...),
			FollowContinuation: true,
		},
		Output: OutputConfig{
			BaseDirectory: "images",
			Progress:      true,
		},
		Logging: LoggingConfig{
			Level: "warn",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if endpoint := os.Getenv(envPrefix + "ENDPOINT"); endpoint != "" {
		c.API.Endpoint = endpoint
	}
	if userAgent := os.Getenv(envPrefix + "USER_AGENT"); userAgent != "" {
		c.API.UserAgent = userAgent
	}
	if timeout := os.Getenv(envPrefix + "TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid %sTIMEOUT: %w", envPrefix, err)
		}
		c.API.Timeout = d
	}

	if limit := os.Getenv(envPrefix + "LIMIT"); limit != "" {
		val, err := strconv.Atoi(limit)
		if err != nil {
			return fmt.Errorf("invalid %sLIMIT: %w", envPrefix, err)
		}
		c.Search.Limit = val
	}
	if maxSize := os.Getenv(envPrefix + "MAX_FILE_SIZE"); maxSize != "" {
		val, err := strconv.ParseInt(maxSize, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_FILE_SIZE: %w", envPrefix, err)
		}
		c.Search.MaxFileSize = val
	}
	if mimeTypes := os.Getenv(envPrefix + "MIME_TYPES"); mimeTypes != "" {
		c.Search.MIMETypes = splitList(mimeTypes)
	}
	if follow := os.Getenv(envPrefix + "FOLLOW_CONTINUATION"); follow != "" {
		c.Search.FollowContinuation = strings.ToLower(follow) == "true"
	}

	if outputDir := os.Getenv(envPrefix + "OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	if logLevel := os.Getenv(envPrefix + "LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv(envPrefix + "LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".commonsfetch.yaml",
		".commonsfetch.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "commonsfetch", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".commonsfetch.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.API.Endpoint == "" {
		errs = append(errs, errors.New("API endpoint is required"))
	}
	if c.API.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required by the Wikimedia API policy"))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, errors.New("timeout cannot be negative"))
	}

	if c.Search.Limit < 0 {
		errs = append(errs, errors.New("limit cannot be negative"))
	}
	if c.Search.MaxFileSize <= 0 {
		errs = append(errs, errors.New("max file size must be positive"))
	}
	if len(c.Search.MIMETypes) == 0 {
		errs = append(errs, errors.New("at least one MIME type is required"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if endpoint, ok := flags["endpoint"].(string); ok && endpoint != "" {
		c.API.Endpoint = endpoint
	}
	if userAgent, ok := flags["user-agent"].(string); ok && userAgent != "" {
		c.API.UserAgent = userAgent
	}
	if timeout, ok := flags["timeout"].(time.Duration); ok && timeout > 0 {
		c.API.Timeout = timeout
	}
	if limit, ok := flags["limit"].(int); ok && limit >= 0 {
		c.Search.Limit = limit
	}
	if maxSize, ok := flags["max-file-size"].(int64); ok && maxSize > 0 {
		c.Search.MaxFileSize = maxSize
	}
	if mimeTypes, ok := flags["mime-types"].([]string); ok && len(mimeTypes) > 0 {
		c.Search.MIMETypes = mimeTypes
	}
	if follow, ok := flags["follow-continuation"].(bool); ok {
		c.Search.FollowContinuation = follow
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if progress, ok := flags["progress"].(bool); ok {
		c.Output.Progress = progress
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".commonsfetch.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// CheckOutputParent reports an error when the directory that would hold
// baseDir does not exist. Output directories are created one level at a time.
func CheckOutputParent(baseDir string) error {
	parent := filepath.Dir(filepath.Clean(baseDir))
	info, err := os.Stat(parent)
	if err != nil {
		return fmt.Errorf("output parent directory %s: %w", parent, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output parent %s is not a directory", parent)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
