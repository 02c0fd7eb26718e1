package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the Celenium exporter
type Config struct {
	// Celenium API settings
	API APIConfig `yaml:"api" json:"api"`

	// Rate limiting and retry configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Address discovery pipeline settings
	Discovery DiscoveryConfig `yaml:"discovery" json:"discovery"`

	// Withdrawal history pipeline settings
	Withdrawals WithdrawalsConfig `yaml:"withdrawals" json:"withdrawals"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds Celenium API settings
type APIConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url"`
	Key     string        `yaml:"key" json:"key"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig holds rate limiting and retry configuration
type RateLimitConfig struct {
	RequestsPerSecond int           `yaml:"requests_per_second" json:"requests_per_second"`
	RetryDelay        time.Duration `yaml:"retry_delay" json:"retry_delay"`
	// MaxRetries caps retry attempts per request; 0 means retry forever,
	// which is what long unattended runs want.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
}

// DiscoveryConfig holds settings for the vested-address discovery pipeline
type DiscoveryConfig struct {
	BatchSize      int    `yaml:"batch_size" json:"batch_size"`
	Workers        int    `yaml:"workers" json:"workers"`
	OutputFile     string `yaml:"output_file" json:"output_file"`
	CheckpointFile string `yaml:"checkpoint_file" json:"checkpoint_file"`
}

// WithdrawalsConfig holds settings for the withdrawal history pipeline
type WithdrawalsConfig struct {
	BatchSize        int    `yaml:"batch_size" json:"batch_size"`
	EventsLimit      int    `yaml:"events_limit" json:"events_limit"`
	InputFile        string `yaml:"input_file" json:"input_file"`
	TransactionsFile string `yaml:"transactions_file" json:"transactions_file"`
	SummaryFile      string `yaml:"summary_file" json:"summary_file"`
	CheckpointFile   string `yaml:"checkpoint_file" json:"checkpoint_file"`
	MessageType      string `yaml:"message_type" json:"message_type"`
	Denom            string `yaml:"denom" json:"denom"`
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
			BaseURL: "https://api.celenium.io/v1",
			Timeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 3,
			RetryDelay:        5 * time.Second,
			MaxRetries:        0, // retry forever
		},
		Discovery: DiscoveryConfig{
			BatchSize:      100,
			Workers:        5,
			OutputFile:     "data/vested_addresses.csv",
			CheckpointFile: "checkpoint.json",
		},
		Withdrawals: WithdrawalsConfig{
			BatchSize:        100,
			EventsLimit:      100,
			InputFile:        "data/vested_addresses.csv",
			TransactionsFile: "data/withdrawal_transactions.csv",
			SummaryFile:      "data/withdrawal_summary.csv",
			CheckpointFile:   "withdrawal_checkpoint.json",
			MessageType:      "MsgWithdrawDelegatorReward",
			Denom:            "utia",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if key := os.Getenv("CELVEST_API_KEY"); key != "" {
		c.API.Key = key
	}
	if baseURL := os.Getenv("CELVEST_API_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}

	if rps := os.Getenv("CELVEST_REQUESTS_PER_SECOND"); rps != "" {
		var val int
		fmt.Sscanf(rps, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerSecond = val
		}
	}

	if dataDir := os.Getenv("CELVEST_DATA_DIR"); dataDir != "" {
		c.Discovery.OutputFile = filepath.Join(dataDir, filepath.Base(c.Discovery.OutputFile))
		c.Withdrawals.InputFile = filepath.Join(dataDir, filepath.Base(c.Withdrawals.InputFile))
		c.Withdrawals.TransactionsFile = filepath.Join(dataDir, filepath.Base(c.Withdrawals.TransactionsFile))
		c.Withdrawals.SummaryFile = filepath.Join(dataDir, filepath.Base(c.Withdrawals.SummaryFile))
	}

	if workers := os.Getenv("CELVEST_WORKERS"); workers != "" {
		var val int
		fmt.Sscanf(workers, "%d", &val)
		if val > 0 {
			c.Discovery.Workers = val
		}
	}

	if logLevel := os.Getenv("CELVEST_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
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
	// Check in order of precedence
	locations := []string{
		".celvest.yaml",
		".celvest.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "celvest", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "celvest", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".celvest.yaml"),
		filepath.Join(os.Getenv("HOME"), ".celvest.yml"),
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

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("API timeout must be positive"))
	}

	if c.RateLimit.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("requests per second must be positive"))
	}
	if c.RateLimit.RetryDelay <= 0 {
		errs = append(errs, errors.New("retry delay must be positive"))
	}
	if c.RateLimit.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	if c.Discovery.BatchSize <= 0 {
		errs = append(errs, errors.New("discovery batch size must be positive"))
	}
	if c.Discovery.Workers <= 0 {
		errs = append(errs, errors.New("discovery workers must be positive"))
	}
	if c.Discovery.Workers > 10 {
		errs = append(errs, errors.New("discovery workers should not exceed 10"))
	}
	if c.Discovery.OutputFile == "" {
		errs = append(errs, errors.New("discovery output file is required"))
	}
	if c.Discovery.CheckpointFile == "" {
		errs = append(errs, errors.New("discovery checkpoint file is required"))
	}

	if c.Withdrawals.BatchSize <= 0 {
		errs = append(errs, errors.New("withdrawals batch size must be positive"))
	}
	if c.Withdrawals.EventsLimit <= 0 {
		errs = append(errs, errors.New("withdrawals events limit must be positive"))
	}
	if c.Withdrawals.InputFile == "" {
		errs = append(errs, errors.New("withdrawals input file is required"))
	}
	if c.Withdrawals.TransactionsFile == "" {
		errs = append(errs, errors.New("withdrawals transactions file is required"))
	}
	if c.Withdrawals.SummaryFile == "" {
		errs = append(errs, errors.New("withdrawals summary file is required"))
	}
	if c.Withdrawals.CheckpointFile == "" {
		errs = append(errs, errors.New("withdrawals checkpoint file is required"))
	}
	if c.Withdrawals.MessageType == "" {
		errs = append(errs, errors.New("withdrawals message type is required"))
	}
	if c.Withdrawals.Denom == "" {
		errs = append(errs, errors.New("withdrawals denom is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
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

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if apiKey, ok := flags["api-key"].(string); ok && apiKey != "" {
		c.API.Key = apiKey
	}
	if batchSize, ok := flags["batch-size"].(int); ok && batchSize > 0 {
		c.Discovery.BatchSize = batchSize
		c.Withdrawals.BatchSize = batchSize
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Discovery.Workers = workers
	}
	if rps, ok := flags["rate-limit"].(int); ok && rps > 0 {
		c.RateLimit.RequestsPerSecond = rps
	}
	if maxRetries, ok := flags["max-retries"].(int); ok && maxRetries >= 0 {
		c.RateLimit.MaxRetries = maxRetries
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
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".celvest.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
