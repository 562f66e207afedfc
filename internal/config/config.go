package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Gmail     GmailConfig     `mapstructure:"gmail"`
	Drive     DriveConfig     `mapstructure:"drive"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// SchedulerConfig holds mailbox scan scheduling configuration
type SchedulerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// GmailConfig holds Gmail API configuration
type GmailConfig struct {
	Query           string `mapstructure:"query"`
	ArchiveLabelID  string `mapstructure:"archive_label_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
}

// DriveConfig holds Google Drive upload configuration
type DriveConfig struct {
	ParentFolderID string `mapstructure:"parent_folder_id"`
}

// StorageConfig holds the local invoice directory used by manual mode
type StorageConfig struct {
	InvoicesDir string `mapstructure:"invoices_dir"`
}

// DatabaseConfig holds processing ledger database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ServerConfig holds status endpoint configuration
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file; a missing file falls back to defaults and environment
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Scheduler defaults
	viper.SetDefault("scheduler.interval", 300*time.Second)

	// Gmail defaults
	viper.SetDefault("gmail.query", "facture from:leroymerlin.fr has:attachment in:inbox")
	viper.SetDefault("gmail.credentials_file", "config/credentials.json")
	viper.SetDefault("gmail.token_file", "secrets/token.json")

	// Storage defaults
	viper.SetDefault("storage.invoices_dir", "invoices")

	// Database defaults
	viper.SetDefault("database.path", "data/archiver.db")
	viper.SetDefault("database.max_open_conns", 5)
	viper.SetDefault("database.max_idle_conns", 2)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Server defaults
	viper.SetDefault("server.enabled", true)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive identifiers from environment
	viper.BindEnv("gmail.archive_label_id", "GMAIL_ARCHIVE_LABEL_ID")
	viper.BindEnv("gmail.credentials_file", "GMAIL_CREDENTIALS_FILE")
	viper.BindEnv("gmail.token_file", "GMAIL_TOKEN_FILE")
	viper.BindEnv("drive.parent_folder_id", "DRIVE_PARENT_FOLDER_ID")
}

// Validate validates the configuration common to all modes
func (c *Config) Validate() error {
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be positive")
	}
	if c.Gmail.Query == "" {
		return fmt.Errorf("gmail.query is required")
	}
	if c.Storage.InvoicesDir == "" {
		return fmt.Errorf("storage.invoices_dir is required")
	}
	return nil
}

// ValidateScanMode checks the settings only the mailbox scanner needs
func (c *Config) ValidateScanMode() error {
	if c.Gmail.ArchiveLabelID == "" {
		return fmt.Errorf("gmail.archive_label_id is required")
	}
	return c.ValidateUpload()
}

// ValidateUpload checks the settings any uploading mode needs
func (c *Config) ValidateUpload() error {
	if c.Drive.ParentFolderID == "" {
		return fmt.Errorf("drive.parent_folder_id is required")
	}
	return nil
}
