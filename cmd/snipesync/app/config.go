package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/macbridge/snipesync/pkg/errors"
)

// JamfConfig holds the MDM connection settings.
type JamfConfig struct {
	URL      string
	User     string
	Password string
}

// SnipeConfig holds the asset-store connection settings and the IDs new
// records are created with.
type SnipeConfig struct {
	URL             string
	APIKey          string
	DefaultStatusID int
	ManufacturerID  int
	CategoryID      int
}

// Config holds the application configuration loaded from config files,
// environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool

	// Config file
	ConfigFile string

	// Remote systems
	Jamf  JamfConfig
	Snipe SnipeConfig

	// MappingsFile points at the field-mapping YAML document.
	MappingsFile string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.snipesync.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Try to read config file if it exists
	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".snipesync")
		}
	}

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),

		ConfigFile: viper.ConfigFileUsed(),

		Jamf: JamfConfig{
			URL:      viper.GetString("jamf.url"),
			User:     viper.GetString("jamf.user"),
			Password: viper.GetString("jamf.password"),
		},
		Snipe: SnipeConfig{
			URL:             viper.GetString("snipe.url"),
			APIKey:          viper.GetString("snipe.api_key"),
			DefaultStatusID: viper.GetInt("snipe.default_status_id"),
			ManufacturerID:  viper.GetInt("snipe.manufacturer_id"),
			CategoryID:      viper.GetInt("snipe.category_id"),
		},

		MappingsFile: viper.GetString("mappings_file"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

// validateJamf checks the MDM connection settings.
func (c *Config) validateJamf() error {
	if c.Jamf.URL == "" {
		return errors.NewConfigError("jamf", "jamf.url is required (JAMF_URL)", nil)
	}
	if c.Jamf.User == "" || c.Jamf.Password == "" {
		return errors.NewConfigError("jamf", "jamf.user and jamf.password are required (JAMF_USER/JAMF_PASSWORD)", nil)
	}
	return nil
}

// validateSnipe checks the asset-store connection settings.
func (c *Config) validateSnipe() error {
	if c.Snipe.URL == "" {
		return errors.NewConfigError("snipe", "snipe.url is required (SNIPE_URL)", nil)
	}
	if c.Snipe.APIKey == "" {
		return errors.NewConfigError("snipe", "snipe.api_key is required (SNIPE_API_KEY)", nil)
	}
	return nil
}

// validateSync checks everything a write-capable sync pass needs.
func (c *Config) validateSync() error {
	if err := c.validateJamf(); err != nil {
		return err
	}
	if err := c.validateSnipe(); err != nil {
		return err
	}
	if c.Snipe.DefaultStatusID <= 0 {
		return errors.NewConfigError("snipe", "snipe.default_status_id must be a positive status ID", nil)
	}
	return nil
}

// loadEnvFiles loads .env files from the working directory, most specific
// first. Missing files are fine.
func loadEnvFiles() {
	envFiles := []string{".env.local", ".env"}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

// getEnvOrDefault returns an environment variable or a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
