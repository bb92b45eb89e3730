package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// APIConfig holds connection settings for the field-service platform API.
type APIConfig struct {
	// BaseURL is the root URL of the mobile API,
	// e.g. https://api.pestguard.example/api/mobile.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec is the per-request timeout in seconds.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// SyncConfig holds background polling intervals.
type SyncConfig struct {
	// AppointmentPollSec is how often the appointment/job lists refresh.
	AppointmentPollSec int `mapstructure:"appointment_poll_sec" yaml:"appointment_poll_sec"`

	// NotificationPollSec is how often the notification badge refreshes.
	NotificationPollSec int `mapstructure:"notification_poll_sec" yaml:"notification_poll_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Sync    SyncConfig    `mapstructure:"sync" yaml:"sync"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/fieldops/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "fieldops", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			TimeoutSec: 30,
		},
		Sync: SyncConfig{
			AppointmentPollSec:  120,
			NotificationPollSec: 60,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("api.timeout_sec", 30)
	v.SetDefault("sync.appointment_poll_sec", 120)
	v.SetDefault("sync.notification_poll_sec", 60)
	v.SetDefault("display.theme", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("sync", cfg.Sync)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
