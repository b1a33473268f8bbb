// Package config loads policy settings from an optional config.yaml in the
// config directory and STREAKR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/julianstephens/streakr/internal/constants"
	"github.com/julianstephens/streakr/internal/daykey"
	"github.com/julianstephens/streakr/internal/streak"
)

type Config struct {
	// Storage is a SQLite path, a .json path or a PostgreSQL connection string.
	Storage         string `mapstructure:"storage"`
	Timezone        string `mapstructure:"timezone"`
	Milestones      []int  `mapstructure:"milestones"`
	TrophyThreshold int    `mapstructure:"trophy_threshold"`
	RefreshTime     string `mapstructure:"refresh_time"`
	Debug           bool   `mapstructure:"debug"`

	// ConfigDir is where config.yaml, logs, backups and the lockfile live.
	ConfigDir string `mapstructure:"-"`
}

func newViper(configDir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(constants.ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetDefault(constants.SettingStorage, filepath.Join(configDir, constants.AppName+".db"))
	v.SetDefault(constants.SettingTimezone, constants.DefaultTimezone)
	v.SetDefault(constants.SettingMilestones, constants.DefaultMilestones())
	v.SetDefault(constants.SettingTrophyThreshold, constants.DefaultTrophyThreshold)
	v.SetDefault(constants.SettingRefreshTime, constants.DefaultRefreshTime)
	v.SetDefault(constants.SettingDebug, false)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads the configuration for configDir. A missing config file is not an error.
func Load(configDir string) (*Config, error) {
	dir, err := ExpandPath(configDir)
	if err != nil {
		return nil, err
	}

	v := newViper(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ConfigDir = dir

	if cfg.Storage, err = ExpandPath(cfg.Storage); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteDefaults writes a config.yaml with the default settings unless one exists.
// It returns the path of the file.
func WriteDefaults(configDir string) (string, error) {
	dir, err := ExpandPath(configDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, constants.ConfigFileName+".yaml")
	v := viper.New()
	v.Set(constants.SettingTimezone, constants.DefaultTimezone)
	v.Set(constants.SettingMilestones, constants.DefaultMilestones())
	v.Set(constants.SettingTrophyThreshold, constants.DefaultTrophyThreshold)
	v.Set(constants.SettingRefreshTime, constants.DefaultRefreshTime)

	if err := v.SafeWriteConfigAs(path); err != nil {
		var exists viper.ConfigFileAlreadyExistsError
		if errors.As(err, &exists) {
			return path, nil
		}
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}

// Validate checks the policy settings.
func (c *Config) Validate() error {
	if _, err := streak.NewLadder(c.Milestones); err != nil {
		return err
	}
	if c.TrophyThreshold <= 0 {
		return fmt.Errorf("trophy_threshold must be positive, got %d", c.TrophyThreshold)
	}
	if _, err := daykey.LoadLocation(c.Timezone); err != nil {
		return err
	}
	if _, err := time.Parse(constants.TimeFormat, c.RefreshTime); err != nil {
		return fmt.Errorf("invalid refresh_time %q, expected HH:MM", c.RefreshTime)
	}
	return nil
}

// Location returns the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	return daykey.LoadLocation(c.Timezone)
}

// Ladder returns the configured milestone ladder.
func (c *Config) Ladder() (streak.Ladder, error) {
	return streak.NewLadder(c.Milestones)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
