package constants

import "time"

const (
	AppName            = "streakr"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/streakr"
	DefaultConfigPath  = "~/.config/streakr/streakr.db"
	ConfigFileName     = "config"
	EnvPrefix          = "STREAKR"
	Version            = "v0.3.0"

	// DateFormat is the day key layout used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the clock layout used for scheduled jobs (HH:MM)
	TimeFormat = "15:04"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "streakr-"

	// Writer lock constants
	LockfileName     = "streakr.lock"
	LockRetries      = 3
	LockRetryDelay   = 100 * time.Millisecond
	LockStaleTimeout = 10 * time.Minute
)
