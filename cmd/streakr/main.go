package main

import (
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/streakr/internal/cli"
	"github.com/julianstephens/streakr/internal/cli/backups"
	"github.com/julianstephens/streakr/internal/cli/habits"
	"github.com/julianstephens/streakr/internal/cli/system"
	"github.com/julianstephens/streakr/internal/config"
	"github.com/julianstephens/streakr/internal/constants"
	"github.com/julianstephens/streakr/internal/errors"
	"github.com/julianstephens/streakr/internal/logger"
)

var CLI struct {
	Version   kong.VersionFlag
	ConfigDir string `help:"Directory holding config.yaml, logs, backups and the lockfile." type:"path" default:"${config_dir}" env:"STREAKR_CONFIG_DIR"`
	Storage   string `help:"SQLite path, .json path, PostgreSQL URL without a password, or \"postgres\" to use the keyring. Overrides the storage setting."`
	Debug     bool   `help:"Log debug output to stderr."`

	Init         system.InitCmd         `cmd:"" help:"Initialize streakr storage and write a default config."`
	Doctor       system.DoctorCmd       `cmd:"" help:"Run health checks and diagnostics."`
	Tui          system.TuiCmd          `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Daemon       system.DaemonCmd       `cmd:"" help:"Refresh streaks every day at the configured time."`
	Habit        habits.HabitCmd        `cmd:"" help:"Manage habits and check-ins."`
	Active       habits.ActiveCmd       `cmd:"" help:"List habits with a running streak."`
	Trophies     habits.TrophiesCmd     `cmd:"" help:"List the trophy gallery."`
	Achievements habits.AchievementsCmd `cmd:"" help:"List achievements, newest first."`
	Backup       struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage storage backups."`
	Config struct {
		Status          system.ConfigStatusCmd    `cmd:"" help:"Show effective settings and keyring status." default:"1"`
		SetConnection   system.SetConnectionCmd   `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
		ShowConnection  system.ShowConnectionCmd  `cmd:"" help:"Show the stored connection string with the password masked."`
		ClearConnection system.ClearConnectionCmd `cmd:"" help:"Remove the stored connection string."`
	} `cmd:"" help:"Manage configuration and credentials."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit streak tracker with milestones and a trophy gallery"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":    constants.Version,
			"config_dir": constants.DefaultConfigDir,
		},
	)

	cfg, err := config.Load(CLI.ConfigDir)
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.Storage != "" {
		if cfg.Storage, err = config.ExpandPath(CLI.Storage); err != nil {
			errors.Fatal(err)
		}
	}
	cfg.Debug = cfg.Debug || CLI.Debug

	command := ctx.Command()
	if err := logger.Init(logger.Config{
		Debug:     cfg.Debug,
		ConfigDir: cfg.ConfigDir,
		Stderr:    command == "daemon",
	}); err != nil {
		errors.Fatal(err)
	}
	logger.Debug("Starting", "command", command, "version", constants.Version)

	// Credential commands must work before any storage is reachable.
	var appCtx *cli.Context
	if strings.HasPrefix(command, "config") {
		appCtx = &cli.Context{Config: cfg}
	} else if appCtx, err = cli.NewContext(cfg); err != nil {
		errors.Fatal(err)
	}

	err = ctx.Run(appCtx)
	if appCtx.Store != nil {
		if closeErr := appCtx.Close(); closeErr != nil {
			logger.Warn("Failed to close storage", "error", closeErr)
		}
	}
	errors.Fatal(err)
}
