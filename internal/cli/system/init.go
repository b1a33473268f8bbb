package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/streakr/internal/cli"
	"github.com/julianstephens/streakr/internal/config"
	"github.com/julianstephens/streakr/internal/storage"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting the existing store before initialization."`
	Source string `help:"Source store path or connection string to copy habits and achievements from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.removeExisting(ctx); err != nil {
			return err
		}
	}

	cfgPath, err := config.WriteDefaults(ctx.Config.ConfigDir)
	if err != nil {
		return err
	}
	fmt.Printf("Config file: %s\n", cfgPath)

	return ctx.WithWriteLock(func() error {
		if err := ctx.Store.Init(); err != nil {
			if errors.Is(err, storage.ErrAlreadyInitialized) {
				fmt.Printf("Storage already initialized at: %s\n", ctx.Store.GetConfigPath())
				return nil
			}
			return err
		}
		fmt.Printf("Initialized streakr storage at: %s\n", ctx.Store.GetConfigPath())

		if c.Source != "" {
			fmt.Printf("Copying data from: %s\n", c.Source)
			if err := c.copyData(ctx, c.Source); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Println("Migration completed successfully!")
		}
		return nil
	})
}

func (c *InitCmd) removeExisting(ctx *cli.Context) error {
	path := ctx.Store.GetConfigPath()
	if cli.IsPostgres(path) || path == "postgresql" {
		return errors.New("--force is only supported for file-backed storage")
	}

	if c.Source != "" {
		// Normalize paths to absolute for accurate comparison
		absPath, err := filepath.Abs(path)
		if err == nil {
			path = absPath
		}
		absSource, err := filepath.Abs(c.Source)
		if err == nil && absSource == path {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", path)
		}
	}

	if _, err := os.Stat(path); err == nil {
		// Close first to release file handles.
		if err := ctx.Close(); err != nil {
			return fmt.Errorf("failed to close existing store: %w", err)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to delete existing store: %w", err)
		}
		fmt.Printf("Deleted existing store at: %s\n", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing store: %w", err)
	}
	return nil
}

// copyData replaces the new store's contents with everything in source.
func (c *InitCmd) copyData(ctx *cli.Context, source string) error {
	sourceStore, err := cli.OpenProvider(source)
	if err != nil {
		return err
	}
	if err := sourceStore.Load(); err != nil {
		return fmt.Errorf("failed to load source store: %w", err)
	}
	defer sourceStore.Close()

	habits, err := sourceStore.LoadHabits()
	if err != nil {
		return fmt.Errorf("failed to read habits from source: %w", err)
	}
	achievements, err := sourceStore.LoadAchievements()
	if err != nil {
		return fmt.Errorf("failed to read achievements from source: %w", err)
	}

	if err := ctx.Store.SaveSnapshot(storage.Snapshot{Habits: habits, Achievements: achievements}); err != nil {
		return fmt.Errorf("failed to write destination: %w", err)
	}
	fmt.Printf("    Copied %d habits and %d achievements\n", len(habits), len(achievements))
	return nil
}
