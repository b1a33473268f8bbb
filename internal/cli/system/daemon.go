package system

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/streakr/internal/cli"
	"github.com/julianstephens/streakr/internal/logger"
	"github.com/julianstephens/streakr/internal/scheduler"
)

// DaemonCmd keeps streak caches current by refreshing them once a day.
type DaemonCmd struct {
	At string `help:"Time of day to refresh (HH:MM), overrides refresh_time."`
}

func (c *DaemonCmd) Run(ctx *cli.Context) error {
	loc, err := ctx.Config.Location()
	if err != nil {
		return err
	}
	at := ctx.Config.RefreshTime
	if c.At != "" {
		at = c.At
	}

	sched := scheduler.New(loc)
	id, err := sched.ScheduleDaily(at, func() {
		if _, err := refresh(ctx); err != nil {
			logger.Error("Scheduled refresh failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	// Catch up on any rollover that happened while nothing was running.
	if _, err := refresh(ctx); err != nil {
		logger.Error("Startup refresh failed", "error", err)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start()
	fmt.Printf("streakr daemon running, next refresh at %s\n", sched.Next(id).Format("2006-01-02 15:04 MST"))
	logger.Info("Daemon started", "refresh_time", at, "timezone", loc.String())

	<-runCtx.Done()
	sched.Stop()
	logger.Info("Daemon stopped")
	return nil
}

// refresh reloads from storage so changes made by other processes are kept.
func refresh(ctx *cli.Context) (int, error) {
	var changed int
	err := ctx.WithWriteLock(func() error {
		if err := ctx.Reload(); err != nil {
			return err
		}
		var err error
		changed, err = ctx.Habits.Refresh(ctx.Now())
		return err
	})
	if err == nil {
		logger.Info("Streaks refreshed", "changed", changed)
	}
	return changed, err
}
