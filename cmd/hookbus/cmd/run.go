package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoCodeAlone/hookbus"
	"github.com/GoCodeAlone/hookbus/configwatcher"
	"github.com/GoCodeAlone/hookbus/scheduler"
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured schedules",
		Long: `Build a dispatcher from the configuration file, register a logging hook
on every scheduled pattern, and fire the schedules until interrupted.

With --watch the file is reloaded on change and namespaces are reconciled;
schedules are only read at startup.`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}

	cmd.Flags().BoolP("watch", "w", false, "Reconcile namespaces when the configuration file changes")
	cmd.Flags().Bool("seconds", false, "Accept six-field cron specs with a leading seconds field")
	cmd.Flags().Bool("debug", false, "Log at debug level, including every dispatcher event")
	cmd.Flags().Duration("shutdown-timeout", 10*time.Second, "How long to wait for running fires on shutdown")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	watch, _ := cmd.Flags().GetBool("watch")
	seconds, _ := cmd.Flags().GetBool("seconds")
	debug, _ := cmd.Flags().GetBool("debug")
	shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	path, fs, err := configFeeders(cmd)
	if err != nil {
		return err
	}
	cfg, err := hookbus.LoadConfig(fs...)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	opts := []hookbus.Option{hookbus.WithLogger(logger)}
	if debug {
		opts = append(opts, hookbus.WithObserver(eventLogger(logger)))
	}
	opts = append(opts, hookbus.WithConfig(cfg))
	d, err := hookbus.New(opts...)
	if err != nil {
		return err
	}

	for _, s := range cfg.Schedules {
		if _, err := d.AddHook(s.Pattern, logFire(logger, s.Name)); err != nil {
			return fmt.Errorf("schedule %q: %w", s.Name, err)
		}
	}

	var schedOpts []scheduler.Option
	schedOpts = append(schedOpts, scheduler.WithLogger(logger))
	if seconds {
		schedOpts = append(schedOpts, scheduler.WithSeconds())
	}
	sched := scheduler.New(d, schedOpts...)
	if _, err := sched.ApplyConfig(cfg.Schedules); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sched.Start(ctx); err != nil {
		return err
	}

	var watcher *configwatcher.Watcher
	if watch {
		watcher = configwatcher.New(path, d,
			configwatcher.WithLogger(logger),
			configwatcher.WithFeeders(fs[1:]...),
		)
		if err := watcher.Start(ctx); err != nil {
			return err
		}
	}

	logger.Info("hookbus running", "config", path, "namespaces", d.Registry().IDs(), "schedules", len(cfg.Schedules))
	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			logger.Error("Failed to stop config watcher", "error", err)
		}
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to stop scheduler", "error", err)
	}
	return d.Close(shutdownCtx)
}

// logFire returns a hook that logs the fired pattern and its arguments.
func logFire(logger *slog.Logger, schedule string) hookbus.HookFunc {
	return func(ec *hookbus.ExecContext, args ...any) (any, error) {
		logger.Info("Fired", "schedule", schedule, "pattern", ec.Pattern().String(), "fireID", ec.FireID(), "args", args)
		return nil, nil
	}
}

func eventLogger(logger *slog.Logger) hookbus.Observer {
	return hookbus.NewFunctionalObserver("cli-event-logger", func(ctx context.Context, event hookbus.CloudEvent) error {
		logger.Debug("Dispatcher event", "type", event.Type(), "id", event.ID(), "data", string(event.Data()))
		return nil
	})
}
