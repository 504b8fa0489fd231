package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/emosense/internal/repositories"
	"github.com/desertthunder/emosense/internal/session"
	"github.com/desertthunder/emosense/internal/shared"
	"github.com/desertthunder/emosense/internal/ui"
	"github.com/urfave/cli/v3"
)

// Dashboard launches the interactive terminal dashboard.
func (r *Runner) Dashboard(ctx context.Context, cmd *cli.Command) error {
	logPath := r.config.Log.File
	if cmd.IsSet("log-file") {
		logPath = cmd.String("log-file")
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	toasts := session.NewChannelNotifier(32)
	r.notifier = session.Fanout{toasts, session.NewLogNotifier(fileLogger)}

	if err := r.requireSession(ctx); err != nil {
		return err
	}

	cycle, err := r.newCycle(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() {
		cycle.DisableCamera()
		cycle.Wait()
	}()

	watcher := repositories.NewWatcher(r.session.Store, r.config.Storage.Path, r.config.Storage.PollEvery(), fileLogger)
	model := ui.NewModel(ctx, r.session, r.auth, cycle, ui.Sources{
		Notifications: toasts.C(),
		Locations:     r.router.Changes(),
		Profiles:      watcher.Watch(ctx),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
