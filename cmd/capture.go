package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/emosense/internal/capture"
	"github.com/desertthunder/emosense/internal/repositories"
	"github.com/desertthunder/emosense/internal/session"
	"github.com/desertthunder/emosense/internal/shared"
	"github.com/urfave/cli/v3"
)

// newCycle builds a capture cycle from the config, with flag overrides applied.
func (r *Runner) newCycle(cmd *cli.Command) (*capture.Cycle, error) {
	cfg := r.config.Capture
	if cmd.IsSet("source") {
		cfg.Source = cmd.String("source")
	}
	if cmd.IsSet("directory") {
		cfg.Directory = cmd.String("directory")
		if !cmd.IsSet("source") {
			cfg.Source = "directory"
		}
	}

	source, err := capture.NewSource(cfg)
	if err != nil {
		return nil, err
	}

	interval := capture.ParseInterval(strconv.Itoa(cfg.Interval))
	if cmd.IsSet("interval") {
		interval = capture.ParseInterval(cmd.String("interval"))
	}

	return capture.NewCycle(source, r.emotion, capture.CycleOpts{
		Interval: interval,
		Notifier: r.session.Notifier,
		Logger:   r.logger,
	}), nil
}

// CaptureRun runs the capture-detect cycle headless, printing each detection, until interrupted,
// the session ends, or --count detections succeeded.
func (r *Runner) CaptureRun(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	cycle, err := r.newCycle(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := cycle.EnableCamera(ctx); err != nil {
		return err
	}
	defer func() {
		cycle.DisableCamera()
		cycle.Wait()
	}()
	if err := cycle.StartDetection(ctx); err != nil {
		return err
	}

	watcher := repositories.NewWatcher(r.session.Store, r.config.Storage.Path, r.config.Storage.PollEvery(), r.logger)
	profiles := watcher.Watch(ctx)

	limit := int(cmd.Int("count"))
	detected := 0
	r.writePlain("Detecting every %s. Press Ctrl+C to stop.\n", cycle.Interval())

	for {
		select {
		case <-ctx.Done():
			return nil

		case path := <-r.router.Changes():
			if strings.HasPrefix(path, session.LoginPath) {
				return fmt.Errorf("%w: session ended", shared.ErrNotAuthenticated)
			}

		case p, ok := <-profiles:
			if !ok {
				profiles = nil
				continue
			}
			if p == nil {
				return fmt.Errorf("%w: logged out in another process", shared.ErrNotAuthenticated)
			}

		case e := <-cycle.Events():
			switch e.Kind {
			case capture.Detected:
				detected++
				r.writePlain("%s %s (%.0f%%)\n", e.Glyph, e.Emotion, e.Confidence*100)
				if limit > 0 && detected >= limit {
					return nil
				}
			case capture.DetectionFailed:
				r.writePlain("✗ %v\n", e.Err)
			}
		}
	}
}
