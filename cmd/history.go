package main

import (
	"context"

	"github.com/desertthunder/emosense/internal/formatter"
	"github.com/urfave/cli/v3"
)

// History prints the cached emotion history after refreshing it from the API.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	if !cmd.Bool("offline") {
		if r.auth.Refresh(ctx) == nil {
			r.logger.Warn("refresh failed, showing cached history")
		}
		if !r.session.Active(ctx) {
			return r.session.RequireActive(ctx)
		}
	}

	var data []byte
	if cmd.Bool("stats") {
		data, err = formatter.Stats(r.session.Store.EmotionStats(ctx), format)
	} else {
		data, err = formatter.History(r.session.Store.GetEmotionHistory(ctx), format)
	}
	if err != nil {
		return err
	}
	return r.emit(data, cmd.String("output"), "emotion_history", format)
}
