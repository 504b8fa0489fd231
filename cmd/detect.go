package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/emosense/internal/capture"
	"github.com/desertthunder/emosense/internal/models"
	"github.com/desertthunder/emosense/internal/shared"
	"github.com/urfave/cli/v3"
)

// Detect submits one image file for detection and refreshes the session.
func (r *Runner) Detect(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: image path", shared.ErrMissingArgument)
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	frame, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	image, err := capture.EncodeFrame(frame)
	if err != nil {
		return err
	}

	result, err := r.emotion.DetectAndRefresh(ctx, image)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	label := result.Emotion()
	if result.Data == nil {
		return r.writePlain("%s no emotion returned\n", models.CurrentGlyph(label))
	}
	return r.writePlain("%s %s (%s confidence)\n", models.CurrentGlyph(label), label, result.Data.ConfidencePercent())
}
