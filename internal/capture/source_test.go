package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emosense/internal/shared"
	tu "github.com/desertthunder/emosense/internal/testing"
)

func jpegFrame(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{G: 255, A: 255})

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestEncodeFrame(t *testing.T) {
	const prefix = "data:image/png;base64,"

	t.Run("PNG Is Passed Through", func(t *testing.T) {
		frame := tu.PNGFrame(t)
		uri, err := EncodeFrame(frame)
		if err != nil {
			t.Fatalf("EncodeFrame failed: %v", err)
		}
		if uri != prefix+base64.StdEncoding.EncodeToString(frame) {
			t.Error("expected PNG bytes to be encoded unchanged")
		}
	})

	t.Run("JPEG Is Re-encoded", func(t *testing.T) {
		uri, err := EncodeFrame(jpegFrame(t))
		if err != nil {
			t.Fatalf("EncodeFrame failed: %v", err)
		}
		if !strings.HasPrefix(uri, prefix) {
			t.Fatalf("unexpected data URI %q", uri[:min(len(uri), 40)])
		}
		data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
		if err != nil {
			t.Fatalf("invalid base64: %v", err)
		}
		if _, format, err := image.Decode(bytes.NewReader(data)); err != nil || format != "png" {
			t.Errorf("expected png payload, got %q (%v)", format, err)
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		if _, err := EncodeFrame([]byte("not an image")); !errors.Is(err, shared.ErrCaptureFailed) {
			t.Errorf("expected ErrCaptureFailed, got %v", err)
		}
	})
}

func TestDirectorySource(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty Directory", func(t *testing.T) {
		src := NewDirectorySource(t.TempDir())
		if err := src.Open(ctx); !errors.Is(err, shared.ErrCameraUnavailable) {
			t.Errorf("expected ErrCameraUnavailable, got %v", err)
		}
	})

	t.Run("Missing Directory", func(t *testing.T) {
		src := NewDirectorySource(filepath.Join(t.TempDir(), "nope"))
		if err := src.Open(ctx); !errors.Is(err, shared.ErrCameraUnavailable) {
			t.Errorf("expected ErrCameraUnavailable, got %v", err)
		}
	})

	t.Run("Replays In Order And Wraps", func(t *testing.T) {
		dir := t.TempDir()
		tu.MustWriteFile(t, filepath.Join(dir, "b.png"), []byte("second"))
		tu.MustWriteFile(t, filepath.Join(dir, "a.jpg"), []byte("first"))
		tu.MustWriteFile(t, filepath.Join(dir, "notes.txt"), []byte("ignored"))
		tu.AssertFileExists(t, filepath.Join(dir, "notes.txt"))

		src := NewDirectorySource(dir)
		if _, err := src.Capture(ctx); !errors.Is(err, shared.ErrCaptureFailed) {
			t.Errorf("capture before open should fail, got %v", err)
		}
		if err := src.Open(ctx); err != nil {
			t.Fatalf("Open failed: %v", err)
		}

		var got []string
		for i := 0; i < 3; i++ {
			frame, err := src.Capture(ctx)
			if err != nil {
				t.Fatalf("Capture %d failed: %v", i, err)
			}
			got = append(got, string(frame))
		}
		if strings.Join(got, ",") != "first,second,first" {
			t.Errorf("unexpected frame order %v", got)
		}

		if err := src.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
		if _, err := src.Capture(ctx); err == nil {
			t.Error("capture after close should fail")
		}
	})
}

func TestCommandSource(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty Command", func(t *testing.T) {
		if _, err := NewCommandSource(nil); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Missing Program", func(t *testing.T) {
		src, _ := NewCommandSource([]string{"emosense-no-such-camera-tool"})
		if err := src.Open(ctx); !errors.Is(err, shared.ErrCameraUnavailable) {
			t.Errorf("expected ErrCameraUnavailable, got %v", err)
		}
	})

	t.Run("Reads Stdout", func(t *testing.T) {
		if _, err := exec.LookPath("cat"); err != nil {
			t.Skip("cat not available")
		}
		path := filepath.Join(t.TempDir(), "frame.png")
		frame := tu.PNGFrame(t)
		tu.MustWriteFile(t, path, frame)

		src, err := NewCommandSource([]string{"cat", path})
		if err != nil {
			t.Fatalf("NewCommandSource failed: %v", err)
		}
		if err := src.Open(ctx); err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer src.Close()

		got, err := src.Capture(ctx)
		if err != nil {
			t.Fatalf("Capture failed: %v", err)
		}
		if !bytes.Equal(got, frame) {
			t.Error("expected frame bytes from stdout")
		}
	})

	t.Run("Failing Program", func(t *testing.T) {
		if _, err := exec.LookPath("false"); err != nil {
			t.Skip("false not available")
		}
		src, _ := NewCommandSource([]string{"false"})
		if err := src.Open(ctx); !errors.Is(err, shared.ErrCameraUnavailable) {
			t.Errorf("expected ErrCameraUnavailable from the trial frame, got %v", err)
		}
		if _, err := src.Capture(ctx); !errors.Is(err, shared.ErrCaptureFailed) {
			t.Errorf("expected ErrCaptureFailed, got %v", err)
		}
	})

	t.Run("Device Lost After Open", func(t *testing.T) {
		if _, err := exec.LookPath("cat"); err != nil {
			t.Skip("cat not available")
		}
		path := filepath.Join(t.TempDir(), "frame.png")
		tu.MustWriteFile(t, path, tu.PNGFrame(t))

		src, _ := NewCommandSource([]string{"cat", path})
		if err := src.Open(ctx); err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer src.Close()

		if err := os.Remove(path); err != nil {
			t.Fatal(err)
		}
		if _, err := src.Capture(ctx); !errors.Is(err, shared.ErrCaptureFailed) {
			t.Errorf("expected ErrCaptureFailed, got %v", err)
		}
	})

	t.Run("Inaccessible Device Leaves Cycle Idle", func(t *testing.T) {
		if _, err := exec.LookPath("false"); err != nil {
			t.Skip("false not available")
		}
		src, _ := NewCommandSource([]string{"false"})
		notes := &tu.RecordingNotifier{}
		cycle := NewCycle(src, nil, CycleOpts{Notifier: notes, Logger: log.New(io.Discard)})

		if err := cycle.EnableCamera(ctx); !errors.Is(err, shared.ErrCameraUnavailable) {
			t.Fatalf("expected ErrCameraUnavailable, got %v", err)
		}
		if cycle.State() != Idle {
			t.Errorf("expected idle, got %s", cycle.State())
		}
		if e := <-cycle.Events(); e.Kind != CameraFailed {
			t.Errorf("expected camera_failed event, got %s", e.Kind)
		}
		if titles := notes.Titles(); len(titles) != 1 || titles[0] != "Camera Error" {
			t.Errorf("unexpected notifications %v", titles)
		}
	})
}

func TestNewSource(t *testing.T) {
	if src, err := NewSource(shared.CaptureConfig{Source: "directory", Directory: t.TempDir()}); err != nil {
		t.Errorf("directory source failed: %v", err)
	} else if _, ok := src.(*DirectorySource); !ok {
		t.Errorf("expected *DirectorySource, got %T", src)
	}

	if src, err := NewSource(shared.CaptureConfig{Source: "command", Command: []string{"ffmpeg"}}); err != nil {
		t.Errorf("command source failed: %v", err)
	} else if _, ok := src.(*CommandSource); !ok {
		t.Errorf("expected *CommandSource, got %T", src)
	}

	if _, err := NewSource(shared.CaptureConfig{Source: "webcam"}); !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
