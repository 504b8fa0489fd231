package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/desertthunder/emosense/internal/shared"
)

// FrameSource produces still frames. It is opened when the camera is enabled and closed when it is
// disabled; Capture is only called while open.
type FrameSource interface {
	Open(ctx context.Context) error
	Capture(ctx context.Context) ([]byte, error)
	Close() error
}

// NewSource builds the frame source selected by the capture config.
func NewSource(cfg shared.CaptureConfig) (FrameSource, error) {
	switch cfg.Source {
	case "directory":
		return NewDirectorySource(cfg.Directory), nil
	case "command", "":
		return NewCommandSource(cfg.Command)
	default:
		return nil, fmt.Errorf("%w: unknown capture source %q", shared.ErrInvalidConfig, cfg.Source)
	}
}

// EncodeFrame returns frame as a PNG data URI, re-encoding other image formats.
func EncodeFrame(frame []byte) (string, error) {
	img, format, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrCaptureFailed, err)
	}

	data := frame
	if format != "png" {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("%w: %v", shared.ErrCaptureFailed, err)
		}
		data = buf.Bytes()
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

var imageExts = []string{".png", ".jpg", ".jpeg"}

// DirectorySource replays the images in a directory in name order, wrapping around at the end.
// Files added while open are picked up on the next pass.
type DirectorySource struct {
	dir string

	mu    sync.Mutex
	files []string
	next  int
	open  bool
}

func NewDirectorySource(dir string) *DirectorySource {
	return &DirectorySource{dir: dir}
}

func (s *DirectorySource) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.scan()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no images in %s", shared.ErrCameraUnavailable, s.dir)
	}
	s.files, s.next, s.open = files, 0, true
	return nil
}

func (s *DirectorySource) scan() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCameraUnavailable, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(imageExts, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		files = append(files, filepath.Join(s.dir, e.Name()))
	}
	return files, nil
}

func (s *DirectorySource) Capture(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, fmt.Errorf("%w: source is closed", shared.ErrCaptureFailed)
	}
	if s.next >= len(s.files) {
		if files, err := s.scan(); err == nil && len(files) > 0 {
			s.files = files
		}
		s.next = 0
	}

	path := s.files[s.next]
	s.next++

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCaptureFailed, err)
	}
	return data, nil
}

func (s *DirectorySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open, s.files = false, nil
	return nil
}

// CommandSource runs an external program (ffmpeg by default) per frame and reads the image from its
// stdout.
type CommandSource struct {
	argv []string

	mu   sync.Mutex
	open bool
}

func NewCommandSource(argv []string) (*CommandSource, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: capture command is empty", shared.ErrInvalidConfig)
	}
	return &CommandSource{argv: argv}, nil
}

// Open checks that the program exists and takes one trial frame, so a device that cannot be
// accessed fails here rather than on every tick.
func (s *CommandSource) Open(ctx context.Context) error {
	if _, err := exec.LookPath(s.argv[0]); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCameraUnavailable, err)
	}
	if _, err := s.run(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCameraUnavailable, err)
	}
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
	return nil
}

func (s *CommandSource) Capture(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	open := s.open
	s.mu.Unlock()
	if !open {
		return nil, fmt.Errorf("%w: source is closed", shared.ErrCaptureFailed)
	}

	frame, err := s.run(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCaptureFailed, err)
	}
	return frame, nil
}

func (s *CommandSource) run(ctx context.Context) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%v: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("command produced no image")
	}
	return stdout.Bytes(), nil
}

func (s *CommandSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}
