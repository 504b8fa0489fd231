// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emosense/internal/repositories"
	"github.com/desertthunder/emosense/internal/session"
	"github.com/desertthunder/emosense/internal/shared"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// RecordingNotifier keeps every notification it receives.
type RecordingNotifier struct {
	mu    sync.Mutex
	notes []session.Notification
}

func (r *RecordingNotifier) Notify(n session.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

// Titles returns the titles of the recorded notifications in order.
func (r *RecordingNotifier) Titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	titles := make([]string, len(r.notes))
	for i, n := range r.notes {
		titles[i] = n.Title
	}
	return titles
}

func (r *RecordingNotifier) Notes() []session.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]session.Notification(nil), r.notes...)
}

// Fixture bundles a session over a private in-memory database.
type Fixture struct {
	Session  *session.Session
	Router   *session.Router
	Notifier *RecordingNotifier
	KV       *repositories.KVRepository
	Logger   *log.Logger
}

// NewFixture builds a [Fixture] positioned at location. The database closes with the test.
func NewFixture(t *testing.T, location string) *Fixture {
	t.Helper()

	db, err := shared.OpenStorage(shared.MemoryDatabase)
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := log.New(io.Discard)
	kv := repositories.NewKVRepository(db)
	router := session.NewRouter(location)
	notes := &RecordingNotifier{}
	s := session.New(repositories.NewSessionStore(kv, logger), repositories.NewTokenHolder(kv), router, notes, logger)
	s.Init(context.Background())

	return &Fixture{Session: s, Router: router, Notifier: notes, KV: kv, Logger: logger}
}

// PNGFrame encodes a small solid-color image.
func PNGFrame(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode frame: %v", err)
	}
	return buf.Bytes()
}

func MustWriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
