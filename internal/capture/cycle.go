package capture

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emosense/internal/models"
	"github.com/desertthunder/emosense/internal/services"
	"github.com/desertthunder/emosense/internal/session"
	"github.com/desertthunder/emosense/internal/shared"
)

// DefaultInterval is used when the selected interval is not a positive number.
const DefaultInterval = 5 * time.Second

// ParseInterval converts an interval selection in seconds. Zero, negatives and junk fall back to
// [DefaultInterval].
func ParseInterval(s string) time.Duration {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return DefaultInterval
	}
	return time.Duration(n * float64(time.Second))
}

// Detector submits an encoded frame and refreshes the session on success.
type Detector interface {
	DetectAndRefresh(ctx context.Context, image string) (*services.DetectionResult, error)
}

// Ticker is the subset of [time.Ticker] the cycle uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// CycleOpts configures a [Cycle]. Nil fields select defaults.
type CycleOpts struct {
	Interval  time.Duration
	Notifier  session.Notifier
	Logger    *log.Logger
	NewTicker func(time.Duration) Ticker
	Buffer    int // event channel capacity, default 16
}

// Cycle is the capture-detect state machine.
type Cycle struct {
	source    FrameSource
	detector  Detector
	notifier  session.Notifier
	logger    *log.Logger
	newTicker func(time.Duration) Ticker
	events    chan Event

	mu         sync.Mutex
	camera     bool
	detecting  bool
	interval   time.Duration
	emotion    string
	generation uint64
	stop       chan struct{}

	processing atomic.Bool
	inflight   sync.WaitGroup
	loops      sync.WaitGroup
}

// NewCycle creates an idle [Cycle].
func NewCycle(source FrameSource, detector Detector, opts CycleOpts) *Cycle {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Notifier == nil {
		opts.Notifier = session.NewLogNotifier(opts.Logger)
	}
	if opts.NewTicker == nil {
		opts.NewTicker = func(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 16
	}

	return &Cycle{
		source:    source,
		detector:  detector,
		notifier:  opts.Notifier,
		logger:    shared.WithLogger(opts.Logger, "component", "capture"),
		newTicker: opts.NewTicker,
		events:    make(chan Event, opts.Buffer),
		interval:  opts.Interval,
	}
}

// Events delivers cycle events. Events are dropped when the channel is full.
func (c *Cycle) Events() <-chan Event {
	return c.events
}

func (c *Cycle) send(e Event) {
	select {
	case c.events <- e:
	default:
	}
}

// State derives the current state from the camera, detection and processing flags.
func (c *Cycle) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

func (c *Cycle) state() State {
	switch {
	case !c.camera:
		return Idle
	case !c.detecting:
		return Armed
	case c.processing.Load():
		return Capturing
	default:
		return Running
	}
}

func (c *Cycle) emitState() {
	c.send(Event{Kind: StateChanged, State: c.State()})
}

// Interval returns the selected tick interval.
func (c *Cycle) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// Emotion returns the last detected label, "" before the first detection.
func (c *Cycle) Emotion() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.emotion
}

// Glyph returns the glyph for the last detection; happy before the first one.
func (c *Cycle) Glyph() string {
	return models.CurrentGlyph(c.Emotion())
}

// EnableCamera opens the frame source. On failure the cycle stays idle and the user is told.
func (c *Cycle) EnableCamera(ctx context.Context) error {
	c.mu.Lock()
	if c.camera {
		c.mu.Unlock()
		return nil
	}

	if err := c.source.Open(ctx); err != nil {
		c.mu.Unlock()
		c.logger.Error("Error accessing camera", "error", err)
		c.notifier.Notify(session.Notification{
			Level:       session.LevelError,
			Title:       "Camera Error",
			Description: "Could not access your camera. Please check permissions.",
		})
		c.send(Event{Kind: CameraFailed, State: Idle, Err: err})
		return err
	}
	c.camera = true
	c.mu.Unlock()

	c.emitState()
	return nil
}

// DisableCamera releases the source, stops the timer and forces detection off. A detection already
// in flight is not cancelled; its result is discarded.
func (c *Cycle) DisableCamera() {
	c.mu.Lock()
	if !c.camera {
		c.mu.Unlock()
		return
	}
	c.stopLoop()
	c.detecting = false
	c.camera = false
	c.generation++
	if err := c.source.Close(); err != nil {
		c.logger.Warn("failed to close frame source", "error", err)
	}
	c.mu.Unlock()

	c.emitState()
}

// StartDetection starts ticking at the selected interval. The camera must be enabled.
func (c *Cycle) StartDetection(ctx context.Context) error {
	c.mu.Lock()
	if !c.camera {
		c.mu.Unlock()
		return fmt.Errorf("%w: enable the camera first", shared.ErrCameraUnavailable)
	}
	if c.detecting {
		c.mu.Unlock()
		return nil
	}
	c.detecting = true
	c.startLoop(ctx)
	c.mu.Unlock()

	c.emitState()
	return nil
}

// StopDetection stops the timer and keeps the camera on.
func (c *Cycle) StopDetection() {
	c.mu.Lock()
	if !c.detecting {
		c.mu.Unlock()
		return
	}
	c.stopLoop()
	c.detecting = false
	c.mu.Unlock()

	c.emitState()
}

// SetInterval selects a new interval from its string form, restarting a running timer.
func (c *Cycle) SetInterval(ctx context.Context, selection string) time.Duration {
	d := ParseInterval(selection)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.interval = d
	if c.detecting {
		c.stopLoop()
		c.startLoop(ctx)
	}
	return d
}

// startLoop must be called with mu held.
func (c *Cycle) startLoop(ctx context.Context) {
	stop := make(chan struct{})
	c.stop = stop
	t := c.newTicker(c.interval)

	c.loops.Add(1)
	go func() {
		defer c.loops.Done()
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-t.C():
				c.Tick(ctx)
			}
		}
	}()
}

// stopLoop must be called with mu held.
func (c *Cycle) stopLoop() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

// Tick starts one capture-detect pass and reports whether it did. It does nothing unless the cycle
// is running with no detection in flight.
func (c *Cycle) Tick(ctx context.Context) bool {
	c.mu.Lock()
	if !c.camera || !c.detecting {
		c.mu.Unlock()
		return false
	}
	gen := c.generation
	c.mu.Unlock()

	if !c.processing.CompareAndSwap(false, true) {
		return false
	}

	c.inflight.Add(1)
	c.emitState()
	go c.process(ctx, gen)
	return true
}

func (c *Cycle) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.camera && c.generation == gen
}

func (c *Cycle) process(ctx context.Context, gen uint64) {
	defer c.inflight.Done()
	defer func() {
		c.processing.Store(false)
		c.emitState()
	}()

	frameID := shared.GenerateID()
	c.logger.Debug("capturing frame", "frame", frameID)

	frame, err := c.source.Capture(ctx)
	if err == nil {
		var image string
		if image, err = EncodeFrame(frame); err == nil {
			var result *services.DetectionResult
			if result, err = c.detector.DetectAndRefresh(ctx, image); err == nil {
				if c.current(gen) {
					c.detected(result)
				}
				return
			}
		}
	}

	if !c.current(gen) {
		return
	}
	c.failed(err)
}

func (c *Cycle) detected(result *services.DetectionResult) {
	label := result.Emotion()
	var confidence float64
	if result.Data != nil {
		confidence = result.Data.Confidence
	}

	c.mu.Lock()
	c.emotion = label
	c.mu.Unlock()

	glyph := models.CurrentGlyph(label)
	c.send(Event{Kind: Detected, Emotion: label, Confidence: confidence, Glyph: glyph})
	c.send(Event{Kind: Celebrate, Glyph: glyph})
	c.notifier.Notify(session.Notification{
		Level:       session.LevelSuccess,
		Title:       "Emotion Detected",
		Description: fmt.Sprintf("You appear to be feeling %s (%d%% confidence)", label, int(math.Round(confidence*100))),
	})
}

func (c *Cycle) failed(err error) {
	c.logger.Error("Emotion detection failed", "error", err)

	desc := "Could not detect emotion"
	if err != nil && err.Error() != "" {
		desc = err.Error()
	}
	c.send(Event{Kind: DetectionFailed, Err: err})
	c.notifier.Notify(session.Notification{
		Level:       session.LevelError,
		Title:       "Detection Failed",
		Description: desc,
	})
}

// Wait blocks until the timer loop has exited and no detection is in flight.
func (c *Cycle) Wait() {
	c.loops.Wait()
	c.inflight.Wait()
}
