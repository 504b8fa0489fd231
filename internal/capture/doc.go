// Package capture runs the timed capture-detect cycle.
//
// A [Cycle] owns a [FrameSource] while the camera is enabled. With detection running, every tick
// grabs a frame, encodes it as a base64 PNG and submits it for detection; a successful detection
// refreshes the session. At most one detection is in flight: ticks that arrive while one is
// pending are dropped, never queued, and nothing is retried until the next tick.
//
// The cycle reports what happens through [Event] values on a buffered channel and through the
// session notifier. Event sends never block the cycle.
package capture
