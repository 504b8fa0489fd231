package capture

// State of the capture cycle.
type State int

const (
	Idle      State = iota // camera off
	Armed                  // camera on, detection off
	Running                // camera and detection on
	Capturing              // one detection in flight
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Running:
		return "running"
	case Capturing:
		return "capturing"
	default:
		return ""
	}
}

// EventKind enumerates what an [Event] reports.
type EventKind int

const (
	StateChanged EventKind = iota
	Detected
	Celebrate
	DetectionFailed
	CameraFailed
)

func (k EventKind) String() string {
	switch k {
	case StateChanged:
		return "state_changed"
	case Detected:
		return "detected"
	case Celebrate:
		return "celebrate"
	case DetectionFailed:
		return "detection_failed"
	case CameraFailed:
		return "camera_failed"
	default:
		return ""
	}
}

// Event is emitted by the cycle for UI layers.
type Event struct {
	Kind       EventKind
	State      State
	Emotion    string  // detected label, Detected only
	Confidence float64 // Detected only
	Glyph      string  // glyph to display; set on Detected and Celebrate
	Err        error   // failures only
}
