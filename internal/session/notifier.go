package session

import (
	"github.com/charmbracelet/log"
)

type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a short user-visible message, the terminal equivalent of a toast.
type Notification struct {
	Level       Level
	Title       string
	Description string
}

type Notifier interface {
	Notify(n Notification)
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(note Notification) {
	switch note.Level {
	case LevelError:
		n.logger.Error(note.Title, "detail", note.Description)
	default:
		n.logger.Info(note.Title, "detail", note.Description)
	}
}

// ChannelNotifier queues notifications for a UI loop. Sends never block; overflow is dropped.
type ChannelNotifier struct {
	ch chan Notification
}

func NewChannelNotifier(size int) *ChannelNotifier {
	return &ChannelNotifier{ch: make(chan Notification, size)}
}

func (n *ChannelNotifier) Notify(note Notification) {
	select {
	case n.ch <- note:
	default:
	}
}

func (n *ChannelNotifier) C() <-chan Notification {
	return n.ch
}

// Fanout delivers each notification to every notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(note Notification) {
	for _, n := range f {
		n.Notify(note)
	}
}
