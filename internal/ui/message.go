package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/emosense/internal/capture"
	"github.com/desertthunder/emosense/internal/models"
	"github.com/desertthunder/emosense/internal/session"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCycleEvent MsgKind = iota
	MsgNotification
	MsgToastExpired
	MsgLocationChanged
	MsgProfileChanged
	MsgDataLoaded
	MsgConfettiFrame
	MsgToggleFailed
)

// cycleEventMsg is the constructor for [MsgCycleEvent]
func cycleEventMsg(e capture.Event) Msg {
	return Msg{kind: MsgCycleEvent, data: e}
}

// notificationMsg is the constructor for [MsgNotification]
func notificationMsg(n session.Notification) Msg {
	return Msg{kind: MsgNotification, data: n}
}

// toastExpiredMsg is the constructor for [MsgToastExpired]
func toastExpiredMsg(id int) Msg {
	return Msg{kind: MsgToastExpired, data: id}
}

// locationChangedMsg is the constructor for [MsgLocationChanged]
func locationChangedMsg(path string) Msg {
	return Msg{kind: MsgLocationChanged, data: path}
}

// profileChangedMsg is the constructor for [MsgProfileChanged]. A nil profile means the session was
// cleared elsewhere.
func profileChangedMsg(p *models.Profile) Msg {
	return Msg{kind: MsgProfileChanged, data: p}
}

type loaded struct {
	user    *models.Profile
	history []models.EmotionRecord
	users   []models.Profile
	err     error
}

// dataLoadedMsg is the constructor for [MsgDataLoaded]
func dataLoadedMsg(l loaded) Msg {
	return Msg{kind: MsgDataLoaded, data: l}
}

// confettiFrameMsg is the constructor for [MsgConfettiFrame]
func confettiFrameMsg(burst int) Msg {
	return Msg{kind: MsgConfettiFrame, data: burst}
}

// toggleFailedMsg is the constructor for [MsgToggleFailed]
func toggleFailedMsg(err error) Msg {
	return Msg{kind: MsgToggleFailed, data: err}
}
