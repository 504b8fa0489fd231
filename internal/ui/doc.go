// Package ui implements the interactive dashboard using bubbletea's Elm architecture.
//
// The dashboard has two views:
//  1. [DashboardView] : camera and detection toggles, interval selection, the current emotion glyph and a table.
//     Admins see every employee with their last emotion; employees see their own detection history.
//  2. [ExpiredView] : shown once the session ends (401, logout in another process, or a cleared token).
//
// The [Model] implements Init/Update/View and receives everything through the Msg union type.
// Capture events, notifications, navigations and storage changes arrive on channels; each is drained
// by a command that re-arms itself after every message.
//
// Key bindings are listed by the bubbles/help component (press ? for the full list).
package ui
