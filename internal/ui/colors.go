package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/emosense/internal/session"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF4672", "#FFA500", "#626262")

// confettiColors are cycled through by the celebration burst.
var confettiColors = []lipgloss.Color{"#F25D94", "#FFD166", "#06D6A0", "#118AB2", "#7D56F4", "#FF9F1C"}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	glyph  lipgloss.Style
	status lipgloss.Style
	toast  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(h),
		glyph:  lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(t)),
		status: NewStyle(h),
		toast:  lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder(), false, false, false, true),
	}
}

// Toast styles a notification by level.
func (p *Palette) Toast(level session.Level) lipgloss.Style {
	switch level {
	case session.LevelError:
		return p.toast.BorderForeground(p.err.GetForeground()).Foreground(p.err.GetForeground())
	case session.LevelSuccess:
		return p.toast.BorderForeground(p.ok.GetForeground()).Foreground(p.ok.GetForeground())
	default:
		return p.toast.BorderForeground(p.warn.GetForeground())
	}
}

// OnOff renders a toggle.
func (p *Palette) OnOff(on bool) string {
	if on {
		return p.ok.Render("on")
	}
	return p.status.Render("off")
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
