package ui

import (
	"math/rand/v2"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	confettiFrames = 12
	confettiStep   = 80 * time.Millisecond
)

var confettiParticles = []string{"*", "+", "•", "✦", "✧", "°"}

// confetti is a short burst of particles played after a successful detection. A new burst replaces
// the running one; frames from an old burst are ignored.
type confetti struct {
	burst int
	frame int
}

func (c *confetti) start() tea.Cmd {
	c.burst++
	c.frame = confettiFrames
	return c.tick()
}

func (c *confetti) tick() tea.Cmd {
	burst := c.burst
	return tea.Tick(confettiStep, func(time.Time) tea.Msg { return confettiFrameMsg(burst) })
}

// advance steps the burst and schedules the next frame while any remain.
func (c *confetti) advance(burst int) tea.Cmd {
	if burst != c.burst || c.frame == 0 {
		return nil
	}
	c.frame--
	if c.frame == 0 {
		return nil
	}
	return c.tick()
}

func (c *confetti) active() bool {
	return c.frame > 0
}

// View draws one line of particles whose density fades with the remaining frames.
func (c *confetti) View(width int) string {
	if !c.active() {
		return ""
	}
	if width <= 0 {
		width = 40
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		if rand.IntN(confettiFrames) >= c.frame {
			b.WriteByte(' ')
			continue
		}
		p := confettiParticles[rand.IntN(len(confettiParticles))]
		color := confettiColors[rand.IntN(len(confettiColors))]
		b.WriteString(lipgloss.NewStyle().Foreground(color).Render(p))
	}
	return b.String()
}
