package ui

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/emosense/internal/capture"
	"github.com/desertthunder/emosense/internal/models"
	"github.com/desertthunder/emosense/internal/session"
	"github.com/desertthunder/emosense/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	DashboardView ViewState = iota
	ExpiredView
)

const (
	toastTTL  = 4 * time.Second
	maxToasts = 3
)

// Loader fetches the data shown in the dashboard table.
type Loader interface {
	Refresh(ctx context.Context) *models.Profile
	ListUsers(ctx context.Context) ([]models.Profile, error)
}

// Sources are the channels the dashboard listens on. Nil channels are ignored.
type Sources struct {
	Notifications <-chan session.Notification
	Locations     <-chan string
	Profiles      <-chan *models.Profile
}

type toast struct {
	id   int
	note session.Notification
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	session   *session.Session
	errors    *session.ErrorHandler
	loader    Loader
	cycle     *capture.Cycle
	sources   Sources
	user      *models.Profile
	history   []models.EmotionRecord
	users     []models.Profile
	state     capture.State
	table     table.Model
	spinner   spinner.Model
	confetti  confetti
	toasts    []toast
	nextToast int
	width     int
	height    int
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, sess *session.Session, loader Loader, cycle *capture.Cycle, sources Sources) *Model {
	return &Model{
		ctx:     ctx,
		view:    DashboardView,
		session: sess,
		errors:  session.NewErrorHandler(sess, session.LoginPath),
		loader:  loader,
		cycle:   cycle,
		sources: sources,
		user:    sess.User(ctx),
		state:   cycle.State(),
		table:   newTable(10),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init loads the table data and starts listening on every source.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.load(),
		m.waitForEvent(),
		m.waitForNotification(),
		m.waitForLocation(),
		m.waitForProfile(),
		m.spinner.Tick,
	)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(msg.Height-16, 5))
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.view == ExpiredView {
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}
		return m.handleDashboardKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCycleEvent:
		e := msg.data.(capture.Event)
		m.state = m.cycle.State()
		cmds := []tea.Cmd{m.waitForEvent()}
		switch e.Kind {
		case capture.Detected:
			m.reloadLocal()
		case capture.Celebrate:
			cmds = append(cmds, m.confetti.start())
		case capture.CameraFailed, capture.DetectionFailed:
			m.err = e.Err
		}
		return m, tea.Batch(cmds...)

	case MsgNotification:
		note := msg.data.(session.Notification)
		m.nextToast++
		m.toasts = append(m.toasts, toast{id: m.nextToast, note: note})
		if len(m.toasts) > maxToasts {
			m.toasts = m.toasts[len(m.toasts)-maxToasts:]
		}
		id := m.nextToast
		expire := tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg(id) })
		return m, tea.Batch(expire, m.waitForNotification())

	case MsgToastExpired:
		id := msg.data.(int)
		m.toasts = slices.DeleteFunc(m.toasts, func(t toast) bool { return t.id == id })
		return m, nil

	case MsgLocationChanged:
		if strings.HasPrefix(msg.data.(string), session.LoginPath) {
			m.expire()
		}
		return m, m.waitForLocation()

	case MsgProfileChanged:
		p := msg.data.(*models.Profile)
		if p == nil {
			m.expire()
		} else {
			m.user = p
			m.history = m.session.Store.GetEmotionHistory(m.ctx)
			m.rebuildTable()
		}
		return m, m.waitForProfile()

	case MsgDataLoaded:
		l := msg.data.(loaded)
		if l.user != nil {
			m.user = l.user
		}
		m.history = l.history
		if l.err != nil {
			m.errors.Handle(m.ctx, l.err)
		} else {
			m.users = l.users
		}
		m.rebuildTable()
		return m, nil

	case MsgConfettiFrame:
		return m, m.confetti.advance(msg.data.(int))

	case MsgToggleFailed:
		m.err = msg.data.(error)
		m.state = m.cycle.State()
		return m, nil
	}
	return m, nil
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.cycle.DisableCamera()
		return m, tea.Quit

	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.camera):
		m.err = nil
		if m.cycle.State() != capture.Idle {
			m.cycle.DisableCamera()
			m.state = m.cycle.State()
			return m, nil
		}
		return m, m.enableCamera()

	case key.Matches(msg, m.keys.detect):
		m.err = nil
		switch m.cycle.State() {
		case capture.Running, capture.Capturing:
			m.cycle.StopDetection()
		default:
			if err := m.cycle.StartDetection(m.ctx); err != nil {
				m.err = err
			}
		}
		m.state = m.cycle.State()
		return m, nil

	case key.Matches(msg, m.keys.interval):
		m.cycle.SetInterval(m.ctx, strconv.Itoa(nextInterval(m.cycle.Interval())))
		return m, nil

	case key.Matches(msg, m.keys.refresh):
		return m, m.load()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// nextInterval returns the choice after current, wrapping to the first.
func nextInterval(current time.Duration) int {
	secs := int(current / time.Second)
	i := slices.Index(shared.CaptureIntervals, secs)
	return shared.CaptureIntervals[(i+1)%len(shared.CaptureIntervals)]
}

func (m *Model) expire() {
	m.cycle.DisableCamera()
	m.state = m.cycle.State()
	m.view = ExpiredView
}

// reloadLocal rereads the cached profile and history after the store changed.
func (m *Model) reloadLocal() {
	if u := m.session.User(m.ctx); u != nil {
		m.user = u
	}
	m.history = m.session.Store.GetEmotionHistory(m.ctx)
	m.rebuildTable()
}

func (m *Model) rebuildTable() {
	if m.user.IsAdmin() {
		usersTable(&m.table, m.users)
	} else {
		historyTable(&m.table, m.history)
	}
}

func (m *Model) enableCamera() tea.Cmd {
	return func() tea.Msg {
		if err := m.cycle.EnableCamera(m.ctx); err != nil {
			return toggleFailedMsg(err)
		}
		return nil
	}
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		l := loaded{user: m.loader.Refresh(m.ctx)}
		if l.user == nil {
			l.user = m.session.User(m.ctx)
		}
		l.history = m.session.Store.GetEmotionHistory(m.ctx)
		if l.user.IsAdmin() {
			l.users, l.err = m.loader.ListUsers(m.ctx)
		}
		return dataLoadedMsg(l)
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.cycle.Events()
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return cycleEventMsg(e)
	}
}

func (m *Model) waitForNotification() tea.Cmd {
	ch := m.sources.Notifications
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationMsg(n)
	}
}

func (m *Model) waitForLocation() tea.Cmd {
	ch := m.sources.Locations
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		path, ok := <-ch
		if !ok {
			return nil
		}
		return locationChangedMsg(path)
	}
}

func (m *Model) waitForProfile() tea.Cmd {
	ch := m.sources.Profiles
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return profileChangedMsg(p)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ExpiredView:
		return m.renderExpired()
	default:
		return m.renderDashboard()
	}
}

func (m *Model) renderDashboard() string {
	var b strings.Builder

	title := "EmotionSense"
	if m.user != nil {
		title = fmt.Sprintf("EmotionSense • %s (%s)", m.user.Name, m.user.Role)
	}
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	emotion := m.cycle.Emotion()
	if emotion == "" {
		emotion = "-"
	}
	state := m.state.String()
	if m.state == capture.Capturing {
		state = m.spinner.View() + " " + state
	}
	status := lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("Emotion:   %s", emotion),
		fmt.Sprintf("Camera:    %s", styles.OnOff(m.state != capture.Idle)),
		fmt.Sprintf("Detection: %s", styles.OnOff(m.state == capture.Running || m.state == capture.Capturing)),
		fmt.Sprintf("Interval:  %ds", int(m.cycle.Interval()/time.Second)),
		fmt.Sprintf("State:     %s", state),
	)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, styles.glyph.Render(m.cycle.Glyph()), "  ", status))
	b.WriteString("\n")

	if m.confetti.active() {
		b.WriteString(m.confetti.View(m.width))
		b.WriteString("\n")
	}

	heading := "Your Emotion History"
	if m.user.IsAdmin() {
		heading = "Employees"
	}
	b.WriteString("\n" + styles.ok.Render(heading) + "\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")

	for _, t := range m.toasts {
		line := t.note.Title
		if t.note.Description != "" {
			line += ": " + t.note.Description
		}
		b.WriteString(styles.Toast(t.note.Level).Render(line))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderExpired() string {
	title := styles.err.Render("Session expired")
	info := styles.help.Render("Log in again with: emosense auth login")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, info, helpView)
}
