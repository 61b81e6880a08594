// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-synodic/internal/config"
	"github.com/litescript/ls-synodic/internal/ephem"
	"github.com/litescript/ls-synodic/internal/report"
	"github.com/litescript/ls-synodic/internal/state"
	"github.com/litescript/ls-synodic/internal/trail"
	"github.com/litescript/ls-synodic/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewDashboard ViewMode = iota
	ViewTrail
	ViewDial
	ViewEvents
	viewCount
)

var viewNames = [viewCount]string{"Dashboard", "Trail", "Dial", "Events"}

// playbackInterval is how often a playing session advances one step.
const playbackInterval = 250 * time.Millisecond

// Msg types for Bubble Tea
type (
	// TickMsg drives playback.
	TickMsg time.Time

	// ViewComputedMsg carries a finished trail computation.
	ViewComputedMsg struct {
		Body     ephem.Body
		Instant  time.Time
		View     *trail.View
		Export   *report.ViewExport
		Duration time.Duration
		Err      error
	}
)

// filterPreset is a named event-kind selection.
type filterPreset struct {
	name  string
	kinds trail.KindSet
}

var filterPresets = []filterPreset{
	{name: "all"},
	{name: "aspects", kinds: trail.KindSet{
		trail.EventConjunction: true,
		trail.EventOpposition:  true,
		trail.EventSquare:      true,
	}},
	{name: "stations", kinds: trail.KindSet{
		trail.EventStationRetro:  true,
		trail.EventStationDirect: true,
	}},
	{name: "elongations", kinds: trail.KindSet{trail.EventMaxElongation: true}},
}

// computeKey identifies one computation request.
type computeKey struct {
	body    ephem.Body
	instant time.Time
}

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	state  *state.Manager
	engine *trail.Engine
	cfg    config.Config
	now    func() time.Time

	// UI state
	viewMode  ViewMode
	width     int
	height    int
	ready     bool
	statusMsg string
	filter    int // index into filterPresets

	// In-flight and last failed computation
	computing bool
	failed    *computeKey

	snapshot state.Snapshot
	export   *report.ViewExport // export of snapshot.View

	// Sub-models
	dashboard DashboardModel
	trailView TrailModel
	dial      DialModel
	events    EventsModel
}

// New creates a new root UI model.
func New(stateMgr *state.Manager, engine *trail.Engine, cfg config.Config) Model {
	return Model{
		state:     stateMgr,
		engine:    engine,
		cfg:       cfg,
		now:       time.Now,
		viewMode:  ViewDashboard,
		snapshot:  stateMgr.Snapshot(),
		dashboard: NewDashboardModel(),
		trailView: NewTrailModel(),
		dial:      NewDialModel(),
		events:    NewEventsModel(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	s := m.state.Snapshot()
	return tea.Batch(
		tickCmd(),
		computeCmd(m.engine, m.cfg.Request(s.Body, s.Instant)),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
			break
		}
		cmds = append(cmds, m.updateActiveView(msg))

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// Header 3 lines, footer 2
		contentHeight := msg.Height - 6
		m.dashboard = m.dashboard.SetSize(msg.Width, contentHeight)
		m.trailView = m.trailView.SetSize(msg.Width, contentHeight)
		m.dial = m.dial.SetSize(msg.Width, contentHeight)
		m.events = m.events.SetSize(msg.Width, contentHeight)

	case TickMsg:
		cmds = append(cmds, tickCmd())
		if m.state.Playing() && !m.computing {
			m.state.Advance(1)
			cmds = append(cmds, m.requestView())
		}

	case ViewComputedMsg:
		m.computing = false
		m.state.Update(msg.Body, msg.Instant, msg.View, msg.Duration, msg.Err)
		if msg.Err != nil {
			m.failed = &computeKey{body: msg.Body, instant: msg.Instant}
		} else {
			m.failed = nil
			m.export = msg.Export
		}
		cmds = append(cmds, m.requestView())
	}

	return m, tea.Batch(cmds...)
}

// handleKey processes global keys. It reports false for keys the active
// view should see.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit, true

	case "tab":
		m.viewMode = (m.viewMode + 1) % viewCount
	case "1", "2", "3", "4":
		m.viewMode = ViewMode(msg.String()[0] - '1')

	case "n":
		return m.selectBody(1), true
	case "N":
		return m.selectBody(-1), true
	case "up", "k":
		if m.viewMode != ViewDashboard {
			return nil, false
		}
		return m.selectBody(-1), true
	case "down", "j":
		if m.viewMode != ViewDashboard {
			return nil, false
		}
		return m.selectBody(1), true

	case "right", "l":
		m.state.Advance(1)
		return m.requestView(), true
	case "left", "h":
		m.state.Advance(-1)
		return m.requestView(), true
	case "t":
		m.state.SetInstant(m.now())
		return m.requestView(), true

	case "+", "=":
		m.statusMsg = "step " + formatStep(m.state.Faster())
	case "-", "_":
		m.statusMsg = "step " + formatStep(m.state.Slower())
	case " ":
		m.statusMsg = "paused"
		if m.state.TogglePlay() {
			m.statusMsg = "playing"
		}

	case "f":
		m.filter = (m.filter + 1) % len(filterPresets)
		m.statusMsg = "events: " + filterPresets[m.filter].name

	default:
		return nil, false
	}
	m.syncSnapshot()
	return nil, true
}

// selectBody moves the selection by delta through the body list, wrapping.
func (m *Model) selectBody(delta int) tea.Cmd {
	cur := bodyIndex(m.state.Body())
	n := len(ephem.Bodies)
	next := ((cur+delta)%n + n) % n
	m.state.SetBody(ephem.Bodies[next].Body)
	return m.requestView()
}

// requestView starts a computation for the current selection unless the
// stored view already matches, one is in flight, or the same request just
// failed.
func (m *Model) requestView() tea.Cmd {
	m.syncSnapshot()
	if !m.snapshot.Stale() || m.computing {
		return nil
	}
	key := computeKey{body: m.snapshot.Body, instant: m.snapshot.Instant}
	if m.failed != nil && m.failed.body == key.body && m.failed.instant.Equal(key.instant) {
		return nil
	}
	m.computing = true
	return computeCmd(m.engine, m.cfg.Request(key.body, key.instant))
}

// syncSnapshot refreshes the snapshot and pushes it to every sub-model.
func (m *Model) syncSnapshot() {
	m.snapshot = m.state.Snapshot()
	kinds := filterPresets[m.filter].kinds
	m.dashboard = m.dashboard.UpdateData(m.snapshot, m.export)
	m.trailView = m.trailView.UpdateData(m.snapshot)
	m.dial = m.dial.UpdateData(m.snapshot, m.export)
	m.events = m.events.UpdateData(m.snapshot, kinds)
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewTrail:
		m.trailView, cmd = m.trailView.Update(msg)
	case ViewDial:
		m.dial, cmd = m.dial.Update(msg)
	case ViewEvents:
		m.events, cmd = m.events.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewDashboard:
		content = m.dashboard.View()
	case ViewTrail:
		content = m.trailView.View()
	case ViewDial:
		content = m.dial.View()
	case ViewEvents:
		content = m.events.View()
	}

	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

var (
	brandStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
)

func (m Model) renderHeader() string {
	s := m.snapshot
	info := s.Body.Info()

	play := "❚❚"
	if s.Playing {
		play = "▶"
	}
	line := fmt.Sprintf("  %s  %s %s  %s  %s step %s  events: %s",
		brandStyle.Render("ls-synodic v"+version.Version),
		info.Glyph, info.Label,
		s.Instant.UTC().Format("2006-01-02 15:04 UTC"),
		play, formatStep(s.Step),
		filterPresets[m.filter].name)

	return "\n" + line + "\n" + m.renderTabs()
}

func (m Model) renderTabs() string {
	parts := make([]string, 0, len(viewNames))
	for i, name := range viewNames {
		tab := fmt.Sprintf("%d %s", i+1, name)
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, mutedStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	s := m.snapshot

	var status string
	switch {
	case m.computing:
		status = accentStyle.Render("●") + mutedStyle.Render(" computing...")
	case s.LastError != nil:
		status = alertStyle.Render("ERROR: " + s.LastError.Error())
	case s.View != nil:
		status = accentStyle.Render("●") + mutedStyle.Render(" computed in "+s.Duration.Round(time.Millisecond).String())
	default:
		status = mutedStyle.Render("waiting for data...")
	}

	var help string
	switch m.viewMode {
	case ViewDashboard:
		help = "↑↓/n/N: body | ←→: step | space: play | +/-: speed | t: now | f: filter"
	case ViewTrail:
		help = "n/N: body | ←→: step | v: velocity/longitude | space: play"
	case ViewDial:
		help = "n/N: body | ←→: step | r: distance radius | space: play"
	case ViewEvents:
		help = "↑↓: scroll | f: filter | c: crossings | n/N: body"
	}

	footer := "  " + status + "  " + mutedStyle.Render("|") + "  " + mutedStyle.Render(help)
	if m.statusMsg != "" {
		footer += "\n  " + mutedStyle.Render(m.statusMsg)
	}
	return footer
}

func tickCmd() tea.Cmd {
	return tea.Tick(playbackInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// computeCmd runs one trail computation off the UI loop.
func computeCmd(engine *trail.Engine, req trail.Request) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		view, exp, err := report.BuildView(engine, req)
		return ViewComputedMsg{
			Body:     req.Body,
			Instant:  req.Ref,
			View:     view,
			Export:   exp,
			Duration: time.Since(start),
			Err:      err,
		}
	}
}

func bodyIndex(b ephem.Body) int {
	for i, info := range ephem.Bodies {
		if info.Body == b {
			return i
		}
	}
	return 0
}

// formatStep renders a playback step compactly, e.g. "6h" or "2d".
func formatStep(d time.Duration) string {
	day := 24 * time.Hour
	if d >= day && d%day == 0 {
		return fmt.Sprintf("%dd", d/day)
	}
	if d >= time.Hour && d%time.Hour == 0 {
		return fmt.Sprintf("%dh", d/time.Hour)
	}
	return d.String()
}
