package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/chase/internal/chase"
	"github.com/vovakirdan/chase/internal/core"
)

// Viewer layout constants
const (
	hudHeight   = 6 // status report (4 lines) + state line + help
	minFieldW   = 10
	minFieldH   = 5
	defaultFPS  = 4
	maxFPS      = 60
	defaultSize = 80
)

var (
	hudStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	stateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Options configures the viewer.
type Options struct {
	Width, Height int
	FPS           int  // rounds per second while running
	Paused        bool // start paused, advancing only on the step key
}

// Model is the Bubble Tea model that plays a simulation round by round.
type Model struct {
	sim      *chase.Simulation
	rec      chase.Recorder
	screen   *core.Screen
	keys     KeyMap
	help     help.Model
	fps      int
	paused   bool
	width    int
	height   int
	last     chase.RoundResult
	stepped  bool // Whether at least one round has been shown
	finished bool // Whether the recorder has been given the summaries
	err      error
	quitting bool
}

// NewModel creates a viewer for sim. rec may be nil.
func NewModel(sim *chase.Simulation, rec chase.Recorder, opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = defaultFPS
	}
	if opts.Width <= 0 {
		opts.Width = defaultSize
	}
	if opts.Height <= 0 {
		opts.Height = defaultSize / 3
	}

	m := Model{
		sim:    sim,
		rec:    rec,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		fps:    min(opts.FPS, maxFPS),
		paused: opts.Paused,
		width:  opts.Width,
		height: opts.Height,
	}
	m.screen = core.NewScreen(m.fieldSize())
	return m
}

func (m Model) fieldSize() (int, int) {
	return max(m.width, minFieldW), max(m.height-hudHeight, minFieldH)
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.fps)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.screen.Resize(m.fieldSize())
		return m, nil

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
	case key.Matches(msg, m.keys.Step):
		if m.paused {
			m = m.advance()
		}
	case key.Matches(msg, m.keys.Faster):
		m.fps = min(m.fps*2, maxFPS)
	case key.Matches(msg, m.keys.Slower):
		m.fps = max(m.fps/2, 1)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if m.finished {
		// Run is over; stop ticking and leave the last frame up.
		return m, nil
	}
	if !m.paused {
		m = m.advance()
	}
	return m, tickCmd(m.fps)
}

// advance plays one round and hands it to the recorder. Once the
// simulation is done, the recorder receives every summary exactly once.
func (m Model) advance() Model {
	if m.finished {
		return m
	}
	res, ok := m.sim.Step()
	if ok {
		m.last = res
		m.stepped = true
		if m.rec != nil {
			if err := m.rec.RecordRound(res); err != nil {
				m.err = fmt.Errorf("record round %d: %w", res.Round(), err)
				m.finished = true
				return m
			}
		}
	}
	if m.sim.Done() {
		m.finished = true
		if m.rec != nil {
			if err := m.rec.Finish(m.sim.Summaries()); err != nil {
				m.err = fmt.Errorf("finish: %w", err)
			}
		}
	}
	return m
}

// View renders the field, the status of the last round and the help bar.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	DrawField(m.screen, m.sim, m.last.Outcome)

	var sb strings.Builder
	sb.WriteString(RenderScreen(m.screen))
	sb.WriteRune('\n')

	if m.stepped {
		sb.WriteString(hudStyle.Render(strings.TrimRight(chase.StatusReport(m.last), "\n")))
	} else {
		sb.WriteString(hudStyle.Render(fmt.Sprintf("Round 0\nWolf position: %s\nNumber of alive sheep: %d",
			m.sim.Wolf().Pos, m.sim.Alive())))
	}
	sb.WriteRune('\n')
	sb.WriteString(m.stateLine())
	sb.WriteRune('\n')
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) stateLine() string {
	switch {
	case m.err != nil:
		return errStyle.Render("error: " + m.err.Error())
	case m.finished:
		return stateStyle.Render(fmt.Sprintf("finished after %d rounds, %d sheep left", m.sim.Round(), m.sim.Alive()))
	case m.paused:
		return stateStyle.Render("paused")
	}
	return stateStyle.Render(fmt.Sprintf("running at %d rounds/s", m.fps))
}

// Finished reports whether the simulation has ended and been recorded.
func (m Model) Finished() bool {
	return m.finished
}

// Err returns the recording error that stopped the viewer, if any.
func (m Model) Err() error {
	return m.err
}

// Run starts the Bubble Tea program for sim and blocks until the user quits.
func Run(sim *chase.Simulation, rec chase.Recorder, opts Options) error {
	p := tea.NewProgram(
		NewModel(sim, rec, opts),
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok {
		return m.Err()
	}
	return nil
}
