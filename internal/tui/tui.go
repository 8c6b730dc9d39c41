package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/slok/inferctl/internal/app/session"
	"github.com/slok/inferctl/internal/log"
	"github.com/slok/inferctl/internal/model"
	"github.com/slok/inferctl/internal/tasks"
)

// ModelConfig is the configuration of the TUI model.
type ModelConfig struct {
	State *session.State
	// Context is used by every backend call, canceling it stops them.
	Context      context.Context
	PollInterval time.Duration
	// Clipboard writes text to the clipboard, the system clipboard when nil.
	Clipboard func(text string) error
	Logger    log.Logger
}

func (c *ModelConfig) defaults() error {
	if c.State == nil {
		return fmt.Errorf("state is required")
	}
	if c.Context == nil {
		c.Context = context.Background()
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 3 * time.Second
	}
	if c.Clipboard == nil {
		c.Clipboard = clipboard.WriteAll
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "tui.Model"})
	return nil
}

type formField struct {
	field tasks.Field
	input textinput.Model
}

// Model is the control panel bubbletea model. The launch lifecycle lives in
// the session launcher, the model only mirrors it.
type Model struct {
	state        *session.State
	ctx          context.Context
	pollInterval time.Duration
	clipboard    func(string) error
	logger       log.Logger

	form       []formField
	focus      int
	submitting bool
	spinner    spinner.Model
	notice     string
	err        error
	width      int
}

// Messages for async operations.
type refreshedMsg struct{ err error }
type pollMsg struct{}
type launchDoneMsg struct {
	handle *model.ServiceHandle
	err    error
}
type stopDoneMsg struct {
	name string
	err  error
}

// NewModel creates a new control panel model.
func NewModel(cfg ModelConfig) (Model, error) {
	if err := cfg.defaults(); err != nil {
		return Model{}, fmt.Errorf("invalid config: %w", err)
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		state:        cfg.State,
		ctx:          cfg.Context,
		pollInterval: cfg.PollInterval,
		clipboard:    cfg.Clipboard,
		logger:       cfg.Logger,
		spinner:      s,
	}, nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.pollCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.submitting && m.launcherPhase() != model.LaunchPhaseLaunching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pollMsg:
		return m, tea.Batch(m.refreshCmd(), m.pollCmd())

	case refreshedMsg:
		m.err = msg.err
		return m, nil

	case launchDoneMsg:
		return m.handleLaunchDone(msg)

	case stopDoneMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("Could not stop %s: %s", msg.name, msg.err)
			return m, nil
		}
		m.notice = fmt.Sprintf("Stopped %s", msg.name)
		return m, m.refreshCmd()
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.launcherPhase() {
	case model.LaunchPhaseIdle:
		return m.handleListKey(msg)
	case model.LaunchPhaseModalOpen:
		return m.handleFormKey(msg)
	case model.LaunchPhaseLaunching:
		if msg.String() == "esc" {
			m.closeLauncher()
			m.notice = "Launch canceled, the service may still start on the backend"
		}
		return m, nil
	case model.LaunchPhaseFailed:
		switch msg.String() {
		case "esc", "enter":
			m.state.Launcher().DismissError()
		}
		return m, nil
	case model.LaunchPhaseSuccess:
		return m.handleSuccessKey(msg)
	}

	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "up", "k":
		m.moveSelection(-1)

	case "down", "j":
		m.moveSelection(1)

	case "r":
		return m, m.refreshCmd()

	case "t":
		m.nextTask()
		return m, m.refreshCmd()

	case "x":
		svc, ok := m.state.Services().Selected()
		if !ok {
			return m, nil
		}
		m.notice = fmt.Sprintf("Stopping %s...", svc.Name)
		return m, m.stopCmd(*svc)

	case "n", "l":
		if !m.state.CanOpenLauncher() {
			m.notice = m.launchDisabledReason()
			return m, nil
		}
		if err := m.state.OpenLauncher(m.ctx); err != nil {
			m.notice = fmt.Sprintf("Could not open launcher: %s", err)
			return m, nil
		}
		m.notice = ""
		m.buildForm()
		return m, textinput.Blink
	}

	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeLauncher()
		return m, nil

	case "tab", "down":
		m.focusField(m.focus + 1)
		return m, nil

	case "shift+tab", "up":
		m.focusField(m.focus - 1)
		return m, nil

	case "enter":
		m.submitting = true
		return m, tea.Batch(m.spinner.Tick, m.submitCmd())
	}

	if len(m.form) == 0 {
		return m, nil
	}

	f := &m.form[m.focus]
	before := f.input.Value()
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	if v := f.input.Value(); v != before {
		if _, err := m.state.Launcher().SetOption(f.field.Name, v); err != nil {
			m.logger.Debugf("option not set: %s", err)
		}
	}

	return m, cmd
}

func (m Model) handleSuccessKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "c":
		h, ok := m.state.Launcher().Handle()
		if !ok {
			return m, nil
		}
		if err := m.clipboard(h.Endpoint); err != nil {
			m.logger.Warningf("could not copy endpoint: %s", err)
			m.notice = "Clipboard unavailable"
			return m, nil
		}
		m.notice = "Endpoint copied to clipboard"

	case "enter", "esc":
		m.state.Launcher().Acknowledge()
		m.form = nil
		return m, m.refreshCmd()
	}

	return m, nil
}

func (m Model) handleLaunchDone(msg launchDoneMsg) (tea.Model, tea.Cmd) {
	m.submitting = false
	switch {
	case msg.err == nil:
		m.notice = ""
		return m, m.refreshCmd()
	case errors.Is(msg.err, model.ErrStale), errors.Is(msg.err, model.ErrModalClosed):
		// The launcher was closed in the meantime.
		return m, nil
	case errors.Is(msg.err, model.ErrLaunchInProgress):
		m.notice = "A launch is already in progress"
		return m, nil
	}

	// Validation failures keep the modal open, the launcher has the field errors.
	if m.launcherPhase() == model.LaunchPhaseModalOpen {
		m.notice = "Fix the highlighted fields"
	}
	return m, nil
}

func (m *Model) closeLauncher() {
	m.state.Launcher().Close()
	m.form = nil
	m.focus = 0
}

// buildForm creates one input per task field seeded with the launcher options.
func (m *Model) buildForm() {
	def, ok := m.state.Launcher().Task()
	if !ok {
		return
	}
	opts := m.state.Launcher().Options()

	m.form = make([]formField, 0, len(def.Fields))
	for _, f := range def.Fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = f.Default
		ti.CharLimit = 128
		ti.Width = 40
		ti.SetValue(opts[f.Name])
		m.form = append(m.form, formField{field: f, input: ti})
	}
	m.focusField(0)
}

func (m *Model) focusField(i int) {
	if len(m.form) == 0 {
		return
	}
	i = (i + len(m.form)) % len(m.form)
	for j := range m.form {
		if j == i {
			m.form[j].input.Focus()
			continue
		}
		m.form[j].input.Blur()
	}
	m.focus = i
}

func (m *Model) moveSelection(delta int) {
	svcs := m.state.Services().Services()
	if len(svcs) == 0 {
		return
	}

	idx := 0
	if sel, ok := m.state.Services().Selected(); ok {
		for i, s := range svcs {
			if s.ID == sel.ID {
				idx = i
				break
			}
		}
	}

	idx += delta
	if idx < 0 || idx >= len(svcs) {
		return
	}
	if err := m.state.Services().Select(svcs[idx].ID); err != nil {
		m.logger.Debugf("could not select service: %s", err)
	}
}

func (m *Model) nextTask() {
	types := tasks.Types()
	current := m.state.Task()
	for i, t := range types {
		if t == current {
			next := types[(i+1)%len(types)]
			if err := m.state.SetTask(next); err != nil {
				m.notice = err.Error()
			}
			return
		}
	}
}

func (m Model) launchDisabledReason() string {
	if _, ok := m.state.Profile(); !ok {
		return "Select a profile first (inferctl profiles use <name>)"
	}
	return fmt.Sprintf("No models available for %s", m.state.Task())
}

func (m Model) launcherPhase() model.LaunchPhase {
	return m.state.Launcher().Phase()
}

func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{err: m.state.Refresh(m.ctx)}
	}
}

func (m Model) pollCmd() tea.Cmd {
	return tea.Tick(m.pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m Model) submitCmd() tea.Cmd {
	return func() tea.Msg {
		h, err := m.state.Launcher().Submit(m.ctx)
		return launchDoneMsg{handle: h, err: err}
	}
}

func (m Model) stopCmd(svc model.Service) tea.Cmd {
	return func() tea.Msg {
		p, ok := m.state.Profile()
		if !ok {
			return stopDoneMsg{name: svc.Name, err: fmt.Errorf("no profile selected")}
		}
		return stopDoneMsg{name: svc.Name, err: m.state.Services().Stop(m.ctx, *p, svc.ID)}
	}
}

// Run runs the control panel until the user quits or the context ends.
func Run(ctx context.Context, cfg ModelConfig) error {
	cfg.Context = ctx
	m, err := NewModel(cfg)
	if err != nil {
		return err
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui failed: %w", err)
	}
	return nil
}
