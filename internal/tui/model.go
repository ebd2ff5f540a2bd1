// Package tui is the terminal wizard for the monthly check-in. It follows
// the Elm architecture: every workflow call runs as a tea.Cmd and comes
// back to Update as a message.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joescharf/checkin/internal/workflow"
)

// Flow is the part of the workflow the wizard drives.
type Flow interface {
	Start(ctx context.Context, identity string) (*workflow.Session, error)
	Submit(ctx context.Context, s *workflow.Session) (*workflow.Session, error)
	Login(ctx context.Context, input string) (string, error)
	Logout(ctx context.Context) error
}

type screen int

const (
	screenLoading screen = iota
	screenLogin
	screenBlocked
	screenCapture
	screenSubmitting
	screenDone
)

const completionKeyStep = 5

type sessionMsg struct {
	session *workflow.Session
	err     error
}

type submittedMsg struct {
	session *workflow.Session
	err     error
}

type loggedOutMsg struct {
	err error
}

// Model is the wizard state.
type Model struct {
	ctx  context.Context
	flow Flow
	org  string

	identity string
	screen   screen
	session  *workflow.Session

	login    textinput.Model
	comments textarea.Model
	spinner  spinner.Model

	notice string
	err    error
	width  int
}

// New creates the wizard. With an empty identity it opens on the login screen.
func New(ctx context.Context, flow Flow, identity, org string) Model {
	ti := textinput.New()
	ti.Placeholder = "tu@empresa.com"
	ti.Prompt = "│ "
	ti.CharLimit = 254
	ti.Width = 40

	ta := textarea.New()
	ta.Placeholder = "Cuéntanos más sobre cómo fue tu mes (opcional)..."
	ta.ShowLineNumbers = false
	ta.SetWidth(60)
	ta.SetHeight(5)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	m := Model{
		ctx:      ctx,
		flow:     flow,
		org:      org,
		identity: strings.TrimSpace(identity),
		login:    ti,
		comments: ta,
		spinner:  sp,
	}
	if m.identity == "" {
		m.screen = screenLogin
		m.login.Focus()
	} else {
		m.screen = screenLoading
	}
	return m
}

// Session returns the current workflow session, if one has been started.
func (m Model) Session() *workflow.Session {
	return m.session
}

// Err returns the error that stopped the wizard, if any.
func (m Model) Err() error {
	return m.err
}

func (m Model) Init() tea.Cmd {
	if m.screen == screenLogin {
		return textinput.Blink
	}
	return m.startCmd(m.identity)
}

func (m Model) startCmd(identity string) tea.Cmd {
	ctx, flow := m.ctx, m.flow
	return func() tea.Msg {
		s, err := flow.Start(ctx, identity)
		return sessionMsg{session: s, err: err}
	}
}

func (m Model) loginCmd(input string) tea.Cmd {
	ctx, flow := m.ctx, m.flow
	return func() tea.Msg {
		identity, err := flow.Login(ctx, input)
		if err != nil {
			return sessionMsg{err: err}
		}
		s, err := flow.Start(ctx, identity)
		return sessionMsg{session: s, err: err}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	ctx, flow := m.ctx, m.flow
	return func() tea.Msg {
		return loggedOutMsg{err: flow.Logout(ctx)}
	}
}

func (m Model) submitCmd(s *workflow.Session) tea.Cmd {
	ctx, flow := m.ctx, m.flow
	return func() tea.Msg {
		done, err := flow.Submit(ctx, s)
		return submittedMsg{session: done, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 6; w > 20 && w < 80 {
			m.comments.SetWidth(w)
		}
		return m, nil

	case sessionMsg:
		return m.handleSession(msg)

	case submittedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.screen = screenCapture
			return m, nil
		}
		m.session = msg.session
		m.screen = screenDone
		return m, nil

	case loggedOutMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.identity = ""
		m.session = nil
		m.login.Reset()
		m.screen = screenLogin
		return m, m.login.Focus()

	case spinner.TickMsg:
		if m.screen != screenSubmitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen {
		case screenLogin:
			return m.updateLogin(msg)
		case screenBlocked:
			return m.updateBlocked(msg)
		case screenCapture:
			return m.updateCapture(msg)
		case screenDone:
			switch msg.String() {
			case "enter", "q", "esc":
				return m, tea.Quit
			}
		}
		return m, nil
	}

	// Cursor blinks and other component messages.
	var cmd tea.Cmd
	switch {
	case m.screen == screenLogin:
		m.login, cmd = m.login.Update(msg)
	case m.onStep(workflow.StepComments):
		m.comments, cmd = m.comments.Update(msg)
	}
	return m, cmd
}

func (m Model) handleSession(msg sessionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, workflow.ErrInvalidIdentity) || errors.Is(msg.err, workflow.ErrNotLoggedIn) {
			m.screen = screenLogin
			m.notice = "Ingresa un email válido"
			return m, m.login.Focus()
		}
		m.err = msg.err
		return m, tea.Quit
	}

	m.session = msg.session
	m.identity = msg.session.Identity
	m.notice = ""
	if msg.session.AlreadyCompleted {
		m.screen = screenBlocked
	} else {
		m.screen = screenCapture
	}
	return m, nil
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() != "enter" {
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		return m, cmd
	}

	input := strings.TrimSpace(m.login.Value())
	if !workflow.ValidIdentity(input) {
		m.notice = "Ingresa un email válido"
		return m, nil
	}
	m.notice = ""
	m.login.Blur()
	m.screen = screenLoading
	return m, m.loginCmd(input)
}

func (m Model) updateBlocked(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "l":
		return m, m.logoutCmd()
	case "q", "esc", "enter":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateCapture(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.session
	key := msg.String()
	m.notice = ""
	m.err = nil

	switch s.Step {
	case workflow.StepCompletion:
		switch key {
		case "left", "h":
			m.edit(func(f *workflow.Form) { f.AdjustCompletion(-completionKeyStep) })
		case "right", "l":
			m.edit(func(f *workflow.Form) { f.AdjustCompletion(completionKeyStep) })
		case "enter":
			return m.next()
		}

	case workflow.StepBugs:
		switch key {
		case "-", "down":
			m.edit(func(f *workflow.Form) { f.DecBugs() })
		case "+", "=", "up":
			m.edit(func(f *workflow.Form) { f.IncBugs() })
		case "enter":
			return m.next()
		case "esc":
			return m.back()
		}

	case workflow.StepSatisfaction:
		switch key {
		case "1", "2", "3", "4", "5":
			level := int(key[0] - '0')
			m.edit(func(f *workflow.Form) { _ = f.SetSatisfaction(level) })
		case "enter":
			return m.next()
		case "esc":
			return m.back()
		}

	case workflow.StepComments:
		switch key {
		case "ctrl+s":
			return m.submit()
		case "esc":
			return m.back()
		}
		var cmd tea.Cmd
		m.comments, cmd = m.comments.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) edit(fn func(f *workflow.Form)) {
	if err := m.session.Edit(func(f *workflow.Form) error {
		fn(f)
		return nil
	}); err != nil {
		m.err = err
	}
}

func (m Model) next() (tea.Model, tea.Cmd) {
	if err := m.session.Next(); err != nil {
		if errors.Is(err, workflow.ErrIncomplete) {
			m.notice = "Elige tu nivel de satisfacción para continuar"
		} else {
			m.err = err
		}
		return m, nil
	}
	if m.session.Step == workflow.StepComments {
		return m, m.comments.Focus()
	}
	return m, nil
}

func (m Model) back() (tea.Model, tea.Cmd) {
	if m.session.Step == workflow.StepComments {
		m.comments.Blur()
	}
	if err := m.session.Back(); err != nil {
		m.err = err
	}
	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	comments := m.comments.Value()
	if err := m.session.Edit(func(f *workflow.Form) error {
		f.Comments = comments
		return nil
	}); err != nil {
		m.err = err
		return m, nil
	}
	m.comments.Blur()
	m.screen = screenSubmitting
	return m, tea.Batch(m.spinner.Tick, m.submitCmd(m.session))
}

func (m Model) onStep(step workflow.Step) bool {
	return m.screen == screenCapture && m.session != nil && m.session.Step == step
}
