package tui

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/checkin/internal/models"
	"github.com/joescharf/checkin/internal/store"
	"github.com/joescharf/checkin/internal/workflow"
)

type staticInsight string

func (s staticInsight) RequestInsight(ctx context.Context, completion, bugs, satisfaction int, comments string) string {
	return string(s)
}

func newTestFlow(t *testing.T) (*workflow.Workflow, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "checkin.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	now := time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)
	wf := workflow.New(st, nil, staticInsight("¡Excelente mes!"), workflow.Options{
		Now: func() time.Time { return now },
	})
	return wf, st
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends msg to the model and returns the updated model and command.
func press(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok, "Update must return a tui.Model")
	return out, cmd
}

// runWorkflowCmd executes cmd, which must only wrap workflow calls or
// immediate component commands, and feeds the resulting messages back.
func runWorkflowCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = runWorkflowCmd(t, m, c)
		}
	case sessionMsg, submittedMsg, loggedOutMsg:
		m, _ = press(t, m, msg)
	}
	return m
}

func TestLoginRejectsInvalidEmail(t *testing.T) {
	wf, _ := newTestFlow(t)
	m := New(context.Background(), wf, "", "Sooft")
	assert.Equal(t, screenLogin, m.screen)

	m, _ = press(t, m, runes("no-es-email"))
	m, cmd := press(t, m, key(tea.KeyEnter))
	assert.Nil(t, cmd, "no workflow call for invalid input")
	assert.Equal(t, screenLogin, m.screen)
	assert.Contains(t, m.View(), "Ingresa un email válido")
}

func TestFullCheckIn(t *testing.T) {
	wf, st := newTestFlow(t)
	ctx := context.Background()
	m := New(ctx, wf, "", "Sooft")

	m, _ = press(t, m, runes("dev@example.com"))
	m, cmd := press(t, m, key(tea.KeyEnter))
	m = runWorkflowCmd(t, m, cmd)
	require.Equal(t, screenCapture, m.screen)
	assert.Contains(t, m.View(), "Completitud del Sprint")
	assert.Contains(t, m.View(), "Paso 1 de 4")

	id, ok, err := st.GetIdentity(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dev@example.com", id)

	// Step 1: 80 -> 90 -> 85
	m, _ = press(t, m, key(tea.KeyRight))
	m, _ = press(t, m, key(tea.KeyRight))
	m, _ = press(t, m, key(tea.KeyLeft))
	assert.Equal(t, 85, m.Session().Form.Completion)
	m, _ = press(t, m, key(tea.KeyEnter))

	// Step 2: bugs never below zero
	m, _ = press(t, m, runes("-"))
	m, _ = press(t, m, runes("+"))
	m, _ = press(t, m, runes("+"))
	assert.Equal(t, 2, m.Session().Form.Bugs)
	m, _ = press(t, m, key(tea.KeyEnter))

	// Step 3: satisfaction is required
	m, _ = press(t, m, key(tea.KeyEnter))
	assert.Equal(t, workflow.StepSatisfaction, m.Session().Step)
	assert.Contains(t, m.View(), "Elige tu nivel de satisfacción")
	m, _ = press(t, m, runes("4"))
	assert.Equal(t, models.SatisfactionSatisfied, m.Session().Form.Satisfaction)
	m, _ = press(t, m, key(tea.KeyEnter))
	require.Equal(t, workflow.StepComments, m.Session().Step)

	// Step 4: comments then submit
	m, _ = press(t, m, runes("Buen sprint"))
	m, cmd = press(t, m, key(tea.KeyCtrlS))
	assert.Equal(t, screenSubmitting, m.screen)
	m = runWorkflowCmd(t, m, cmd)

	require.Equal(t, screenDone, m.screen)
	assert.Contains(t, m.View(), "¡Recibido!")
	assert.Contains(t, m.View(), "¡Excelente mes!")

	reviews, err := st.ListReviews(ctx)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 85, reviews[0].CompletionPercent)
	assert.Equal(t, 2, reviews[0].BugCount)
	assert.Equal(t, models.SatisfactionSatisfied, reviews[0].Satisfaction)
	assert.Equal(t, "Buen sprint", reviews[0].Comments)

	_, cmd = press(t, m, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestBackNavigation(t *testing.T) {
	wf, _ := newTestFlow(t)
	m := New(context.Background(), wf, "dev@example.com", "Sooft")
	m = runWorkflowCmd(t, m, m.Init())
	require.Equal(t, screenCapture, m.screen)

	m, _ = press(t, m, key(tea.KeyEnter))
	assert.Equal(t, workflow.StepBugs, m.Session().Step)
	m, _ = press(t, m, key(tea.KeyEsc))
	assert.Equal(t, workflow.StepCompletion, m.Session().Step)
	m, _ = press(t, m, key(tea.KeyEsc))
	assert.Equal(t, workflow.StepCompletion, m.Session().Step, "esc on the first step does nothing")
}

func TestAlreadyCompletedAndLogout(t *testing.T) {
	wf, st := newTestFlow(t)
	ctx := context.Background()
	_, err := wf.SubmitForm(ctx, "dev@example.com", workflow.Form{Completion: 80, Satisfaction: 5})
	require.NoError(t, err)
	require.NoError(t, st.SetIdentity(ctx, "dev@example.com"))

	m := New(ctx, wf, "dev@example.com", "Sooft")
	m = runWorkflowCmd(t, m, m.Init())
	require.Equal(t, screenBlocked, m.screen)
	assert.Contains(t, m.View(), "¡Misión Cumplida!")
	assert.Contains(t, m.View(), "octubre de 2026")

	// Capture keys are ignored.
	m, _ = press(t, m, key(tea.KeyRight))
	assert.Equal(t, screenBlocked, m.screen)

	m, cmd := press(t, m, runes("l"))
	m = runWorkflowCmd(t, m, cmd)
	assert.Equal(t, screenLogin, m.screen)
	_, ok, err := st.GetIdentity(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

type failingFlow struct {
	*workflow.Workflow
	submitErr error
	startErr  error
}

func (f failingFlow) Start(ctx context.Context, identity string) (*workflow.Session, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.Workflow.Start(ctx, identity)
}

func (f failingFlow) Submit(ctx context.Context, s *workflow.Session) (*workflow.Session, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.Workflow.Submit(ctx, s)
}

func TestSubmitErrorReturnsToComments(t *testing.T) {
	wf, _ := newTestFlow(t)
	flow := failingFlow{Workflow: wf, submitErr: errors.New("save review: disk full")}
	m := New(context.Background(), flow, "dev@example.com", "Sooft")
	m = runWorkflowCmd(t, m, m.Init())

	m, _ = press(t, m, key(tea.KeyEnter))
	m, _ = press(t, m, key(tea.KeyEnter))
	m, _ = press(t, m, runes("5"))
	m, _ = press(t, m, key(tea.KeyEnter))
	m, cmd := press(t, m, key(tea.KeyCtrlS))
	m = runWorkflowCmd(t, m, cmd)

	assert.Equal(t, screenCapture, m.screen)
	assert.Equal(t, workflow.StepComments, m.Session().Step)
	assert.Contains(t, m.View(), "disk full")
}

func TestStartErrorQuits(t *testing.T) {
	wf, _ := newTestFlow(t)
	flow := failingFlow{Workflow: wf, startErr: store.ErrCorrupt}
	m := New(context.Background(), flow, "dev@example.com", "Sooft")

	m, cmd := press(t, m, m.Init()())
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.ErrorIs(t, m.Err(), store.ErrCorrupt)
}

func TestCtrlCQuits(t *testing.T) {
	wf, _ := newTestFlow(t)
	m := New(context.Background(), wf, "", "Sooft")
	_, cmd := press(t, m, key(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestProgressBar(t *testing.T) {
	assert.Contains(t, progressBar(2, 4, 8), "Paso 2 de 4")
	assert.Contains(t, meter(150, 100, 4), "████")
}
