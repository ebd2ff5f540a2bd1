package workflow

import (
	"github.com/joescharf/checkin/internal/models"
)

// Session is the explicit state of one check-in attempt. It is created by
// Workflow.Start and handed back in to every later operation.
type Session struct {
	Identity    string
	Period      string
	PeriodLabel string

	Step Step
	Form Form

	// AlreadyCompleted blocks the capture flow for the rest of the period.
	AlreadyCompleted bool

	// Set by Submit.
	Review         *models.Review
	Insight        string
	RemoteRecorded bool
}

// Blocked reports whether the capture flow is closed to this session.
func (s *Session) Blocked() bool {
	return s.AlreadyCompleted && s.Step != StepDone
}

// Done reports whether the session has been submitted.
func (s *Session) Done() bool {
	return s.Step == StepDone
}

func (s *Session) editable() error {
	switch {
	case s.Step == StepDone:
		return ErrInvalidTransition
	case s.AlreadyCompleted:
		return ErrAlreadyCompleted
	}
	return nil
}

// Next moves forward one capture step. Leaving the satisfaction step needs
// a value; the comments step only leaves through Workflow.Submit.
func (s *Session) Next() error {
	if err := s.editable(); err != nil {
		return err
	}
	switch s.Step {
	case StepSatisfaction:
		if !s.Form.Satisfaction.Valid() {
			return ErrIncomplete
		}
	case StepComments:
		return ErrInvalidTransition
	}
	s.Step++
	return nil
}

// Back moves to the previous capture step.
func (s *Session) Back() error {
	if err := s.editable(); err != nil {
		return err
	}
	if s.Step <= StepCompletion {
		return ErrInvalidTransition
	}
	s.Step--
	return nil
}

// Edit applies fn to the form while the session is still capturing.
func (s *Session) Edit(fn func(f *Form) error) error {
	if err := s.editable(); err != nil {
		return err
	}
	return fn(&s.Form)
}
