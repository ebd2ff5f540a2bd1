package workflow

import (
	"fmt"

	"github.com/joescharf/checkin/internal/models"
)

// Step is a position in the five-step capture flow.
type Step int

const (
	StepCompletion Step = iota + 1
	StepBugs
	StepSatisfaction
	StepComments
	StepDone
)

// CaptureSteps is the number of steps the user moves through before done.
const CaptureSteps = int(StepComments)

func (s Step) String() string {
	switch s {
	case StepCompletion:
		return "completion"
	case StepBugs:
		return "bugs"
	case StepSatisfaction:
		return "satisfaction"
	case StepComments:
		return "comments"
	case StepDone:
		return "done"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Form bounds
const (
	DefaultCompletion = 80
	CompletionStep    = 5
	MinCompletion     = 0
	MaxCompletion     = 100
)

// Form holds the values captured so far. A zero Satisfaction means none
// has been picked yet.
type Form struct {
	Completion   int
	Bugs         int
	Satisfaction models.Satisfaction
	Comments     string
}

// NewForm returns a form with the default completion.
func NewForm() Form {
	return Form{Completion: DefaultCompletion}
}

// SetCompletion clamps v to [0,100] and snaps it to the nearest multiple of 5.
func (f *Form) SetCompletion(v int) {
	if v < MinCompletion {
		v = MinCompletion
	}
	if v > MaxCompletion {
		v = MaxCompletion
	}
	f.Completion = (v + CompletionStep/2) / CompletionStep * CompletionStep
}

// AdjustCompletion moves completion by delta, keeping it in range.
func (f *Form) AdjustCompletion(delta int) {
	f.SetCompletion(f.Completion + delta)
}

func (f *Form) IncBugs() {
	f.Bugs++
}

// DecBugs never goes below zero.
func (f *Form) DecBugs() {
	if f.Bugs > 0 {
		f.Bugs--
	}
}

// SetBugs sets the bug count, flooring negatives at zero.
func (f *Form) SetBugs(n int) {
	if n < 0 {
		n = 0
	}
	f.Bugs = n
}

// SetSatisfaction records a value on the 1-5 scale.
func (f *Form) SetSatisfaction(v int) error {
	s := models.Satisfaction(v)
	if !s.Valid() {
		return fmt.Errorf("satisfaction must be between 1 and 5, got %d", v)
	}
	f.Satisfaction = s
	return nil
}
