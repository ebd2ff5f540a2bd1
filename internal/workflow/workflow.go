// Package workflow drives a monthly check-in from the entry guard through
// capture to submission.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joescharf/checkin/internal/models"
	"github.com/joescharf/checkin/internal/store"
)

var (
	ErrInvalidIdentity   = errors.New("identity must be an email address")
	ErrNotLoggedIn       = errors.New("no identity set, log in first")
	ErrAlreadyCompleted  = errors.New("check-in already completed for this period")
	ErrInvalidTransition = errors.New("invalid step transition")
	ErrIncomplete        = errors.New("check-in is incomplete")
)

// Recorder keeps the remote copy of submitted reviews. Both calls are
// best-effort and report failure as false.
type Recorder interface {
	CheckExists(ctx context.Context, identity, period string) bool
	Append(ctx context.Context, review *models.Review) bool
}

// Insighter produces the feedback text shown after submission. It never fails.
type Insighter interface {
	RequestInsight(ctx context.Context, completion, bugs, satisfaction int, comments string) string
}

// Options configures a Workflow.
type Options struct {
	// CheckRemote adds the recorder's existence check to the entry guard.
	CheckRemote bool
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Workflow ties the local store, remote recorder and insight requester together.
type Workflow struct {
	store       store.Store
	recorder    Recorder
	insight     Insighter
	checkRemote bool
	now         func() time.Time
	logger      *slog.Logger
}

// New creates a Workflow. recorder and insight may be nil.
func New(s store.Store, recorder Recorder, insight Insighter, opts Options) *Workflow {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Workflow{
		store:       s,
		recorder:    recorder,
		insight:     insight,
		checkRemote: opts.CheckRemote,
		now:         opts.Now,
		logger:      opts.Logger.With("component", "workflow"),
	}
}

// CurrentPeriod returns the period key for the workflow's clock.
func (w *Workflow) CurrentPeriod() string {
	return models.PeriodOf(w.now())
}

// Start opens a session for identity in the current period. When identity
// already has a review for the period the session comes back blocked.
func (w *Workflow) Start(ctx context.Context, identity string) (*Session, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, ErrNotLoggedIn
	}

	period := w.CurrentPeriod()
	done, err := w.Completed(ctx, identity, period)
	if err != nil {
		return nil, err
	}

	return &Session{
		Identity:         identity,
		Period:           period,
		PeriodLabel:      models.PeriodLabel(period),
		Step:             StepCompletion,
		Form:             NewForm(),
		AlreadyCompleted: done,
	}, nil
}

// Completed reports whether identity has a review for period. The local
// list decides; the remote check can only add a hit.
func (w *Workflow) Completed(ctx context.Context, identity, period string) (bool, error) {
	reviews, err := w.store.ListReviews(ctx)
	if err != nil {
		return false, fmt.Errorf("load reviews: %w", err)
	}
	for _, r := range reviews {
		if sameIdentity(r.Identity, identity) && r.Period == period {
			w.logger.Debug("review found locally", "email", identity, "month_id", period)
			return true, nil
		}
	}

	if w.checkRemote && w.recorder != nil {
		if w.recorder.CheckExists(ctx, identity, period) {
			w.logger.Info("review found on remote sheet", "email", identity, "month_id", period)
			return true, nil
		}
	}
	return false, nil
}

// Submit records the session's form and returns the session in the done
// step. Only a local store failure is returned as an error; the remote
// append and the insight request run concurrently and degrade silently.
func (w *Workflow) Submit(ctx context.Context, s *Session) (*Session, error) {
	if s.AlreadyCompleted {
		return nil, ErrAlreadyCompleted
	}
	if s.Step != StepComments {
		return nil, ErrInvalidTransition
	}

	now := w.now()
	review := &models.Review{
		ID:                store.NewID(),
		Identity:          s.Identity,
		Period:            s.Period,
		PeriodLabel:       s.PeriodLabel,
		CompletionPercent: s.Form.Completion,
		BugCount:          s.Form.Bugs,
		Satisfaction:      s.Form.Satisfaction,
		Comments:          strings.TrimSpace(s.Form.Comments),
		CreatedAt:         models.FormatTimestamp(now),
	}
	if err := models.ValidateReview(review); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncomplete, err)
	}

	if _, err := w.store.AppendReview(ctx, review); err != nil {
		return nil, fmt.Errorf("save review: %w", err)
	}
	w.logger.Info("review saved locally", "id", review.ID, "email", review.Identity, "month_id", review.Period)

	var (
		recorded bool
		insight  string
	)
	g, gctx := errgroup.WithContext(ctx)
	if w.recorder != nil {
		g.Go(func() error {
			recorded = w.recorder.Append(gctx, review)
			if !recorded {
				w.logger.Warn("review not recorded remotely, kept locally", "id", review.ID)
			}
			return nil
		})
	}
	if w.insight != nil {
		g.Go(func() error {
			insight = w.insight.RequestInsight(gctx, review.CompletionPercent, review.BugCount, int(review.Satisfaction), review.Comments)
			return nil
		})
	}
	_ = g.Wait()

	out := *s
	out.Step = StepDone
	out.Review = review
	out.Insight = insight
	out.RemoteRecorded = recorded
	out.AlreadyCompleted = true
	return &out, nil
}

// SubmitForm runs a whole check-in for identity with pre-filled values:
// entry guard, the four capture steps and Submit.
func (w *Workflow) SubmitForm(ctx context.Context, identity string, f Form) (*Session, error) {
	s, err := w.Start(ctx, identity)
	if err != nil {
		return nil, err
	}
	if s.AlreadyCompleted {
		return s, ErrAlreadyCompleted
	}

	if err := s.Edit(func(form *Form) error {
		form.SetCompletion(f.Completion)
		form.SetBugs(f.Bugs)
		form.Comments = f.Comments
		return form.SetSatisfaction(int(f.Satisfaction))
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncomplete, err)
	}
	for s.Step < StepComments {
		if err := s.Next(); err != nil {
			return nil, err
		}
	}
	return w.Submit(ctx, s)
}

func sameIdentity(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
