package insight

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Requester asks a Generator for feedback and never fails: any problem
// yields the organization's fallback message.
type Requester struct {
	gen     Generator
	org     string
	timeout time.Duration
	logger  *slog.Logger
}

// NewRequester creates a Requester. gen may be nil. A zero timeout leaves
// the call bounded only by the caller's context.
func NewRequester(gen Generator, org string, timeout time.Duration, logger *slog.Logger) *Requester {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Requester{
		gen:     gen,
		org:     orgOrDefault(org),
		timeout: timeout,
		logger:  logger.With("component", "insight"),
	}
}

// Organization returns the organization named in prompts and fallbacks.
func (r *Requester) Organization() string {
	return r.org
}

// RequestInsight returns the generated text verbatim, or the fallback.
func (r *Requester) RequestInsight(ctx context.Context, completion, bugs, satisfaction int, comments string) string {
	if r.gen == nil {
		r.logger.Debug("no insight provider configured, using fallback")
		return Fallback(r.org)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := r.gen.Generate(ctx, BuildPrompt(r.org, completion, bugs, satisfaction, comments))
	if err != nil {
		r.logger.Warn("insight generation failed", "error", err)
		return Fallback(r.org)
	}
	if strings.TrimSpace(text) == "" {
		r.logger.Warn("insight generation returned no text")
		return Fallback(r.org)
	}

	r.logger.Debug("insight generated", "latency", time.Since(start))
	return text
}
