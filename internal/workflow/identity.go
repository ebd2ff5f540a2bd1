package workflow

import (
	"context"
	"fmt"
	"strings"
)

// ValidIdentity reports whether input looks like an email address.
func ValidIdentity(input string) bool {
	return strings.Contains(strings.TrimSpace(input), "@")
}

// Login validates and remembers the identity used for later sessions.
func (w *Workflow) Login(ctx context.Context, input string) (string, error) {
	identity := strings.TrimSpace(input)
	if !ValidIdentity(identity) {
		return "", ErrInvalidIdentity
	}
	if err := w.store.SetIdentity(ctx, identity); err != nil {
		return "", fmt.Errorf("save identity: %w", err)
	}
	w.logger.Info("logged in", "email", identity)
	return identity, nil
}

// Logout forgets the remembered identity. Submitted reviews are kept.
func (w *Workflow) Logout(ctx context.Context) error {
	if err := w.store.ClearIdentity(ctx); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	w.logger.Info("logged out")
	return nil
}

// CurrentIdentity returns the remembered identity, if any.
func (w *Workflow) CurrentIdentity(ctx context.Context) (string, bool, error) {
	return w.store.GetIdentity(ctx)
}
