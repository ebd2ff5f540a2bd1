package store

import (
	"context"
	"errors"

	"github.com/joescharf/checkin/internal/models"
)

// ErrCorrupt is returned when a persisted value cannot be decoded.
var ErrCorrupt = errors.New("stored value is corrupt")

// Store is the local persistence for the check-in client: the remembered
// identity and the ordered list of submitted reviews. Every write replaces the
// whole stored value.
type Store interface {
	// Identity
	GetIdentity(ctx context.Context) (string, bool, error)
	SetIdentity(ctx context.Context, identity string) error
	ClearIdentity(ctx context.Context) error

	// Reviews, in insertion order
	ListReviews(ctx context.Context) ([]*models.Review, error)
	AppendReview(ctx context.Context, review *models.Review) ([]*models.Review, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// SheetStore is the append-only row storage behind the remote sheet endpoint.
type SheetStore interface {
	AppendRow(ctx context.Context, row *models.SheetRow) (int64, error)
	RowExists(ctx context.Context, email, monthID string) (bool, int, error)
	ListRows(ctx context.Context) ([]*models.SheetRow, error)
}
