package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/checkin/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	keyIdentity = "identity"
	keyReviews  = "reviews"
)

// SQLiteStore implements Store and SheetStore using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One writer at a time; the sheet server may see concurrent requests.
	db.SetMaxOpenConns(1)

	pragmas := []struct{ stmt, what string }{
		{"PRAGMA journal_mode=WAL", "enable WAL mode"},
		{"PRAGMA busy_timeout=5000", "set busy timeout"},
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p.stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p.what, err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewID generates a new ULID string. IDs from one process sort in creation order.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- key/value helpers ---

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// getValue decodes the JSON value stored under key into v. It reports false
// when the key is absent.
func getValue(ctx context.Context, q queryer, key string, v any) (bool, error) {
	var raw string
	err := q.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decode %s: %w: %v", key, ErrCorrupt, err)
	}
	return true, nil
}

// putValue replaces the whole value stored under key.
func putValue(ctx context.Context, q queryer, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// --- Identity ---

func (s *SQLiteStore) GetIdentity(ctx context.Context) (string, bool, error) {
	var identity string
	ok, err := getValue(ctx, s.db, keyIdentity, &identity)
	if err != nil || !ok {
		return "", false, err
	}
	return identity, identity != "", nil
}

func (s *SQLiteStore) SetIdentity(ctx context.Context, identity string) error {
	return putValue(ctx, s.db, keyIdentity, identity)
}

func (s *SQLiteStore) ClearIdentity(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", keyIdentity); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}

// --- Reviews ---

func (s *SQLiteStore) ListReviews(ctx context.Context) ([]*models.Review, error) {
	var reviews []*models.Review
	if _, err := getValue(ctx, s.db, keyReviews, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// AppendReview adds review to the end of the stored list and rewrites the list.
// A ULID is assigned when review.ID is empty.
func (s *SQLiteStore) AppendReview(ctx context.Context, review *models.Review) ([]*models.Review, error) {
	if review.ID == "" {
		review.ID = NewID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var reviews []*models.Review
	if _, err := getValue(ctx, tx, keyReviews, &reviews); err != nil {
		return nil, err
	}
	reviews = append(reviews, review)
	if err := putValue(ctx, tx, keyReviews, reviews); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit review: %w", err)
	}
	return reviews, nil
}

// --- Sheet rows ---

// The sheet's first row holds the column headers, so data rows start at 2.
const sheetHeaderRows = 1

func (s *SQLiteStore) AppendRow(ctx context.Context, row *models.SheetRow) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO sheet_rows (email, completion, bugs, satisfaction, comments, timestamp, month_id, month_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.Email, row.Completion, row.Bugs, row.Satisfaction, row.Comments, row.Timestamp, row.MonthID, row.MonthName,
	)
	if err != nil {
		return 0, fmt.Errorf("append row: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append row: %w", err)
	}
	row.Row = id + sheetHeaderRows
	return row.Row, nil
}

// RowExists reports whether a row matches email (trimmed, case-insensitive)
// and monthID, together with the total number of data rows.
func (s *SQLiteStore) RowExists(ctx context.Context, email, monthID string) (bool, int, error) {
	var total, matches int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN lower(trim(email)) = ? AND trim(month_id) = ? THEN 1 ELSE 0 END), 0)
		FROM sheet_rows`,
		strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(monthID),
	).Scan(&total, &matches)
	if err != nil {
		return false, 0, fmt.Errorf("check row: %w", err)
	}
	return matches > 0, total, nil
}

func (s *SQLiteStore) ListRows(ctx context.Context) ([]*models.SheetRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_num, email, completion, bugs, satisfaction, comments, timestamp, month_id, month_name
		FROM sheet_rows ORDER BY row_num`)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.SheetRow
	for rows.Next() {
		r := &models.SheetRow{}
		if err := rows.Scan(&r.Row, &r.Email, &r.Completion, &r.Bugs, &r.Satisfaction, &r.Comments, &r.Timestamp, &r.MonthID, &r.MonthName); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Row += sheetHeaderRows
		out = append(out, r)
	}
	return out, rows.Err()
}
