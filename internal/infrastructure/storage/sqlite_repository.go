package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"VideoDigest/internal/domain"
	"VideoDigest/internal/ports"
)

const processedTable = "processed_items"

// SQLiteRepository persists processed ids in an embedded sqlite database.
type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.ProcessedStore = (*SQLiteRepository)(nil)

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS ` + processedTable + ` (
		id TEXT PRIMARY KEY,
		added_at TIMESTAMP NOT NULL
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteRepository{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (r *SQLiteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Load returns every stored id. Read errors yield an empty set.
func (r *SQLiteRepository) Load(ctx context.Context) domain.ProcessedSet {
	ids, err := r.storedIDs(ctx, r.db)
	if err != nil {
		r.logger.Error("could not read processed ids, starting empty", "error", err)
		return domain.NewProcessedSet()
	}
	return domain.NewProcessedSet(ids...)
}

// Save makes the table match set: missing ids are inserted and ids no longer
// in the set are deleted, in one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, set domain.ProcessedSet) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stored, err := r.storedIDs(ctx, tx)
	if err != nil {
		return err
	}
	existing := domain.NewProcessedSet(stored...)

	var stale []string
	for _, id := range stored {
		if !set.Has(id) {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if _, err := sq.Delete(processedTable).
			Where(sq.Eq{"id": stale}).
			RunWith(tx).
			ExecContext(ctx); err != nil {
			return fmt.Errorf("delete processed: %w", err)
		}
	}

	added := r.now().UTC()
	insert := sq.Insert(processedTable).Options("OR IGNORE").Columns("id", "added_at")
	pending := 0
	for _, id := range set.IDs() {
		if existing.Has(id) {
			continue
		}
		insert = insert.Values(id, added)
		pending++
	}
	if pending > 0 {
		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("insert processed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit processed: %w", err)
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *SQLiteRepository) storedIDs(ctx context.Context, q queryer) ([]string, error) {
	query, args, err := sq.Select("id").From(processedTable).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query processed: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return ids, nil
}
