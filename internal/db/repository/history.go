package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ontomaint/internal/domain"
)

var _ domain.HistoryRepository = (*HistoryRepo)(nil)

// HistoryRepo stores query executions. Writes go through the single
// connection write pool; listing may use a separate read pool.
type HistoryRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewHistoryRepo creates a HistoryRepo. readDB may be nil, in which case
// writeDB serves reads too.
func NewHistoryRepo(writeDB, readDB *sql.DB) *HistoryRepo {
	if readDB == nil {
		readDB = writeDB
	}
	return &HistoryRepo{writeDB: writeDB, readDB: readDB}
}

// Insert records one execution.
func (r *HistoryRepo) Insert(ctx context.Context, e *domain.HistoryEntry) error {
	if e.ID == "" {
		return domain.ErrValidation("history entry id is required")
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.writeDB.ExecContext(ctx, `
		INSERT INTO query_history
			(id, source, template, query, status, error_message, row_count, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Source, nullString(e.Template), e.Query, e.Status,
		nullString(e.ErrorMessage), e.RowCount, e.DurationMs, formatTime(created))
	if err != nil {
		return fmt.Errorf("insert query history: %w", err)
	}
	return nil
}

const historyColumns = `id, source, template, query, status, error_message, row_count, duration_ms, created_at`

const historyWhere = `
	WHERE (?1 IS NULL OR source = ?1)
	  AND (?2 IS NULL OR status = ?2)`

// List returns matching entries, newest first, and the total match count.
func (r *HistoryRepo) List(ctx context.Context, filter domain.HistoryFilter) ([]domain.HistoryEntry, int64, error) {
	source, status := filterArg(filter.Source), filterArg(filter.Status)

	var total int64
	if err := r.readDB.QueryRowContext(ctx,
		`SELECT count(*) FROM query_history`+historyWhere, source, status,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count query history: %w", err)
	}

	rows, err := r.readDB.QueryContext(ctx, `
		SELECT `+historyColumns+`
		FROM query_history`+historyWhere+`
		ORDER BY created_at DESC, id
		LIMIT ?3 OFFSET ?4`,
		source, status, filter.Page.Limit(), filter.Page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list query history: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	entries := make([]domain.HistoryEntry, 0, filter.Page.Limit())
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan query history: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Get returns one entry by id.
func (r *HistoryRepo) Get(ctx context.Context, id string) (*domain.HistoryEntry, error) {
	e, err := scanEntry(r.readDB.QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM query_history WHERE id = ?`, id))
	if err != nil {
		return nil, mapDBError(err)
	}
	return e, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (*domain.HistoryEntry, error) {
	var (
		e            domain.HistoryEntry
		template     sql.NullString
		errorMessage sql.NullString
		createdAt    string
	)
	if err := row.Scan(&e.ID, &e.Source, &template, &e.Query, &e.Status,
		&errorMessage, &e.RowCount, &e.DurationMs, &createdAt); err != nil {
		return nil, err
	}
	e.Template = stringPtr(template)
	e.ErrorMessage = stringPtr(errorMessage)
	e.CreatedAt = parseTime(createdAt)
	return &e, nil
}
