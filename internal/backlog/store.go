package backlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrRowNotFound indicates the requested row does not exist.
var ErrRowNotFound = errors.New("backlog row not found")

// Store manages backlog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the backlog database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

const rowColumns = `id, status, topic, mode, tone, caption_prompt, hashtag_prompt,
	image_brief, source_links, generated_links, error_message, created_at, updated_at`

func scanRow(scanner interface{ Scan(...any) error }) (*Row, error) {
	var (
		row            Row
		status         string
		mode           string
		sourceLinks    string
		generatedLinks string
		createdAt      string
		updatedAt      string
	)
	err := scanner.Scan(
		&row.ID,
		&status,
		&row.Topic,
		&mode,
		&row.Tone,
		&row.CaptionPrompt,
		&row.HashtagPrompt,
		&row.ImageBrief,
		&sourceLinks,
		&generatedLinks,
		&row.ErrorMessage,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	row.Status = Status(status)
	row.Mode = Mode(mode)
	if row.SourceLinks, err = decodeLinks(sourceLinks); err != nil {
		return nil, fmt.Errorf("decode source links for row %d: %w", row.ID, err)
	}
	if row.GeneratedLinks, err = decodeLinks(generatedLinks); err != nil {
		return nil, fmt.Errorf("decode generated links for row %d: %w", row.ID, err)
	}
	if row.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at for row %d: %w", row.ID, err)
	}
	if row.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at for row %d: %w", row.ID, err)
	}
	return &row, nil
}

func encodeLinks(links []string) (string, error) {
	if len(links) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(links)
	if err != nil {
		return "", fmt.Errorf("encode links: %w", err)
	}
	return string(data), nil
}

func decodeLinks(value string) ([]string, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "[]" {
		return nil, nil
	}
	var links []string
	if err := json.Unmarshal([]byte(value), &links); err != nil {
		return nil, err
	}
	return links, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

// ListRows returns all rows in insertion order.
func (s *Store) ListRows(ctx context.Context) ([]*Row, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT "+rowColumns+" FROM rows ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	defer rows.Close()

	var out []*Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// GetRow loads a single row by ID.
func (s *Store) GetRow(ctx context.Context, id int64) (*Row, error) {
	ctx = ensureContext(ctx)
	row, err := scanRow(s.db.QueryRowContext(ctx, "SELECT "+rowColumns+" FROM rows WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrRowNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get row %d: %w", id, err)
	}
	return row, nil
}

// UpdateRow persists every mutable field of the row in one statement.
// The pipeline computes a row's outcome locally and commits it through
// this single write, so readers never observe a half-updated row.
func (s *Store) UpdateRow(ctx context.Context, row *Row) error {
	if row == nil {
		return errors.New("row must not be nil")
	}
	sourceLinks, err := encodeLinks(row.SourceLinks)
	if err != nil {
		return err
	}
	generatedLinks, err := encodeLinks(row.GeneratedLinks)
	if err != nil {
		return err
	}
	row.UpdatedAt = time.Now().UTC()

	res, err := s.execWithRetry(ensureContext(ctx), `
		UPDATE rows SET
			status = ?, topic = ?, mode = ?, tone = ?,
			caption_prompt = ?, hashtag_prompt = ?, image_brief = ?,
			source_links = ?, generated_links = ?, error_message = ?,
			updated_at = ?
		WHERE id = ?`,
		string(row.Status), row.Topic, string(row.Mode), row.Tone,
		row.CaptionPrompt, row.HashtagPrompt, row.ImageBrief,
		sourceLinks, generatedLinks, row.ErrorMessage,
		formatTimestamp(row.UpdatedAt), row.ID,
	)
	if err != nil {
		return fmt.Errorf("update row %d: %w", row.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update row %d: %w", row.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrRowNotFound, row.ID)
	}
	return nil
}

// AppendRows inserts new rows at the end of the backlog in one
// transaction. IDs are assigned by the database and written back.
func (s *Store) AppendRows(ctx context.Context, newRows []*Row) error {
	if len(newRows) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin append tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		now := time.Now().UTC()
		for _, row := range newRows {
			if row.Status == "" {
				row.Status = StatusNew
			}
			sourceLinks, err := encodeLinks(row.SourceLinks)
			if err != nil {
				return err
			}
			generatedLinks, err := encodeLinks(row.GeneratedLinks)
			if err != nil {
				return err
			}
			row.CreatedAt = now
			row.UpdatedAt = now
			res, err := tx.ExecContext(ctx, `
				INSERT INTO rows (
					status, topic, mode, tone, caption_prompt, hashtag_prompt,
					image_brief, source_links, generated_links, error_message,
					created_at, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				string(row.Status), row.Topic, string(row.Mode), row.Tone,
				row.CaptionPrompt, row.HashtagPrompt, row.ImageBrief,
				sourceLinks, generatedLinks, row.ErrorMessage,
				formatTimestamp(now), formatTimestamp(now),
			)
			if err != nil {
				return fmt.Errorf("append row %q: %w", row.Topic, err)
			}
			if row.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("append row %q: %w", row.Topic, err)
			}
		}
		return tx.Commit()
	})
}

// NewRow appends a single seeded row and returns it.
func (s *Store) NewRow(ctx context.Context, topic string, mode Mode) (*Row, error) {
	row := &Row{
		Status: StatusReady,
		Topic:  strings.TrimSpace(topic),
		Mode:   mode,
	}
	if err := s.AppendRows(ctx, []*Row{row}); err != nil {
		return nil, err
	}
	return row, nil
}

// Summary aggregates row counts per lifecycle state.
func (s *Store) Summary(ctx context.Context) (HealthSummary, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM rows GROUP BY status")
	if err != nil {
		return HealthSummary{}, fmt.Errorf("summarize rows: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, fmt.Errorf("scan summary: %w", err)
		}
		summary.Total += count
		switch Status(status) {
		case StatusNew:
			summary.New = count
		case StatusReady:
			summary.Ready = count
		case StatusNeedsPrompts:
			summary.NeedsPrompts = count
		case StatusNeedsImages:
			summary.NeedsImages = count
		case StatusError:
			summary.Errored = count
		case StatusDone:
			summary.Done = count
		}
	}
	if err := rows.Err(); err != nil {
		return HealthSummary{}, fmt.Errorf("iterate summary: %w", err)
	}
	return summary, nil
}
