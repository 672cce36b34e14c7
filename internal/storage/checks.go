package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/sakhi/internal/common"
	"github.com/Veraticus/sakhi/internal/model"
	"github.com/Veraticus/sakhi/internal/service"
)

// SaveCheck records a completed verification. Saving the same ID twice
// replaces the earlier row.
func (s *SQLiteStorage) SaveCheck(ctx context.Context, check model.Check) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCheck(&check); err != nil {
		return err
	}
	return s.saveCheckTx(ctx, s.db, &check)
}

func (s *SQLiteStorage) saveCheckTx(ctx context.Context, q queryable, c *model.Check) error {
	var confidence sql.NullFloat64
	var scale sql.NullString
	if c.Confidence != nil {
		confidence = sql.NullFloat64{Float64: c.Confidence.Value, Valid: true}
		scale = sql.NullString{String: string(c.Confidence.Scale), Valid: true}
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO checks (id, channel, subject, label, display, confidence, confidence_scale, raw, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			channel = excluded.channel,
			subject = excluded.subject,
			label = excluded.label,
			display = excluded.display,
			confidence = excluded.confidence,
			confidence_scale = excluded.confidence_scale,
			raw = excluded.raw,
			checked_at = excluded.checked_at
	`, c.ID, string(c.Channel), c.Subject, string(c.Label), c.Display, confidence, scale, c.Raw, c.CheckedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save check: %w", err)
	}
	return nil
}

// GetCheck returns a single check by ID.
func (s *SQLiteStorage) GetCheck(ctx context.Context, id string) (*model.Check, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, selectChecks+` WHERE id = ?`, id)
	c, err := scanCheck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get check: %w", err)
	}
	return c, nil
}

// ListChecks returns the most recent checks first.
func (s *SQLiteStorage) ListChecks(ctx context.Context, filter service.CheckFilter) ([]model.Check, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = service.DefaultListLimit
	}

	var (
		where []string
		args  []any
	)
	if filter.Channel != "" {
		if !filter.Channel.IsValid() {
			return nil, fmt.Errorf("%w: unknown channel %q", common.ErrInvalidInput, filter.Channel)
		}
		where = append(where, "channel = ?")
		args = append(args, string(filter.Channel))
	}

	query := selectChecks
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY checked_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list checks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var checks []model.Check
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check: %w", err)
		}
		checks = append(checks, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checks: %w", err)
	}
	return checks, nil
}

// CountChecks returns the number of stored checks per label.
func (s *SQLiteStorage) CountChecks(ctx context.Context) (map[model.Label]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT label, COUNT(*) FROM checks GROUP BY label`)
	if err != nil {
		return nil, fmt.Errorf("failed to count checks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := make(map[model.Label]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[model.Label(label)] = n
	}
	return counts, rows.Err()
}

const selectChecks = `
	SELECT id, channel, subject, label, display, confidence, confidence_scale, raw, checked_at
	FROM checks`

type scanner interface {
	Scan(dest ...any) error
}

func scanCheck(row scanner) (*model.Check, error) {
	var (
		c          model.Check
		channel    string
		label      string
		confidence sql.NullFloat64
		scale      sql.NullString
		raw        sql.NullString
	)
	if err := row.Scan(&c.ID, &channel, &c.Subject, &label, &c.Display, &confidence, &scale, &raw, &c.CheckedAt); err != nil {
		return nil, err
	}
	c.Channel = model.Channel(channel)
	c.Label = model.Label(label)
	c.Raw = raw.String
	if confidence.Valid {
		c.Confidence = &model.Confidence{Value: confidence.Float64, Scale: model.ConfidenceScale(scale.String)}
	}
	return &c, nil
}
