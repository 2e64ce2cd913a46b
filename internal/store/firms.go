package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/trimetric/internal/logging"
	"github.com/raysh454/trimetric/internal/model"
)

// normalizeSlug makes a slug safe and simple.
func normalizeSlug(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.ReplaceAll(s, " ", "-")
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') ||
			(r >= '0' && r <= '9') ||
			r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}

// CreateFirm onboards a firm and writes its zero-filled evaluation document
// in the same transaction.
func (s *Store) CreateFirm(ctx context.Context, in model.NewFirm) (*model.Firm, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidFirm)
	}
	slug := normalizeSlug(in.Slug)
	if slug == "" {
		slug = normalizeSlug(name)
	}
	if slug == "" {
		slug = uuid.New().String()[:8]
	}
	if in.PTIScore != nil && (math.IsNaN(*in.PTIScore) || math.IsInf(*in.PTIScore, 0)) {
		return nil, fmt.Errorf("%w: ptiScore must be a finite number", ErrInvalidFirm)
	}

	if _, err := s.lookupFirm(ctx, slug); err == nil {
		return nil, fmt.Errorf("%w: slug %q", ErrDuplicateFirm, slug)
	} else if !errors.Is(err, ErrFirmNotFound) {
		return nil, err
	}

	doc, err := json.Marshal(s.schema.ZeroScores())
	if err != nil {
		return nil, fmt.Errorf("marshal initial scores: %w", err)
	}

	now := s.now().UTC()
	firm := &model.Firm{
		ID:        uuid.New().String(),
		Slug:      slug,
		Name:      name,
		CreatedAt: now.Truncate(time.Millisecond),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer s.rollback(tx)

	if _, err := tx.ExecContext(ctx, s.rebind(
		`INSERT INTO firms (id, slug, name, created_at) VALUES (?, ?, ?, ?)`),
		firm.ID, firm.Slug, firm.Name, now.UnixMilli(),
	); err != nil {
		return nil, fmt.Errorf("insert firm: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.rebind(
		`INSERT INTO firm_scores (firm_id, pti_score, document, revision, updated_at) VALUES (?, ?, ?, ?, ?)`),
		firm.ID, nullFloat(in.PTIScore), string(doc), 0, now.UnixMilli(),
	); err != nil {
		return nil, fmt.Errorf("insert firm scores: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit firm: %w", err)
	}

	s.logger.Info("created firm",
		logging.Field{Key: "firm_id", Value: firm.ID},
		logging.Field{Key: "slug", Value: firm.Slug})
	return firm, nil
}

// GetFirm resolves a firm by slug first, then by id.
func (s *Store) GetFirm(ctx context.Context, identifier string) (*model.Firm, error) {
	if strings.TrimSpace(identifier) == "" {
		return nil, ErrFirmNotFound
	}
	if f, err := s.lookupFirm(ctx, normalizeSlug(identifier)); err == nil {
		return f, nil
	} else if !errors.Is(err, ErrFirmNotFound) {
		return nil, err
	}
	return s.scanFirm(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, slug, name, created_at FROM firms WHERE id = ?`), identifier))
}

func (s *Store) lookupFirm(ctx context.Context, slug string) (*model.Firm, error) {
	return s.scanFirm(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, slug, name, created_at FROM firms WHERE slug = ?`), slug))
}

func (s *Store) scanFirm(row *sql.Row) (*model.Firm, error) {
	var f model.Firm
	var created int64
	if err := row.Scan(&f.ID, &f.Slug, &f.Name, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFirmNotFound
		}
		return nil, err
	}
	f.CreatedAt = time.UnixMilli(created).UTC()
	return &f, nil
}

// ListFirms returns every firm, newest first.
func (s *Store) ListFirms(ctx context.Context) ([]model.Firm, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, slug, name, created_at FROM firms ORDER BY created_at DESC, slug ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Firm{}
	for rows.Next() {
		var f model.Firm
		var created int64
		if err := rows.Scan(&f.ID, &f.Slug, &f.Name, &created); err != nil {
			return nil, err
		}
		f.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, f)
	}
	return out, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
