package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/raysh454/trimetric/internal/logging"
	"github.com/raysh454/trimetric/internal/model"
)

// maxWriteAttempts bounds the optimistic revision loop in UpdateFactor.
const maxWriteAttempts = 3

type scoresRow struct {
	pti       sql.NullFloat64
	document  string
	revision  int64
	updatedAt int64
}

// GetScores loads the firm's whole evaluation document.
func (s *Store) GetScores(ctx context.Context, firmIdentifier string) (*model.ScoresData, error) {
	firm, err := s.GetFirm(ctx, firmIdentifier)
	if err != nil {
		return nil, err
	}
	row, err := s.readScores(ctx, s.db, firm.ID)
	if err != nil {
		return nil, err
	}
	return row.toData(firm)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) readScores(ctx context.Context, q queryer, firmID string) (*scoresRow, error) {
	var r scoresRow
	err := q.QueryRowContext(ctx, s.rebind(
		`SELECT pti_score, document, revision, updated_at FROM firm_scores WHERE firm_id = ?`), firmID,
	).Scan(&r.pti, &r.document, &r.revision, &r.updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScoresNotFound
		}
		return nil, fmt.Errorf("read scores: %w", err)
	}
	return &r, nil
}

func (r *scoresRow) toData(firm *model.Firm) (*model.ScoresData, error) {
	scores := model.Scores{}
	if r.document != "" {
		if err := json.Unmarshal([]byte(r.document), &scores); err != nil {
			return nil, fmt.Errorf("decode scores document for firm %s: %w", firm.ID, err)
		}
	}
	// A document of null decodes to a nil map.
	if scores == nil {
		scores = model.Scores{}
	}
	d := &model.ScoresData{
		FirmID:    firm.ID,
		FirmName:  firm.Name,
		Scores:    scores,
		Revision:  r.revision,
		UpdatedAt: time.UnixMilli(r.updatedAt).UTC(),
	}
	if r.pti.Valid {
		v := r.pti.Float64
		d.PTIScore = &v
	}
	return d, nil
}

// ValidateUpdate checks an update against the schema without touching storage.
func (s *Store) ValidateUpdate(u model.FactorUpdate) error {
	f, ok := s.schema.Factor(u.PillarID, u.CategoryID, u.FactorKey)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFactor, u.Ref())
	}
	if !f.InRange(u.Value) {
		return &RangeError{Ref: u.Ref(), Value: u.Value, Max: f.Max}
	}
	return nil
}

// UpdateFactor persists one factor value and returns the entire updated
// document. Out-of-range values and unknown factors are rejected, never
// clamped. Writers race on the document revision; a lost race re-reads and
// reapplies the single factor so concurrent edits of different factors both land.
func (s *Store) UpdateFactor(ctx context.Context, u model.FactorUpdate) (*model.ScoresData, error) {
	if err := s.ValidateUpdate(u); err != nil {
		return nil, err
	}
	firm, err := s.GetFirm(ctx, u.FirmID)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		doc, err := s.applyUpdate(ctx, firm, u)
		if errors.Is(err, ErrConflict) {
			s.logger.Debug("revision conflict, retrying",
				logging.Field{Key: "firm_id", Value: firm.ID},
				logging.Field{Key: "attempt", Value: attempt})
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logger.Info("updated factor",
			logging.Field{Key: "firm_id", Value: firm.ID},
			logging.Field{Key: "factor", Value: u.Ref().String()},
			logging.Field{Key: "value", Value: u.Value},
			logging.Field{Key: "revision", Value: doc.Revision})
		return doc, nil
	}
	return nil, ErrConflict
}

func (s *Store) applyUpdate(ctx context.Context, firm *model.Firm, u model.FactorUpdate) (*model.ScoresData, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer s.rollback(tx)

	row, err := s.readScores(ctx, tx, firm.ID)
	if err != nil {
		return nil, err
	}
	doc, err := row.toData(firm)
	if err != nil {
		return nil, err
	}

	before, err := json.MarshalIndent(doc.Scores, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal scores: %w", err)
	}
	old, had := doc.Scores.Lookup(u.PillarID, u.CategoryID, u.FactorKey)
	doc.Scores.Set(u.PillarID, u.CategoryID, u.FactorKey, u.Value)
	after, err := json.MarshalIndent(doc.Scores, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal scores: %w", err)
	}
	compact, err := json.Marshal(doc.Scores)
	if err != nil {
		return nil, fmt.Errorf("marshal scores: %w", err)
	}

	now := s.now().UTC()
	res, err := tx.ExecContext(ctx, s.rebind(
		`UPDATE firm_scores SET document = ?, revision = ?, updated_at = ? WHERE firm_id = ? AND revision = ?`),
		string(compact), row.revision+1, now.UnixMilli(), firm.ID, row.revision)
	if err != nil {
		return nil, fmt.Errorf("update scores: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrConflict
	}

	var oldVal *float64
	if had {
		oldVal = &old
	}
	if _, err := tx.ExecContext(ctx, s.rebind(
		`INSERT INTO score_events (id, firm_id, pillar_id, category_id, factor_key, old_value, new_value, patch, revision, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		uuid.New().String(), firm.ID, u.PillarID, u.CategoryID, u.FactorKey,
		nullFloat(oldVal), u.Value, textPatch(string(before), string(after)), row.revision+1, now.UnixMilli(),
	); err != nil {
		return nil, fmt.Errorf("insert score event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit scores: %w", err)
	}

	doc.Revision = row.revision + 1
	doc.UpdatedAt = time.UnixMilli(now.UnixMilli()).UTC()
	return doc, nil
}

// SetPTIScore replaces the display-only PTI score; nil clears it. It counts
// as a change and bumps the revision.
func (s *Store) SetPTIScore(ctx context.Context, firmIdentifier string, pti *float64) (*model.ScoresData, error) {
	if pti != nil && (math.IsNaN(*pti) || math.IsInf(*pti, 0)) {
		return nil, fmt.Errorf("%w: ptiScore must be a finite number", ErrInvalidFirm)
	}
	firm, err := s.GetFirm(ctx, firmIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE firm_scores SET pti_score = ?, revision = revision + 1, updated_at = ? WHERE firm_id = ?`),
		nullFloat(pti), s.now().UTC().UnixMilli(), firm.ID); err != nil {
		return nil, fmt.Errorf("update pti score: %w", err)
	}
	return s.GetScores(ctx, firm.ID)
}

// History lists committed factor changes for a firm, newest first.
func (s *Store) History(ctx context.Context, firmIdentifier string, limit int) ([]model.ScoreEvent, error) {
	firm, err := s.GetFirm(ctx, firmIdentifier)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, firm_id, pillar_id, category_id, factor_key, old_value, new_value, patch, revision, created_at
		 FROM score_events WHERE firm_id = ? ORDER BY revision DESC LIMIT ?`), firm.ID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ScoreEvent{}
	for rows.Next() {
		var ev model.ScoreEvent
		var old sql.NullFloat64
		var created int64
		if err := rows.Scan(&ev.ID, &ev.FirmID, &ev.PillarID, &ev.CategoryID, &ev.FactorKey,
			&old, &ev.NewValue, &ev.Patch, &ev.Revision, &created); err != nil {
			return nil, err
		}
		if old.Valid {
			v := old.Float64
			ev.OldValue = &v
		}
		ev.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}

// textPatch renders the document change as a unified-style patch.
func textPatch(before, after string) string {
	dmp := diffmatchpatch.New()
	patches := dmp.PatchMake(before, after)
	return dmp.PatchToText(patches)
}
