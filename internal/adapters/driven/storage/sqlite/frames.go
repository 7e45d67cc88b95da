package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/core/ports/driven"
)

// FrameStore implements driven.FrameStore and driven.FrameIndexer.
type FrameStore struct {
	store   *Store
	decoder driven.ImageDecoder
}

var (
	_ driven.FrameStore   = (*FrameStore)(nil)
	_ driven.FrameIndexer = (*FrameStore)(nil)
)

const frameColumns = "id, captured_at, segment_id, locator_kind, locator_path, frame_index"

// SaveFrame stores or replaces a frame together with its OCR nodes.
func (s *FrameStore) SaveFrame(ctx context.Context, frame domain.FrameRef, nodes []domain.OCRNode) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var kind, path string
	var index int
	if frame.Locator != nil {
		kind, path, index = string(frame.Locator.Kind), frame.Locator.Path, frame.Locator.FrameIndex
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO frames (id, captured_at, segment_id, locator_kind, locator_path, frame_index)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			captured_at = excluded.captured_at,
			segment_id = excluded.segment_id,
			locator_kind = excluded.locator_kind,
			locator_path = excluded.locator_path,
			frame_index = excluded.frame_index
	`, string(frame.ID), frame.Timestamp.UnixNano(), string(frame.SegmentID), kind, path, index)
	if err != nil {
		return fmt.Errorf("saving frame: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM ocr_nodes WHERE frame_id = ?", string(frame.ID)); err != nil {
		return fmt.Errorf("clearing ocr nodes: %w", err)
	}
	if len(nodes) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO ocr_nodes (id, frame_id, position, x, y, w, h, text)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing ocr insert: %w", err)
		}
		defer stmt.Close()
		for i, n := range nodes {
			if _, err := stmt.ExecContext(ctx, n.ID, string(frame.ID), i,
				n.Box.X, n.Box.Y, n.Box.W, n.Box.H, n.Text); err != nil {
				return fmt.Errorf("saving ocr node %s: %w", n.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing frame: %w", err)
	}
	return nil
}

// RangeQuery returns frames with from <= timestamp <= to, ascending.
func (s *FrameStore) RangeQuery(ctx context.Context, from, to time.Time, limit int) ([]domain.FrameRef, error) {
	return s.query(ctx, `
		SELECT `+frameColumns+` FROM frames
		WHERE captured_at BETWEEN ? AND ?
		ORDER BY captured_at ASC LIMIT ?
	`, from.UnixNano(), to.UnixNano(), sqlLimit(limit))
}

// BeforeQuery returns frames strictly older than ts, newest first.
func (s *FrameStore) BeforeQuery(ctx context.Context, ts time.Time, limit int) ([]domain.FrameRef, error) {
	return s.query(ctx, `
		SELECT `+frameColumns+` FROM frames
		WHERE captured_at < ?
		ORDER BY captured_at DESC LIMIT ?
	`, ts.UnixNano(), sqlLimit(limit))
}

// AfterQuery returns frames strictly newer than ts, oldest first.
func (s *FrameStore) AfterQuery(ctx context.Context, ts time.Time, limit int) ([]domain.FrameRef, error) {
	return s.query(ctx, `
		SELECT `+frameColumns+` FROM frames
		WHERE captured_at > ?
		ORDER BY captured_at ASC LIMIT ?
	`, ts.UnixNano(), sqlLimit(limit))
}

// MostRecent returns the newest frames, newest first.
func (s *FrameStore) MostRecent(ctx context.Context, limit int) ([]domain.FrameRef, error) {
	return s.query(ctx, `
		SELECT `+frameColumns+` FROM frames
		ORDER BY captured_at DESC LIMIT ?
	`, sqlLimit(limit))
}

// ByID retrieves a single frame.
func (s *FrameStore) ByID(ctx context.Context, id domain.FrameID) (*domain.FrameRef, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+frameColumns+" FROM frames WHERE id = ?", string(id))
	frame, err := scanFrame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning frame: %w", err)
	}
	return frame, nil
}

// Count returns the number of indexed frames.
func (s *FrameStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM frames").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting frames: %w", err)
	}
	return n, nil
}

// DecodeImage decodes the frame's pixels through the configured decoder.
func (s *FrameStore) DecodeImage(ctx context.Context, frame domain.FrameRef) ([]byte, error) {
	if s.decoder == nil {
		return nil, fmt.Errorf("%w: no decoder configured", domain.ErrDecodeFailure)
	}
	if frame.Locator == nil {
		stored, err := s.ByID(ctx, frame.ID)
		if err != nil {
			return nil, err
		}
		frame = *stored
	}
	if frame.Locator == nil {
		return nil, fmt.Errorf("%w: frame %s has no locator", domain.ErrDecodeFailure, frame.ID)
	}
	return s.decoder.Decode(ctx, *frame.Locator)
}

// OCRNodes returns the text regions of a frame in insertion order.
func (s *FrameStore) OCRNodes(ctx context.Context, frame domain.FrameRef) ([]domain.OCRNode, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, x, y, w, h, text FROM ocr_nodes
		WHERE frame_id = ? ORDER BY position
	`, string(frame.ID))
	if err != nil {
		return nil, fmt.Errorf("querying ocr nodes: %w", err)
	}
	defer rows.Close()

	var nodes []domain.OCRNode //nolint:prealloc // size unknown from query
	for rows.Next() {
		n := domain.OCRNode{FrameID: frame.ID}
		if err := rows.Scan(&n.ID, &n.Box.X, &n.Box.Y, &n.Box.W, &n.Box.H, &n.Text); err != nil {
			return nil, fmt.Errorf("scanning ocr node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ocr nodes: %w", err)
	}
	return nodes, nil
}

// Delete removes a frame. Its OCR nodes go with it.
func (s *FrameStore) Delete(ctx context.Context, frame domain.FrameRef) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM frames WHERE id = ?", string(frame.ID))
	if err != nil {
		return fmt.Errorf("deleting frame: %w", err)
	}
	return nil
}

// DeleteMany removes several frames in one statement.
func (s *FrameStore) DeleteMany(ctx context.Context, frames []domain.FrameRef) error {
	if len(frames) == 0 {
		return nil
	}
	args := make([]any, len(frames))
	for i, f := range frames {
		args[i] = string(f.ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(frames)), ",")
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM frames WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("deleting frames: %w", err)
	}
	return nil
}

func (s *FrameStore) query(ctx context.Context, query string, args ...any) ([]domain.FrameRef, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying frames: %w", err)
	}
	defer rows.Close()

	var frames []domain.FrameRef //nolint:prealloc // size unknown from query
	for rows.Next() {
		frame, err := scanFrame(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning frame: %w", err)
		}
		frames = append(frames, *frame)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating frames: %w", err)
	}
	return frames, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanFrame(row scanner) (*domain.FrameRef, error) {
	var (
		id, segment, kind, path string
		capturedAt              int64
		index                   int
	)
	if err := row.Scan(&id, &capturedAt, &segment, &kind, &path, &index); err != nil {
		return nil, err
	}
	frame := &domain.FrameRef{
		ID:        domain.FrameID(id),
		Timestamp: time.Unix(0, capturedAt).UTC(),
		SegmentID: domain.SegmentID(segment),
	}
	if kind != "" {
		frame.Locator = &domain.Locator{Kind: domain.LocatorKind(kind), Path: path, FrameIndex: index}
	}
	return frame, nil
}

// sqlLimit maps a non-positive limit to SQLite's "no limit".
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
