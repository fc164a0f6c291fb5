package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/hardship-board/internal/apperror"
	"github.com/sakif/hardship-board/internal/model"
	"github.com/sakif/hardship-board/internal/repository"
)

var _ repository.HardshipRepository = (*DB)(nil)

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

// Insert writes the record and its children in one transaction.
// The id comes from SQLite's AUTOINCREMENT counter.
func (db *DB) Insert(ctx context.Context, h *model.Hardship) error {
	h.Normalize()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning insert: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO hardships (user_id, text, category, created_at, last_edited)
		 VALUES (?, ?, ?, ?, ?)`,
		h.UserID, h.Text, h.Category, formatTime(h.CreatedAt), nullableTime(h.LastEdited),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting hardship: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading inserted id: %w", err)
	}

	if err := writeChildren(ctx, tx, id, h); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing insert: %w", err)
	}

	h.ID = id
	return nil
}

// List loads every record with three queries (parents, comments, likes)
// rather than one query per record.
func (db *DB) List(ctx context.Context) ([]model.Hardship, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, text, category, created_at, last_edited
		 FROM hardships ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing hardships: %w", err)
	}
	defer rows.Close()

	var (
		out   []model.Hardship
		index = make(map[int64]int)
	)
	for rows.Next() {
		h, err := scanHardship(rows)
		if err != nil {
			return nil, err
		}
		index[h.ID] = len(out)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating hardships: %w", err)
	}
	rows.Close()

	err = eachComment(ctx, db.conn, `ORDER BY hardship_id, position`, nil, func(hid int64, c model.Comment) {
		if i, ok := index[hid]; ok {
			out[i].Comments = append(out[i].Comments, c)
		}
	})
	if err != nil {
		return nil, err
	}

	err = eachLike(ctx, db.conn, `ORDER BY hardship_id, viewer_id`, nil, func(hid, viewer int64) {
		if i, ok := index[hid]; ok {
			out[i].LikedBy = append(out[i].LikedBy, viewer)
		}
	})
	if err != nil {
		return nil, err
	}

	for i := range out {
		out[i].Normalize()
	}
	if out == nil {
		out = []model.Hardship{}
	}
	return out, nil
}

func (db *DB) GetByID(ctx context.Context, id int64) (*model.Hardship, error) {
	return load(ctx, db.conn, id)
}

// Update loads, mutates and rewrites the record inside one transaction.
// If mutate fails the transaction is rolled back and nothing changes.
func (db *DB) Update(ctx context.Context, id int64, mutate repository.MutateFunc) (*model.Hardship, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning update: %w", err)
	}
	defer tx.Rollback()

	h, err := load(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(h); err != nil {
		return nil, err
	}
	h.ID = id
	h.Normalize()

	_, err = tx.ExecContext(ctx,
		`UPDATE hardships
		 SET user_id = ?, text = ?, category = ?, last_edited = ?
		 WHERE id = ?`,
		h.UserID, h.Text, h.Category, nullableTime(h.LastEdited), id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating hardship %d: %w", id, err)
	}

	// Children are small; rewriting them keeps comment positions exact.
	if _, err := tx.ExecContext(ctx, `DELETE FROM hardship_comments WHERE hardship_id = ?`, id); err != nil {
		return nil, fmt.Errorf("sqlite: clearing comments of %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM hardship_likes WHERE hardship_id = ?`, id); err != nil {
		return nil, fmt.Errorf("sqlite: clearing likes of %d: %w", id, err)
	}
	if err := writeChildren(ctx, tx, id, h); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing update of %d: %w", id, err)
	}
	return h, nil
}

// Delete removes the record; comments and likes go with it via ON DELETE CASCADE.
func (db *DB) Delete(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM hardships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting hardship %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("hardship", id)
	}
	return nil
}

// load reads one full record through q.
func load(ctx context.Context, q querier, id int64) (*model.Hardship, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, user_id, text, category, created_at, last_edited
		 FROM hardships WHERE id = ?`, id)
	h, err := scanHardship(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("hardship", id)
		}
		return nil, err
	}

	err = eachComment(ctx, q, `WHERE hardship_id = ? ORDER BY position`, []any{id},
		func(_ int64, c model.Comment) { h.Comments = append(h.Comments, c) })
	if err != nil {
		return nil, err
	}
	err = eachLike(ctx, q, `WHERE hardship_id = ? ORDER BY viewer_id`, []any{id},
		func(_, viewer int64) { h.LikedBy = append(h.LikedBy, viewer) })
	if err != nil {
		return nil, err
	}

	h.Normalize()
	return &h, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHardship(s scanner) (model.Hardship, error) {
	var (
		h          model.Hardship
		createdAt  string
		lastEdited sql.NullString
	)
	if err := s.Scan(&h.ID, &h.UserID, &h.Text, &h.Category, &createdAt, &lastEdited); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return h, err
		}
		return h, fmt.Errorf("sqlite: scanning hardship row: %w", err)
	}

	var err error
	if h.CreatedAt, err = parseTime(createdAt); err != nil {
		return h, fmt.Errorf("sqlite: hardship %d: %w", h.ID, err)
	}
	if lastEdited.Valid {
		t, err := parseTime(lastEdited.String)
		if err != nil {
			return h, fmt.Errorf("sqlite: hardship %d: %w", h.ID, err)
		}
		h.LastEdited = &t
	}
	return h, nil
}

func eachComment(ctx context.Context, q querier, tail string, args []any, fn func(int64, model.Comment)) error {
	rows, err := q.QueryContext(ctx,
		`SELECT hardship_id, id, text, created_at FROM hardship_comments `+tail, args...)
	if err != nil {
		return fmt.Errorf("sqlite: querying comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			hid       int64
			c         model.Comment
			createdAt string
		)
		if err := rows.Scan(&hid, &c.ID, &c.Text, &createdAt); err != nil {
			return fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return fmt.Errorf("sqlite: comment %d: %w", c.ID, err)
		}
		fn(hid, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating comments: %w", err)
	}
	return nil
}

func eachLike(ctx context.Context, q querier, tail string, args []any, fn func(int64, int64)) error {
	rows, err := q.QueryContext(ctx,
		`SELECT hardship_id, viewer_id FROM hardship_likes `+tail, args...)
	if err != nil {
		return fmt.Errorf("sqlite: querying likes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hid, viewer int64
		if err := rows.Scan(&hid, &viewer); err != nil {
			return fmt.Errorf("sqlite: scanning like row: %w", err)
		}
		fn(hid, viewer)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating likes: %w", err)
	}
	return nil
}

func writeChildren(ctx context.Context, q querier, id int64, h *model.Hardship) error {
	for pos, c := range h.Comments {
		_, err := q.ExecContext(ctx,
			`INSERT INTO hardship_comments (hardship_id, position, id, text, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			id, pos, c.ID, c.Text, formatTime(c.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting comment of %d: %w", id, err)
		}
	}
	for _, viewer := range h.LikedBy {
		_, err := q.ExecContext(ctx,
			`INSERT INTO hardship_likes (hardship_id, viewer_id) VALUES (?, ?)`,
			id, viewer,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting like of %d: %w", id, err)
		}
	}
	return nil
}

func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}
