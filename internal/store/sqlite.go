package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/derk-ster/StudyHatch-sub000/internal/game"
)

const timeLayout = "2006-01-02T15:04:05.000Z"

// SQLite keeps sessions in a local libSQL file so a single push server can
// rehydrate live games after a restart. The sessions table is created by
// the migrations package.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Get(ctx context.Context, code string) (*game.Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM sessions WHERE code = ?`, code,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode([]byte(data))
}

func (s *SQLite) Insert(ctx context.Context, sess *game.Session) error {
	data, err := encode(sess)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (code, status, data, updated_at) VALUES (?, ?, jsonb(?), ?)
		 ON CONFLICT(code) DO NOTHING`,
		sess.Code, string(sess.Status), string(data), stamp(sess.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExists
	}
	return nil
}

func (s *SQLite) Put(ctx context.Context, sess *game.Session) error {
	data, err := encode(sess)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (code, status, data, updated_at) VALUES (?, ?, jsonb(?), ?)
		 ON CONFLICT(code) DO UPDATE SET status = excluded.status, data = excluded.data, updated_at = excluded.updated_at`,
		sess.Code, string(sess.Status), string(data), stamp(sess.UpdatedAt),
	)
	return err
}

func (s *SQLite) Delete(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE code = ?`, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]*game.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT json(data) FROM sessions ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*game.Session
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		sess, err := decode([]byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func stamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
