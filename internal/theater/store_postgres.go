package theater

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) (*PGStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	s := &PGStore{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PGStore) ensureSchema() error {
	const q = `
CREATE TABLE IF NOT EXISTS theaters (
	id SERIAL PRIMARY KEY,
	name VARCHAR(120) NOT NULL,
	address TEXT NOT NULL,
	seat_count INTEGER NOT NULL CHECK (seat_count > 0),
	manager_id INTEGER NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := s.db.Exec(q); err != nil {
		return fmt.Errorf("ensure theaters schema: %w", err)
	}
	return nil
}

const theaterColumns = `id, name, address, seat_count, manager_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTheater(row rowScanner) (Theater, error) {
	var t Theater
	var manager sql.NullInt64
	if err := row.Scan(&t.ID, &t.Name, &t.Address, &t.SeatCount, &manager, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Theater{}, err
	}
	if manager.Valid {
		id := int(manager.Int64)
		t.ManagerID = &id
	}
	return t, nil
}

func managerArg(id *int) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func (s *PGStore) FindTheaterByID(ctx context.Context, id int) (Theater, error) {
	if id <= 0 {
		return Theater{}, ErrNotFound
	}
	q := `SELECT ` + theaterColumns + ` FROM theaters WHERE id = $1`
	t, err := scanTheater(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Theater{}, ErrNotFound
		}
		return Theater{}, fmt.Errorf("get theater: %w", err)
	}
	return t, nil
}

func (s *PGStore) ListTheaters(ctx context.Context) ([]Theater, error) {
	q := `SELECT ` + theaterColumns + ` FROM theaters ORDER BY id ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query theaters: %w", err)
	}
	defer rows.Close()

	out := make([]Theater, 0)
	for rows.Next() {
		t, err := scanTheater(rows)
		if err != nil {
			return nil, fmt.Errorf("scan theater: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate theaters: %w", err)
	}
	return out, nil
}

func (s *PGStore) SaveTheater(ctx context.Context, t Theater) (Theater, error) {
	if t.ID == 0 {
		const q = `
INSERT INTO theaters (name, address, seat_count, manager_id)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, updated_at`
		if err := s.db.QueryRowContext(ctx, q, t.Name, t.Address, t.SeatCount, managerArg(t.ManagerID)).
			Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return Theater{}, fmt.Errorf("insert theater: %w", err)
		}
		return t, nil
	}

	const q = `
UPDATE theaters
SET name = $2,
	address = $3,
	seat_count = $4,
	manager_id = $5,
	updated_at = NOW()
WHERE id = $1
RETURNING created_at, updated_at`
	if err := s.db.QueryRowContext(ctx, q, t.ID, t.Name, t.Address, t.SeatCount, managerArg(t.ManagerID)).
		Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Theater{}, ErrNotFound
		}
		return Theater{}, fmt.Errorf("update theater: %w", err)
	}
	return t, nil
}

func (s *PGStore) DeleteTheater(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM theaters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete theater: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete theater rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
