package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"grue/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound sentinel
	ErrNotFound = errors.New("not found")
	// ErrCodeTaken is returned when an insert hits the unique constraint on
	// the short code.
	ErrCodeTaken = errors.New("short code already taken")
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// EnsureSchema creates the short_links table and its indexes if missing.
// Column names keep the original ShortLinks document fields.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	const q = `
	CREATE TABLE IF NOT EXISTS short_links (
		id BIGSERIAL PRIMARY KEY,
		grue_url TEXT NOT NULL,
		short VARCHAR(16) NOT NULL UNIQUE,
		date TIMESTAMPTZ NOT NULL,
		last_visit TIMESTAMPTZ NOT NULL,
		remove_dt TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_short_links_grue_url ON short_links (grue_url);
	CREATE INDEX IF NOT EXISTS idx_short_links_remove_dt ON short_links (remove_dt);`
	_, err := r.DB.ExecContext(ctx, q)
	return err
}

func (r *Repo) GetByCode(ctx context.Context, code string) (*model.LinkRecord, error) {
	const q = `SELECT id, grue_url, short, date, last_visit, remove_dt FROM short_links WHERE short = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, q, code))
}

// GetByLongURL matches the exact string as submitted. No normalization of
// scheme case, trailing slashes or query order.
func (r *Repo) GetByLongURL(ctx context.Context, longURL string) (*model.LinkRecord, error) {
	const q = `SELECT id, grue_url, short, date, last_visit, remove_dt FROM short_links WHERE grue_url = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, q, longURL))
}

// Insert writes a new record. Uniqueness of the short code is enforced by
// the database constraint, so concurrent inserts of the same code cannot
// both succeed; the loser gets ErrCodeTaken.
func (r *Repo) Insert(ctx context.Context, rec *model.LinkRecord) error {
	const q = `
		INSERT INTO short_links (grue_url, short, date, last_visit, remove_dt)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	var exp interface{}
	if rec.ExpiresAt != nil {
		exp = rec.ExpiresAt.UTC()
	}
	err := r.DB.QueryRowContext(ctx, q,
		rec.LongURL, rec.ShortCode, rec.CreatedAt.UTC(), rec.LastVisitedAt.UTC(), exp,
	).Scan(&rec.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrCodeTaken
		}
		return err
	}
	return nil
}

// Touch records a visit: last_visit always, remove_dt when the caller's
// expiry policy slides it forward (nil leaves the stored value unchanged).
func (r *Repo) Touch(ctx context.Context, code string, visitedAt time.Time, expiresAt *time.Time) error {
	const q = `
		UPDATE short_links
		SET last_visit = $2, remove_dt = COALESCE($3, remove_dt)
		WHERE short = $1`
	var exp interface{}
	if expiresAt != nil {
		exp = expiresAt.UTC()
	}
	res, err := r.DB.ExecContext(ctx, q, code, visitedAt.UTC(), exp)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired removes every record whose removal time has passed and
// returns the count. Concurrent readers of a deleted row see ErrNotFound.
func (r *Repo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM short_links WHERE remove_dt IS NOT NULL AND remove_dt <= $1`
	res, err := r.DB.ExecContext(ctx, q, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repo) scanOne(row *sql.Row) (*model.LinkRecord, error) {
	var rec model.LinkRecord
	var removeDt sql.NullTime
	if err := row.Scan(&rec.ID, &rec.LongURL, &rec.ShortCode, &rec.CreatedAt, &rec.LastVisitedAt, &removeDt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if removeDt.Valid {
		t := removeDt.Time
		rec.ExpiresAt = &t
	}
	return &rec, nil
}
