package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"timeagent/internal/scheduling"
)

// ErrNotFound is returned when a user has no stored row of the requested kind.
var ErrNotFound = errors.New("not found")

// Store persists what has to outlive a request: the Google refresh token of
// each signed-in user and the weekly tables they last submitted.
type Store interface {
	SaveRefreshToken(ctx context.Context, userSub, refreshToken string) error
	RefreshToken(ctx context.Context, userSub string) (string, error)
	SaveWeeklyHours(ctx context.Context, userSub string, kind HoursKind, schedule scheduling.WeeklySchedule) error
	WeeklyHours(ctx context.Context, userSub string, kind HoursKind) (SavedHours, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS refresh_tokens (
	user_sub      TEXT PRIMARY KEY,
	refresh_token TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS weekly_hours (
	user_sub    TEXT NOT NULL,
	kind        TEXT NOT NULL,
	day_of_week INT  NOT NULL,
	start_time  TEXT NOT NULL,
	end_time    TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_sub, kind, day_of_week)
);`

// PGStore is the Postgres-backed Store.
type PGStore struct {
	DB *pgxpool.Pool
}

// OpenPG connects and pings the database.
func OpenPG(ctx context.Context, databaseURL string) (*PGStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &PGStore{DB: pool}, nil
}

// Close releases the pool.
func (s *PGStore) Close() {
	if s != nil && s.DB != nil {
		s.DB.Close()
	}
}

// Migrate creates the tables if they do not exist yet.
func (s *PGStore) Migrate(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, schema)
	return err
}

// SaveRefreshToken replaces any previous token of the user.
func (s *PGStore) SaveRefreshToken(ctx context.Context, userSub, refreshToken string) error {
	q := `INSERT INTO refresh_tokens (user_sub, refresh_token, created_at)
	      VALUES ($1,$2,$3)
	      ON CONFLICT (user_sub) DO UPDATE
	      SET refresh_token=EXCLUDED.refresh_token, created_at=EXCLUDED.created_at`
	_, err := s.DB.Exec(ctx, q, userSub, refreshToken, time.Now().UTC())
	return err
}

func (s *PGStore) RefreshToken(ctx context.Context, userSub string) (string, error) {
	var token string
	err := s.DB.QueryRow(ctx, `SELECT refresh_token FROM refresh_tokens WHERE user_sub=$1`, userSub).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return token, err
}

// SaveWeeklyHours replaces the user's table of the given kind in one transaction.
func (s *PGStore) SaveWeeklyHours(ctx context.Context, userSub string, kind HoursKind, schedule scheduling.WeeklySchedule) error {
	now := time.Now().UTC()

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM weekly_hours WHERE user_sub=$1 AND kind=$2`, userSub, string(kind)); err != nil {
		return err
	}

	q := `INSERT INTO weekly_hours (user_sub, kind, day_of_week, start_time, end_time, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6)`
	for _, day := range scheduling.Weekdays {
		p, ok := schedule[day]
		if !ok {
			continue
		}
		if _, err := tx.Exec(ctx, q, userSub, string(kind), int(day), p.StartTime, p.EndTime, now); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) WeeklyHours(ctx context.Context, userSub string, kind HoursKind) (SavedHours, error) {
	q := `SELECT day_of_week, start_time, end_time, updated_at
	      FROM weekly_hours WHERE user_sub=$1 AND kind=$2 ORDER BY day_of_week`
	rows, err := s.DB.Query(ctx, q, userSub, string(kind))
	if err != nil {
		return SavedHours{}, err
	}
	defer rows.Close()

	out := SavedHours{Kind: kind, Schedule: scheduling.WeeklySchedule{}}
	for rows.Next() {
		var (
			day     int
			p       scheduling.TimePeriod
			updated time.Time
		)
		if err := rows.Scan(&day, &p.StartTime, &p.EndTime, &updated); err != nil {
			return SavedHours{}, err
		}
		out.Schedule[scheduling.Weekday(day)] = p
		if updated.After(out.UpdatedAt) {
			out.UpdatedAt = updated
		}
	}
	if err := rows.Err(); err != nil {
		return SavedHours{}, err
	}
	if len(out.Schedule) == 0 {
		return SavedHours{}, ErrNotFound
	}
	return out, nil
}
