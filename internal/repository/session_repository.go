package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"beefline/api/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, user_id, device_id, device_name, refresh_token_hash,
	ip_address, user_agent, created_at, last_seen_at, expires_at`

// Create upserts on (user, device) so a device logging in again replaces
// its own session instead of accumulating rows.
func (r *SessionRepository) Create(ctx context.Context, session models.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_sessions (
			id, user_id, device_id, device_name, refresh_token_hash,
			ip_address, user_agent, created_at, last_seen_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW(), $8)
		ON CONFLICT (user_id, device_id)
		DO UPDATE SET
			id = EXCLUDED.id,
			refresh_token_hash = EXCLUDED.refresh_token_hash,
			ip_address = EXCLUDED.ip_address,
			user_agent = EXCLUDED.user_agent,
			last_seen_at = NOW(),
			expires_at = EXCLUDED.expires_at
	`,
		session.ID,
		session.UserID,
		session.DeviceID,
		session.DeviceName,
		session.RefreshTokenHash,
		session.IPAddress,
		session.UserAgent,
		session.ExpiresAt,
	)
	return err
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (models.Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM user_sessions WHERE id = $1 AND expires_at > NOW()`,
		id,
	)
	return scanSession(row)
}

func (r *SessionRepository) GetByUserDevice(ctx context.Context, userID, deviceID string) (models.Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM user_sessions WHERE user_id = $1 AND device_id = $2 AND expires_at > NOW()`,
		userID, deviceID,
	)
	return scanSession(row)
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]models.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM user_sessions WHERE user_id = $1 AND expires_at > NOW() ORDER BY last_seen_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *SessionRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_sessions WHERE user_id = $1 AND expires_at > NOW()`,
		userID,
	).Scan(&count)
	return count, err
}

// DeleteOldest keeps the most recently seen sessions and drops the rest.
func (r *SessionRepository) DeleteOldest(ctx context.Context, userID string, keepLatest int) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM user_sessions
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM user_sessions
			WHERE user_id = $1
			ORDER BY last_seen_at DESC
			LIMIT $2
		)
	`, userID, keepLatest)
	return err
}

func (r *SessionRepository) Touch(ctx context.Context, id, ipAddress, userAgent string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE user_sessions SET last_seen_at = NOW(), ip_address = $2, user_agent = $3 WHERE id = $1`,
		id, ipAddress, userAgent,
	)
	return err
}

func (r *SessionRepository) DeleteByUserDevice(ctx context.Context, userID, deviceID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM user_sessions WHERE user_id = $1 AND device_id = $2`,
		userID, deviceID,
	)
	return err
}

func scanSession(row pgx.Row) (models.Session, error) {
	var s models.Session
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.DeviceID,
		&s.DeviceName,
		&s.RefreshTokenHash,
		&s.IPAddress,
		&s.UserAgent,
		&s.CreatedAt,
		&s.LastSeenAt,
		&s.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}
	return s, nil
}
