package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/socialnet/backend/internal/models"
)

// PostgresStore handles notification rows in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the notifications table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS notifications (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			from_user  VARCHAR(64) NOT NULL,
			to_user    VARCHAR(64) NOT NULL,
			type       VARCHAR(16) NOT NULL CHECK (type IN ('follow', 'like')),
			read       BOOLEAN     NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("create notifications: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS notifications_to_user_idx
			ON notifications (to_user, created_at DESC)
	`); err != nil {
		return fmt.Errorf("index notifications: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO notifications (from_user, to_user, type)
		 VALUES ($1, $2, $3)
		 RETURNING id, read, created_at`,
		n.From, n.To, string(n.Type),
	).Scan(&n.ID, &n.Read, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListNotifications(ctx context.Context, to string) ([]models.Notification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, from_user, to_user, type, read, created_at
		 FROM notifications WHERE to_user = $1
		 ORDER BY created_at DESC`, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		var typ string
		if err := rows.Scan(&n.ID, &n.From, &n.To, &typ, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = models.NotificationType(typ)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkNotificationsRead(ctx context.Context, to string) error {
	_, err := s.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE to_user = $1 AND NOT read`, to)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteNotifications(ctx context.Context, to string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM notifications WHERE to_user = $1`, to)
	if err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	return nil
}
