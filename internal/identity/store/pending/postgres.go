package pending

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rentmeroom/internal/identity/models"
	"rentmeroom/pkg/platform/sentinel"
	"rentmeroom/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, p *models.PendingRegistration) error {
	_, err := tx.Pick(ctx, s.db).ExecContext(ctx, `
		INSERT INTO pending_registrations (email, name, password, code, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			password = EXCLUDED.password,
			code = EXCLUDED.code,
			expires_at = EXCLUDED.expires_at
	`, p.Email, p.Name, p.Password, p.Code, p.ExpiresAt)
	if err != nil {
		return fmt.Errorf("upsert pending registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, email string) (*models.PendingRegistration, error) {
	var p models.PendingRegistration
	err := tx.Pick(ctx, s.db).QueryRowContext(ctx, `
		SELECT email, name, password, code, expires_at FROM pending_registrations WHERE email = $1
	`, email).Scan(&p.Email, &p.Name, &p.Password, &p.Code, &p.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find pending registration: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Delete(ctx context.Context, email string) error {
	if _, err := tx.Pick(ctx, s.db).ExecContext(ctx, `DELETE FROM pending_registrations WHERE email = $1`, email); err != nil {
		return fmt.Errorf("delete pending registration: %w", err)
	}
	return nil
}
