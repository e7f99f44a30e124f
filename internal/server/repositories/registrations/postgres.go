package registrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bidmarket/internal/common"
	"github.com/dmitrijs2005/bidmarket/internal/dbx"
	"github.com/dmitrijs2005/bidmarket/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, reg *models.PendingRegistration) error {

	query :=
		`INSERT INTO pending_registrations (email, name, role, salt, password_hash, code, expires_at, attempts)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (email) DO UPDATE SET
		   name = EXCLUDED.name, role = EXCLUDED.role, salt = EXCLUDED.salt,
		   password_hash = EXCLUDED.password_hash, code = EXCLUDED.code, expires_at = EXCLUDED.expires_at,
		   attempts = EXCLUDED.attempts
		 `

	_, err := r.db.ExecContext(ctx, query,
		reg.Email, reg.Name, reg.Role, reg.Salt, reg.PasswordHash, reg.Code, reg.ExpiresAt, reg.Attempts)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, email string) (*models.PendingRegistration, error) {
	query := `SELECT email, name, role, salt, password_hash, code, expires_at, attempts
		FROM pending_registrations WHERE email = $1`

	reg := &models.PendingRegistration{}
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&reg.Email, &reg.Name, &reg.Role, &reg.Salt, &reg.PasswordHash, &reg.Code, &reg.ExpiresAt, &reg.Attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return reg, nil
}

func (r *PostgresRepository) AddFailedAttempt(ctx context.Context, email string) (int, error) {
	query := `UPDATE pending_registrations SET attempts = attempts + 1
		WHERE email = $1 RETURNING attempts`

	var n int
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_registrations WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
