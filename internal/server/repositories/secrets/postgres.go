// Package secrets provides storage for encrypted named secrets.
package secrets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/dbx"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
)

const secretColumns = `id, project_id, name, ciphertext, nonce, auth_tag, created_by, created_at, updated_at`

// PostgresRepository implements secret storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Secret) error {
	query :=
		`INSERT INTO secrets (` + secretColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 `

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.ProjectID, s.Name,
		s.Blob.Ciphertext, s.Blob.Nonce, s.Blob.AuthTag,
		s.CreatedBy, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) get(ctx context.Context, query string, args ...any) (*models.Secret, error) {
	s := &models.Secret{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.ProjectID, &s.Name,
		&s.Blob.Ciphertext, &s.Blob.Nonce, &s.Blob.AuthTag,
		&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, projectID, id string) (*models.Secret, error) {
	query :=
		`SELECT ` + secretColumns + ` FROM secrets
		 WHERE project_id = $1 AND id = $2
		 `
	return r.get(ctx, query, projectID, id)
}

func (r *PostgresRepository) GetByName(ctx context.Context, projectID, name string) (*models.Secret, error) {
	query :=
		`SELECT ` + secretColumns + ` FROM secrets
		 WHERE project_id = $1 AND name = $2
		 `
	return r.get(ctx, query, projectID, name)
}

func (r *PostgresRepository) Update(ctx context.Context, s *models.Secret) error {
	query :=
		`UPDATE secrets SET name = $3, ciphertext = $4, nonce = $5, auth_tag = $6, updated_at = $7
		 WHERE project_id = $1 AND id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, s.ProjectID, s.ID, s.Name,
		s.Blob.Ciphertext, s.Blob.Nonce, s.Blob.AuthTag, s.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, projectID, id string) error {
	query := `DELETE FROM secrets WHERE project_id = $1 AND id = $2`

	res, err := r.db.ExecContext(ctx, query, projectID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// List returns secret metadata ordered by name.
func (r *PostgresRepository) List(ctx context.Context, projectID string) ([]*models.SecretMeta, error) {
	query :=
		`SELECT id, project_id, name, created_by, created_at, updated_at FROM secrets
		 WHERE project_id = $1
		 ORDER BY name
		 `

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to select secrets: %w", err)
	}
	defer rows.Close()

	result := []*models.SecretMeta{}
	for rows.Next() {
		var m models.SecretMeta
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Name, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
