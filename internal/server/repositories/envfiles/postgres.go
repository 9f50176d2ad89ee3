// Package envfiles provides storage for encrypted, versioned environment files.
package envfiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/cryptox"
	"github.com/dmitrijs2005/hashenv/internal/dbx"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const fileColumns = `id, project_id, environment, version, ciphertext, nonce, auth_tag, uploaded_by, created_at`

// PostgresRepository implements env file storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, f *models.EnvFile) error {
	query :=
		`INSERT INTO env_files (` + fileColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 `

	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.ProjectID, f.Environment, f.Version,
		f.Blob.Ciphertext, f.Blob.Nonce, f.Blob.AuthTag,
		f.UploadedBy, f.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) MaxVersion(ctx context.Context, projectID string, env models.Environment) (int, error) {
	query :=
		`SELECT COALESCE(MAX(version), 0) FROM env_files
		 WHERE project_id = $1 AND environment = $2
		 `

	var v int
	if err := r.db.QueryRowContext(ctx, query, projectID, env).Scan(&v); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func scanFile(row interface{ Scan(...any) error }) (*models.EnvFile, error) {
	f := &models.EnvFile{}
	err := row.Scan(&f.ID, &f.ProjectID, &f.Environment, &f.Version,
		&f.Blob.Ciphertext, &f.Blob.Nonce, &f.Blob.AuthTag,
		&f.UploadedBy, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.EnvFile, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, projectID, id string) (*models.EnvFile, error) {
	query :=
		`SELECT ` + fileColumns + ` FROM env_files
		 WHERE project_id = $1 AND id = $2
		 `
	return r.getOne(ctx, query, projectID, id)
}

func (r *PostgresRepository) GetLatest(ctx context.Context, projectID string, env models.Environment) (*models.EnvFile, error) {
	query :=
		`SELECT ` + fileColumns + ` FROM env_files
		 WHERE project_id = $1 AND environment = $2
		 ORDER BY version DESC
		 LIMIT 1
		 `
	return r.getOne(ctx, query, projectID, env)
}

func (r *PostgresRepository) GetByVersion(ctx context.Context, projectID string, env models.Environment, version int) (*models.EnvFile, error) {
	query :=
		`SELECT ` + fileColumns + ` FROM env_files
		 WHERE project_id = $1 AND environment = $2 AND version = $3
		 `
	return r.getOne(ctx, query, projectID, env, version)
}

// UpdateBlob replaces the stored blob; version and timestamps are unchanged.
func (r *PostgresRepository) UpdateBlob(ctx context.Context, projectID, id string, blob cryptox.Blob) error {
	query :=
		`UPDATE env_files SET ciphertext = $3, nonce = $4, auth_tag = $5
		 WHERE project_id = $1 AND id = $2
		 `
	res, err := r.db.ExecContext(ctx, query, projectID, id, blob.Ciphertext, blob.Nonce, blob.AuthTag)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, projectID, id string) error {
	query := `DELETE FROM env_files WHERE project_id = $1 AND id = $2`

	res, err := r.db.ExecContext(ctx, query, projectID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, projectID string, env models.Environment) ([]*models.EnvFileMeta, error) {
	b := psql.Select("id", "project_id", "environment", "version", "uploaded_by", "created_at").
		From("env_files").
		Where(sq.Eq{"project_id": projectID}).
		OrderBy("environment ASC", "version DESC")
	if env != "" {
		b = b.Where(sq.Eq{"environment": env})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.listMeta(ctx, query, args...)
}

func (r *PostgresRepository) listMeta(ctx context.Context, query string, args ...any) ([]*models.EnvFileMeta, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select env files: %w", err)
	}
	defer rows.Close()

	result := []*models.EnvFileMeta{}
	for rows.Next() {
		var m models.EnvFileMeta
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Environment, &m.Version, &m.UploadedBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ListLatest(ctx context.Context, projectID string) ([]*models.EnvFile, error) {
	query :=
		`SELECT DISTINCT ON (environment) ` + fileColumns + ` FROM env_files
		 WHERE project_id = $1
		 ORDER BY environment ASC, version DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to select env files: %w", err)
	}
	defer rows.Close()

	var result []*models.EnvFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteByProject removes every version of every environment and returns
// what was removed.
func (r *PostgresRepository) DeleteByProject(ctx context.Context, projectID string) ([]*models.EnvFileMeta, error) {
	query :=
		`DELETE FROM env_files
		 WHERE project_id = $1
		 RETURNING id, project_id, environment, version, uploaded_by, created_at
		 `
	return r.listMeta(ctx, query, projectID)
}
