// Package projects provides storage for projects and their membership.
package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/dbx"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
)

// PostgresRepository implements project storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Project) error {
	query :=
		`INSERT INTO projects (id, name, owner_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 `

	if _, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.OwnerID, p.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query :=
		`SELECT id, name, owner_id, created_at FROM projects
		 WHERE id = $1
		 `

	p := &models.Project{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.OwnerID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	members, err := r.members(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Members = members

	return p, nil
}

func (r *PostgresRepository) members(ctx context.Context, projectID string) ([]models.Member, error) {
	query :=
		`SELECT user_id, permission FROM project_members
		 WHERE project_id = $1
		 ORDER BY user_id
		 `

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to select members: %w", err)
	}
	defer rows.Close()

	result := []models.Member{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.UserID, &m.Permission); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListOwnedBy returns the projects owned by ownerID, oldest first.
// Members are not loaded.
func (r *PostgresRepository) ListOwnedBy(ctx context.Context, ownerID string) ([]*models.Project, error) {
	query :=
		`SELECT id, name, owner_id, created_at FROM projects
		 WHERE owner_id = $1
		 ORDER BY created_at, id
		 `
	return r.list(ctx, query, ownerID)
}

// ListAccessibleBy returns the projects userID owns or collaborates on.
// Members are not loaded.
func (r *PostgresRepository) ListAccessibleBy(ctx context.Context, userID string) ([]*models.Project, error) {
	query :=
		`SELECT p.id, p.name, p.owner_id, p.created_at FROM projects p
		 WHERE p.owner_id = $1
		    OR EXISTS (SELECT 1 FROM project_members m WHERE m.project_id = p.id AND m.user_id = $1)
		 ORDER BY p.created_at, p.id
		 `
	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select projects: %w", err)
	}
	defer rows.Close()

	var result []*models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.OwnerID, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) UpsertMember(ctx context.Context, projectID string, m models.Member) error {
	query :=
		`INSERT INTO project_members (project_id, user_id, permission)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (project_id, user_id)
		 DO UPDATE SET permission = EXCLUDED.permission
		 `

	if _, err := r.db.ExecContext(ctx, query, projectID, m.UserID, m.Permission); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RemoveMember(ctx context.Context, projectID, userID string) error {
	query := `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`

	if _, err := r.db.ExecContext(ctx, query, projectID, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ClearMembers removes every grant on the project and reports how many were removed.
func (r *PostgresRepository) ClearMembers(ctx context.Context, projectID string) (int64, error) {
	query := `DELETE FROM project_members WHERE project_id = $1`

	res, err := r.db.ExecContext(ctx, query, projectID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
