// Package exports records panic backup documents written to object storage.
package exports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/dbx"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
)

// PostgresRepository implements export storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the export record. Exactly one row must be affected.
func (r *PostgresRepository) Create(ctx context.Context, e *models.Export) error {
	query := `
		INSERT INTO exports (id, user_id, storage_key, created_at)
		VALUES ($1, $2, $3, $4)
	`
	res, err := r.db.ExecContext(ctx, query, e.ID, e.UserID, e.StorageKey, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("wrong rows affected count: %d", n)
	}
	return nil
}

// ListByUser returns the user's exports, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Export, error) {
	query := ` SELECT id, user_id, storage_key, created_at from exports
		WHERE user_id=$1
		ORDER BY created_at DESC
		`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select exports: %w", err)
	}
	defer rows.Close()

	result := []*models.Export{}
	for rows.Next() {
		var item models.Export
		if err := rows.Scan(&item.ID, &item.UserID, &item.StorageKey, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID returns one of the user's exports; other users' exports are not found.
func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.Export, error) {
	query := ` SELECT id, user_id, storage_key, created_at from exports
		WHERE user_id=$1 and id=$2
		`

	result := &models.Export{}
	err := r.db.QueryRowContext(ctx, query, userID, id).Scan(&result.ID, &result.UserID, &result.StorageKey, &result.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select exports: %w", err)
	}
	return result, nil
}
