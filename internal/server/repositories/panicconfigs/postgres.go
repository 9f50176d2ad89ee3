// Package panicconfigs provides storage for per-user panic preferences.
package panicconfigs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/dbx"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
)

// PostgresRepository implements panic config storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.UserPanicConfig, error) {
	query :=
		`SELECT user_id, flush_duration, flush_envs, revoke_collaborators, download_envs, ask_confirmation, updated_at
		 FROM user_panic_configs
		 WHERE user_id = $1
		 `

	c := &models.UserPanicConfig{}
	var flush sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&c.UserID, &flush,
		&c.PanicButton.FlushEnvs, &c.PanicButton.RevokeCollaborators,
		&c.PanicButton.DownloadEnvs, &c.PanicButton.AskConfirmation, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if flush.Valid {
		c.FlushDuration = models.IntPtr(int(flush.Int64))
	}
	return c, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, c *models.UserPanicConfig) error {
	query :=
		`INSERT INTO user_panic_configs (user_id, flush_duration, flush_envs, revoke_collaborators, download_envs, ask_confirmation, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id)
		 DO UPDATE SET flush_duration = EXCLUDED.flush_duration,
		               flush_envs = EXCLUDED.flush_envs,
		               revoke_collaborators = EXCLUDED.revoke_collaborators,
		               download_envs = EXCLUDED.download_envs,
		               ask_confirmation = EXCLUDED.ask_confirmation,
		               updated_at = EXCLUDED.updated_at
		 `

	var flush sql.NullInt64
	if c.FlushDuration != nil {
		flush = sql.NullInt64{Int64: int64(*c.FlushDuration), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query, c.UserID, flush,
		c.PanicButton.FlushEnvs, c.PanicButton.RevokeCollaborators,
		c.PanicButton.DownloadEnvs, c.PanicButton.AskConfirmation, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
