// Package auditlogs provides storage for the append-only audit log.
package auditlogs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/dmitrijs2005/hashenv/internal/dbx"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository implements the audit log over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresRepository) Append(ctx context.Context, e *models.AuditLogEntry) error {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	var version sql.NullInt64
	if e.Version != nil {
		version = sql.NullInt64{Int64: int64(*e.Version), Valid: true}
	}

	query :=
		`INSERT INTO audit_logs (id, project_id, env_file_id, environment, version, action,
		                         performed_by, performed_by_name, performed_by_email, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 `

	_, err = r.db.ExecContext(ctx, query,
		e.ID, e.ProjectID, nullString(e.EnvFileID), nullString(string(e.Environment)), version, e.Action,
		e.PerformedBy, e.PerformedByName, e.PerformedByEmail, meta, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*models.AuditLogEntry, error) {
	b := psql.Select("id", "project_id", "env_file_id", "environment", "version", "action",
		"performed_by", "performed_by_name", "performed_by_email", "metadata", "created_at").
		From("audit_logs").
		Where(sq.Eq{"project_id": f.ProjectID}).
		OrderBy("created_at DESC", "id DESC")
	if f.Environment != "" {
		b = b.Where(sq.Eq{"environment": f.Environment})
	}
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select audit logs: %w", err)
	}
	defer rows.Close()

	result := []*models.AuditLogEntry{}
	for rows.Next() {
		var (
			e       models.AuditLogEntry
			fileID  sql.NullString
			env     sql.NullString
			version sql.NullInt64
			meta    []byte
		)
		if err := rows.Scan(&e.ID, &e.ProjectID, &fileID, &env, &version, &e.Action,
			&e.PerformedBy, &e.PerformedByName, &e.PerformedByEmail, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.EnvFileID = fileID.String
		e.Environment = models.Environment(env.String)
		if version.Valid {
			e.Version = models.IntPtr(int(version.Int64))
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
