package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/hashenv/internal/dbx"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/auditlogs"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/envfiles"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/exports"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/panicconfigs"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/projects"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/secrets"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same service
// code can run against a pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Projects(db dbx.DBTX) projects.Repository
	EnvFiles(db dbx.DBTX) envfiles.Repository
	Secrets(db dbx.DBTX) secrets.Repository
	AuditLogs(db dbx.DBTX) auditlogs.Repository
	PanicConfigs(db dbx.DBTX) panicconfigs.Repository
	Exports(db dbx.DBTX) exports.Repository
}
