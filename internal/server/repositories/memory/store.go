// Package memory is a process-local RepositoryManager. Every repository it
// vends shares one Store, so the db argument of the factories is ignored.
// Data does not survive a restart.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/dmitrijs2005/hashenv/internal/dbx"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/auditlogs"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/envfiles"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/exports"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/panicconfigs"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/projects"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/secrets"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/users"
)

var errNoSQL = errors.New("memory store does not execute SQL")

// Store holds all tables behind a single mutex.
type Store struct {
	mu           sync.RWMutex
	users        map[string]models.User
	projects     map[string]*models.Project
	envFiles     map[string]*models.EnvFile
	secrets      map[string]*models.Secret
	audit        []*models.AuditLogEntry
	panicConfigs map[string]models.UserPanicConfig
	exports      []*models.Export
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:        make(map[string]models.User),
		projects:     make(map[string]*models.Project),
		envFiles:     make(map[string]*models.EnvFile),
		secrets:      make(map[string]*models.Secret),
		panicConfigs: make(map[string]models.UserPanicConfig),
	}
}

var _ repomanager.RepositoryManager = (*Store)(nil)

func (s *Store) RunMigrations(context.Context, *sql.DB) error { return nil }

func (s *Store) Users(dbx.DBTX) users.Repository               { return (*userRepo)(s) }
func (s *Store) Projects(dbx.DBTX) projects.Repository         { return (*projectRepo)(s) }
func (s *Store) EnvFiles(dbx.DBTX) envfiles.Repository         { return (*envFileRepo)(s) }
func (s *Store) Secrets(dbx.DBTX) secrets.Repository           { return (*secretRepo)(s) }
func (s *Store) AuditLogs(dbx.DBTX) auditlogs.Repository       { return (*auditRepo)(s) }
func (s *Store) PanicConfigs(dbx.DBTX) panicconfigs.Repository { return (*panicConfigRepo)(s) }
func (s *Store) Exports(dbx.DBTX) exports.Repository           { return (*exportRepo)(s) }

// Conn satisfies dbx.Conn for services running on the memory store.
// WithinTx runs fn directly; there is no rollback.
type Conn struct{}

var _ dbx.Conn = Conn{}

func (Conn) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, errNoSQL
}

func (Conn) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errNoSQL
}

// QueryRowContext returns nil; callers must not scan it.
func (Conn) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}

func (c Conn) WithinTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, c)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
