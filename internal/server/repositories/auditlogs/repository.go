package auditlogs

import (
	"context"

	"github.com/dmitrijs2005/hashenv/internal/server/models"
)

// Filter narrows a List call. An empty Environment matches every entry.
type Filter struct {
	ProjectID   string
	Environment models.Environment
	Limit       int
}

// Repository is the append-only audit log.
type Repository interface {
	Append(ctx context.Context, e *models.AuditLogEntry) error
	// List returns matching entries newest first.
	List(ctx context.Context, f Filter) ([]*models.AuditLogEntry, error)
}
