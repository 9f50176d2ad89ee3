package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/hashenv/internal/server/models"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/auditlogs"
)

type auditRepo Store

func cloneEntry(e *models.AuditLogEntry) *models.AuditLogEntry {
	c := *e
	c.Version = cloneInt(e.Version)
	c.Metadata.OldVersion = cloneInt(e.Metadata.OldVersion)
	c.Metadata.NewVersion = cloneInt(e.Metadata.NewVersion)
	return &c
}

func (r *auditRepo) Append(_ context.Context, e *models.AuditLogEntry) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audit = append(s.audit, cloneEntry(e))
	return nil
}

func (r *auditRepo) List(_ context.Context, f auditlogs.Filter) ([]*models.AuditLogEntry, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.AuditLogEntry{}
	// Walk backwards so equal timestamps keep newest-appended first.
	for i := len(s.audit) - 1; i >= 0; i-- {
		e := s.audit[i]
		if e.ProjectID != f.ProjectID {
			continue
		}
		if f.Environment != "" && e.Environment != f.Environment {
			continue
		}
		out = append(out, cloneEntry(e))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
