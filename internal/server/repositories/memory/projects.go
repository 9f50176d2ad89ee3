package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
)

type projectRepo Store

func cloneProject(p *models.Project, withMembers bool) *models.Project {
	c := *p
	c.Members = nil
	if withMembers {
		c.Members = append([]models.Member{}, p.Members...)
	}
	return &c
}

func (r *projectRepo) Create(_ context.Context, p *models.Project) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[p.ID]; ok {
		return common.ErrConflict
	}
	s.projects[p.ID] = cloneProject(p, true)
	return nil
}

func (r *projectRepo) GetByID(_ context.Context, id string) (*models.Project, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneProject(p, true), nil
}

func (r *projectRepo) list(match func(*models.Project) bool) []*models.Project {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Project
	for _, p := range s.projects {
		if match(p) {
			out = append(out, cloneProject(p, false))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *projectRepo) ListOwnedBy(_ context.Context, ownerID string) ([]*models.Project, error) {
	return r.list(func(p *models.Project) bool { return p.OwnerID == ownerID }), nil
}

func (r *projectRepo) ListAccessibleBy(_ context.Context, userID string) ([]*models.Project, error) {
	return r.list(func(p *models.Project) bool {
		if p.OwnerID == userID {
			return true
		}
		_, ok := p.Member(userID)
		return ok
	}), nil
}

func (r *projectRepo) UpsertMember(_ context.Context, projectID string, m models.Member) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return common.ErrorNotFound
	}
	for i := range p.Members {
		if p.Members[i].UserID == m.UserID {
			p.Members[i].Permission = m.Permission
			return nil
		}
	}
	p.Members = append(p.Members, m)
	sort.Slice(p.Members, func(i, j int) bool { return p.Members[i].UserID < p.Members[j].UserID })
	return nil
}

func (r *projectRepo) RemoveMember(_ context.Context, projectID, userID string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return nil
	}
	kept := p.Members[:0]
	for _, m := range p.Members {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	p.Members = kept
	return nil
}

func (r *projectRepo) ClearMembers(_ context.Context, projectID string) (int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return 0, nil
	}
	n := int64(len(p.Members))
	p.Members = nil
	return n, nil
}
