// Package access resolves what a user may do on a project.
//
// Callers check access here first and then call the services, which trust
// the decision and do no authorization of their own.
package access

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/dbx"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/repomanager"
)

var (
	errNotMember    = fmt.Errorf("%w: not owner, not a collaborator", common.ErrForbidden)
	errInsufficient = fmt.Errorf("%w: insufficient permission", common.ErrForbidden)
	errNotOwner     = fmt.Errorf("%w: only the project owner may do this", common.ErrForbidden)
)

// Allows reports whether a grant of level granted satisfies required.
// write implies read; read satisfies only read.
func Allows(granted, required models.Permission) bool {
	switch granted {
	case models.PermissionWrite:
		return required == models.PermissionRead || required == models.PermissionWrite
	case models.PermissionRead:
		return required == models.PermissionRead
	}
	return false
}

// Check applies the owner/member rules to an already loaded project.
func Check(p *models.Project, userID string, required models.Permission) error {
	if userID != "" && p.OwnerID == userID {
		return nil
	}
	m, ok := p.Member(userID)
	if !ok {
		return errNotMember
	}
	if !Allows(m.Permission, required) {
		return errInsufficient
	}
	return nil
}

// Evaluator loads projects and applies Check.
type Evaluator struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
}

func NewEvaluator(db dbx.DBTX, rm repomanager.RepositoryManager) *Evaluator {
	return &Evaluator{db: db, repomanager: rm}
}

// Authorize returns the project when userID holds at least the required
// level on it. A malformed id yields common.ErrValidation and a missing
// project common.ErrorNotFound.
func (e *Evaluator) Authorize(ctx context.Context, userID, projectID string, required models.Permission) (*models.Project, error) {
	if !required.Valid() {
		return nil, fmt.Errorf("%w: unknown permission %q", common.ErrValidation, required)
	}
	if err := models.CheckID("project", projectID); err != nil {
		return nil, err
	}
	p, err := e.repomanager.Projects(e.db).GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := Check(p, userID, required); err != nil {
		return nil, err
	}
	return p, nil
}

// RequireOwner is the stricter gate for membership management and for
// history-rewriting operations on environment files.
func (e *Evaluator) RequireOwner(ctx context.Context, userID, projectID string) (*models.Project, error) {
	if err := models.CheckID("project", projectID); err != nil {
		return nil, err
	}
	p, err := e.repomanager.Projects(e.db).GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if userID == "" || p.OwnerID != userID {
		return nil, errNotOwner
	}
	return p, nil
}
