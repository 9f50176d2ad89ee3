package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/dbx"
	"github.com/dmitrijs2005/hashenv/internal/logging"
	"github.com/dmitrijs2005/hashenv/internal/server/access"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ProjectInput is the payload for creating a project.
type ProjectInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

// MemberInput grants a collaborator access.
type MemberInput struct {
	UserID     string            `json:"userId" validate:"required,max=128"`
	Permission models.Permission `json:"permission" validate:"required,oneof=read write"`
}

// ProjectService manages projects and their collaborators. Membership
// changes are restricted to the project owner.
type ProjectService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	access      *access.Evaluator
	logger      logging.Logger
}

func NewProjectService(db dbx.DBTX, rm repomanager.RepositoryManager, evaluator *access.Evaluator, logger logging.Logger) *ProjectService {
	return &ProjectService{db: db, repomanager: rm, access: evaluator, logger: logger}
}

// Create makes ownerID the immutable owner of a new project.
func (s *ProjectService) Create(ctx context.Context, ownerID string, in ProjectInput) (*models.Project, error) {
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	p := &models.Project{
		ID:        uuid.NewString(),
		Name:      in.Name,
		OwnerID:   ownerID,
		Members:   []models.Member{},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repomanager.Projects(s.db).Create(ctx, p); err != nil {
		return nil, fmt.Errorf("error creating project: %w", err)
	}

	s.logger.Info(ctx, "project created", "project_id", p.ID, "owner_id", ownerID)
	return p, nil
}

// Get returns a project the user can at least read.
func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (*models.Project, error) {
	return s.access.Authorize(ctx, userID, projectID, models.PermissionRead)
}

func (s *ProjectService) ListOwned(ctx context.Context, userID string) ([]*models.Project, error) {
	return s.repomanager.Projects(s.db).ListOwnedBy(ctx, userID)
}

// ListAccessible returns owned projects and those shared with the user.
func (s *ProjectService) ListAccessible(ctx context.Context, userID string) ([]*models.Project, error) {
	return s.repomanager.Projects(s.db).ListAccessibleBy(ctx, userID)
}

// AddMember grants or replaces a collaborator's permission.
func (s *ProjectService) AddMember(ctx context.Context, actor, projectID string, in MemberInput) (*models.Project, error) {
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	p, err := s.access.RequireOwner(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if in.UserID == p.OwnerID {
		return nil, fmt.Errorf("%w: the owner cannot be added as a collaborator", common.ErrValidation)
	}

	repo := s.repomanager.Projects(s.db)
	if err := repo.UpsertMember(ctx, projectID, models.Member{UserID: in.UserID, Permission: in.Permission}); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "collaborator granted",
		"project_id", projectID,
		"user_id", in.UserID,
		"permission", in.Permission)
	return repo.GetByID(ctx, projectID)
}

// RemoveMember revokes a collaborator. Removing an absent user is not an error.
func (s *ProjectService) RemoveMember(ctx context.Context, actor, projectID, userID string) (*models.Project, error) {
	if _, err := s.access.RequireOwner(ctx, actor, projectID); err != nil {
		return nil, err
	}

	repo := s.repomanager.Projects(s.db)
	if err := repo.RemoveMember(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return repo.GetByID(ctx, projectID)
}
