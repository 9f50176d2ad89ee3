package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/cryptox"
	"github.com/dmitrijs2005/hashenv/internal/dbx"
	"github.com/dmitrijs2005/hashenv/internal/logging"
	"github.com/dmitrijs2005/hashenv/internal/server/metrics"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// SecretInput is the payload for creating a named secret.
type SecretInput struct {
	Name  string `json:"name" validate:"required,max=128,printascii"`
	Value string `json:"value"`
}

// SecretUpdate changes the name, the value, or both. Nil fields are kept.
type SecretUpdate struct {
	Name  *string `json:"name" validate:"omitnil,required,max=128,printascii"`
	Value *string `json:"value"`
}

// SecretService manages named secrets. Unlike environment files they have
// no history: updates overwrite in place.
type SecretService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	vault       vault
	audit       *AuditService
}

func NewSecretService(db dbx.DBTX, rm repomanager.RepositoryManager, cipher *cryptox.Cipher,
	audit *AuditService, logger logging.Logger, m *metrics.Metrics) *SecretService {
	return &SecretService{
		db:          db,
		repomanager: rm,
		vault:       vault{cipher: cipher, metrics: m, logger: logger},
		audit:       audit,
	}
}

func (s *SecretService) record(ctx context.Context, projectID, actor string, action models.AuditAction, name string) {
	s.audit.Record(ctx, AuditEvent{
		ProjectID: projectID,
		Actor:     actor,
		Action:    action,
		Metadata:  models.AuditMetadata{FileName: name},
	})
}

// Create stores a new secret. A taken name yields common.ErrConflict.
func (s *SecretService) Create(ctx context.Context, projectID, actor string, in SecretInput) (*models.SecretMeta, error) {
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	if err := checkSize([]byte(in.Value)); err != nil {
		return nil, err
	}

	blob, err := s.vault.seal([]byte(in.Value))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	secret := &models.Secret{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Name:      in.Name,
		Blob:      blob,
		CreatedBy: actor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repomanager.Secrets(s.db).Create(ctx, secret); err != nil {
		return nil, err
	}

	s.record(ctx, projectID, actor, models.AuditUpload, secret.Name)
	return secret.Meta(), nil
}

// Update renames and/or re-encrypts a secret. Renaming onto another
// secret's name yields common.ErrConflict.
func (s *SecretService) Update(ctx context.Context, projectID, secretID, actor string, in SecretUpdate) (*models.SecretMeta, error) {
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	if err := models.CheckID("secret", secretID); err != nil {
		return nil, err
	}

	repo := s.repomanager.Secrets(s.db)

	secret, err := repo.GetByID(ctx, projectID, secretID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && *in.Name != secret.Name {
		other, err := repo.GetByName(ctx, projectID, *in.Name)
		switch {
		case err == nil && other.ID != secret.ID:
			return nil, fmt.Errorf("%w: secret %q already exists", common.ErrConflict, *in.Name)
		case err != nil && !errors.Is(err, common.ErrorNotFound):
			return nil, err
		}
		secret.Name = *in.Name
	}

	if in.Value != nil {
		if err := checkSize([]byte(*in.Value)); err != nil {
			return nil, err
		}
		blob, err := s.vault.seal([]byte(*in.Value))
		if err != nil {
			return nil, err
		}
		secret.Blob = blob
	}

	secret.UpdatedAt = time.Now().UTC()
	if err := repo.Update(ctx, secret); err != nil {
		return nil, err
	}

	s.record(ctx, projectID, actor, models.AuditEdit, secret.Name)
	return secret.Meta(), nil
}

// Delete removes a secret.
func (s *SecretService) Delete(ctx context.Context, projectID, secretID, actor string) error {
	if err := models.CheckID("secret", secretID); err != nil {
		return err
	}
	repo := s.repomanager.Secrets(s.db)

	secret, err := repo.GetByID(ctx, projectID, secretID)
	if err != nil {
		return err
	}
	if err := repo.Delete(ctx, projectID, secretID); err != nil {
		return err
	}

	s.record(ctx, projectID, actor, models.AuditDelete, secret.Name)
	return nil
}

// Get decrypts a secret. The plaintext must not be persisted or logged by
// the caller.
func (s *SecretService) Get(ctx context.Context, projectID, secretID, actor string) (*models.SecretMeta, []byte, error) {
	if err := models.CheckID("secret", secretID); err != nil {
		return nil, nil, err
	}
	secret, err := s.repomanager.Secrets(s.db).GetByID(ctx, projectID, secretID)
	if err != nil {
		return nil, nil, err
	}

	plaintext, err := s.vault.open(ctx, secret.Blob, projectID, secret.ID)
	if err != nil {
		return nil, nil, err
	}

	s.record(ctx, projectID, actor, models.AuditAccess, secret.Name)
	return secret.Meta(), plaintext, nil
}

// List returns metadata of all secrets of a project, ordered by name.
func (s *SecretService) List(ctx context.Context, projectID string) ([]*models.SecretMeta, error) {
	return s.repomanager.Secrets(s.db).List(ctx, projectID)
}
