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
	"github.com/dmitrijs2005/hashenv/internal/server/config"
	"github.com/dmitrijs2005/hashenv/internal/server/metrics"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// EnvFileService manages versioned environment files.
type EnvFileService struct {
	db          dbx.Conn
	repomanager repomanager.RepositoryManager
	vault       vault
	audit       *AuditService
	logger      logging.Logger
	metrics     *metrics.Metrics
	maxRetries  uint64
	retryBase   time.Duration
}

func NewEnvFileService(db dbx.Conn, rm repomanager.RepositoryManager, cipher *cryptox.Cipher,
	audit *AuditService, logger logging.Logger, m *metrics.Metrics, cfg *config.Config) *EnvFileService {
	base := cfg.UploadRetryBaseDelay
	if base <= 0 {
		base = 10 * time.Millisecond
	}
	retries := 0
	if cfg.UploadMaxRetries > 0 {
		retries = cfg.UploadMaxRetries
	}
	return &EnvFileService{
		db:          db,
		repomanager: rm,
		vault:       vault{cipher: cipher, metrics: m, logger: logger},
		audit:       audit,
		logger:      logger,
		metrics:     m,
		maxRetries:  uint64(retries),
		retryBase:   base,
	}
}

func checkEnvironment(env models.Environment) error {
	if !env.Valid() {
		return fmt.Errorf("%w: unknown environment %q", common.ErrValidation, env)
	}
	return nil
}

// Upload stores plaintext as the next version of (projectID, env). Two
// uploads racing for the same version are resolved by retrying the
// read-max-and-insert step with exponential backoff.
func (s *EnvFileService) Upload(ctx context.Context, projectID string, env models.Environment, plaintext []byte, actor string) (*models.EnvFileMeta, error) {
	if err := checkEnvironment(env); err != nil {
		return nil, err
	}
	if err := checkSize(plaintext); err != nil {
		return nil, err
	}

	blob, err := s.vault.seal(plaintext)
	if err != nil {
		return nil, err
	}

	file := &models.EnvFile{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Environment: env,
		Blob:        blob,
		UploadedBy:  actor,
	}

	backoff := retry.WithMaxRetries(s.maxRetries,
		retry.WithCappedDuration(time.Second, retry.WithJitterPercent(20, retry.NewExponential(s.retryBase))))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.db.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.EnvFiles(tx)

			highest, err := repo.MaxVersion(ctx, projectID, env)
			if err != nil {
				return err
			}
			file.Version = highest + 1
			file.CreatedAt = time.Now().UTC()

			return repo.Insert(ctx, file)
		})
		if errors.Is(err, common.ErrConflict) {
			s.metrics.UploadConflict()
			s.logger.Debug(ctx, "upload version conflict, retrying",
				"project_id", projectID,
				"environment", env,
				"version", file.Version)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error uploading env file: %w", err)
	}

	s.audit.Record(ctx, AuditEvent{
		ProjectID:   projectID,
		Actor:       actor,
		Action:      models.AuditUpload,
		Environment: env,
		EnvFileID:   file.ID,
		Version:     models.IntPtr(file.Version),
		Metadata:    models.AuditMetadata{NewVersion: models.IntPtr(file.Version)},
	})

	return file.Meta(), nil
}

// Download decrypts one version, or the latest when version is nil.
// The returned plaintext must not be persisted or logged by the caller.
func (s *EnvFileService) Download(ctx context.Context, projectID string, env models.Environment, version *int, actor string) ([]byte, *models.EnvFileMeta, error) {
	if err := checkEnvironment(env); err != nil {
		return nil, nil, err
	}

	repo := s.repomanager.EnvFiles(s.db)

	var (
		file *models.EnvFile
		err  error
	)
	if version == nil {
		file, err = repo.GetLatest(ctx, projectID, env)
	} else {
		if *version < 1 {
			return nil, nil, fmt.Errorf("%w: version must be positive", common.ErrValidation)
		}
		file, err = repo.GetByVersion(ctx, projectID, env, *version)
	}
	if err != nil {
		return nil, nil, err
	}

	plaintext, err := s.vault.open(ctx, file.Blob, projectID, file.ID)
	if err != nil {
		return nil, nil, err
	}

	s.audit.Record(ctx, AuditEvent{
		ProjectID:   projectID,
		Actor:       actor,
		Action:      models.AuditDownload,
		Environment: env,
		EnvFileID:   file.ID,
		Version:     models.IntPtr(file.Version),
	})

	return plaintext, file.Meta(), nil
}

// EditInPlace replaces the content of an existing version under a fresh
// nonce. The version number does not change.
func (s *EnvFileService) EditInPlace(ctx context.Context, projectID, fileID string, plaintext []byte, actor string) (*models.EnvFileMeta, error) {
	if err := models.CheckID("env file", fileID); err != nil {
		return nil, err
	}
	if err := checkSize(plaintext); err != nil {
		return nil, err
	}

	repo := s.repomanager.EnvFiles(s.db)

	file, err := repo.GetByID(ctx, projectID, fileID)
	if err != nil {
		return nil, err
	}

	blob, err := s.vault.seal(plaintext)
	if err != nil {
		return nil, err
	}

	if err := repo.UpdateBlob(ctx, projectID, fileID, blob); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEvent{
		ProjectID:   projectID,
		Actor:       actor,
		Action:      models.AuditEdit,
		Environment: file.Environment,
		EnvFileID:   file.ID,
		Version:     models.IntPtr(file.Version),
		Metadata: models.AuditMetadata{
			OldVersion: models.IntPtr(file.Version),
			NewVersion: models.IntPtr(file.Version),
		},
	})

	return file.Meta(), nil
}

// Delete removes one version. The audit entry is written before the row is
// removed, and the removal proceeds even if that write failed.
func (s *EnvFileService) Delete(ctx context.Context, projectID, fileID, actor string) error {
	if err := models.CheckID("env file", fileID); err != nil {
		return err
	}
	repo := s.repomanager.EnvFiles(s.db)

	file, err := repo.GetByID(ctx, projectID, fileID)
	if err != nil {
		return err
	}

	if !s.audit.Record(ctx, AuditEvent{
		ProjectID:   projectID,
		Actor:       actor,
		Action:      models.AuditDelete,
		Environment: file.Environment,
		EnvFileID:   file.ID,
		Version:     models.IntPtr(file.Version),
		Metadata:    models.AuditMetadata{OldVersion: models.IntPtr(file.Version)},
	}) {
		s.logger.Warn(ctx, "deleting env file without audit entry",
			"project_id", projectID,
			"env_file_id", fileID)
	}

	return repo.Delete(ctx, projectID, fileID)
}

// ListVersions returns metadata for all versions, optionally for one
// environment, ordered by environment then version descending.
func (s *EnvFileService) ListVersions(ctx context.Context, projectID string, env models.Environment) ([]*models.EnvFileMeta, error) {
	if env != "" {
		if err := checkEnvironment(env); err != nil {
			return nil, err
		}
	}
	return s.repomanager.EnvFiles(s.db).List(ctx, projectID, env)
}
