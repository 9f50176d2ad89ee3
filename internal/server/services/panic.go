package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/cryptox"
	"github.com/dmitrijs2005/hashenv/internal/dbx"
	"github.com/dmitrijs2005/hashenv/internal/logging"
	"github.com/dmitrijs2005/hashenv/internal/server/config"
	"github.com/dmitrijs2005/hashenv/internal/server/metrics"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
	"github.com/dmitrijs2005/hashenv/internal/server/objectstore"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// PanicConfigInput replaces a user's panic preferences.
type PanicConfigInput struct {
	FlushDuration *int               `json:"flushDuration"`
	PanicButton   models.PanicButton `json:"panicButton"`
}

// PanicConfigService reads and writes per-user panic preferences.
type PanicConfigService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	minHours    int
	maxHours    int
}

func NewPanicConfigService(db dbx.DBTX, rm repomanager.RepositoryManager, cfg *config.Config) *PanicConfigService {
	return &PanicConfigService{
		db:          db,
		repomanager: rm,
		minHours:    cfg.PanicFlushMinHours,
		maxHours:    cfg.PanicFlushMaxHours,
	}
}

// Get returns the user's configuration, storing the safe defaults on first use.
func (s *PanicConfigService) Get(ctx context.Context, userID string) (*models.UserPanicConfig, error) {
	repo := s.repomanager.PanicConfigs(s.db)

	c, err := repo.Get(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	c = models.DefaultPanicConfig(userID)
	c.UpdatedAt = time.Now().UTC()
	if err := repo.Upsert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update validates and stores a new configuration.
func (s *PanicConfigService) Update(ctx context.Context, userID string, in PanicConfigInput) (*models.UserPanicConfig, error) {
	if in.FlushDuration != nil {
		rule := fmt.Sprintf("min=%d,max=%d", s.minHours, s.maxHours)
		if err := validate.Var(*in.FlushDuration, rule); err != nil {
			return nil, fmt.Errorf("%w: flushDuration must be between %d and %d hours", common.ErrValidation, s.minHours, s.maxHours)
		}
	}

	c := &models.UserPanicConfig{
		UserID:        userID,
		FlushDuration: in.FlushDuration,
		PanicButton:   in.PanicButton,
		UpdatedAt:     time.Now().UTC(),
	}
	if err := s.repomanager.PanicConfigs(s.db).Upsert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// BackupStore receives panic export documents.
type BackupStore interface {
	Put(ctx context.Context, key string, body []byte) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// PanicStep reports one sub-action of a panic run.
type PanicStep struct {
	Requested bool   `json:"requested"`
	Succeeded bool   `json:"succeeded"`
	Affected  int    `json:"affected"`
	Error     string `json:"error,omitempty"`
}

// PanicExportEntry reports one project/environment of the export.
type PanicExportEntry struct {
	ProjectID   string             `json:"projectId"`
	ProjectName string             `json:"projectName"`
	Environment models.Environment `json:"environment"`
	Version     int                `json:"version"`
	Succeeded   bool               `json:"succeeded"`
	Error       string             `json:"error,omitempty"`
}

// PanicResult is the outcome of a panic run. Each step is reported on its own.
type PanicResult struct {
	Download      PanicStep          `json:"downloadEnvs"`
	Flush         PanicStep          `json:"flushEnvs"`
	Revoke        PanicStep          `json:"revokeCollaborators"`
	ExportEntries []PanicExportEntry `json:"exportEntries,omitempty"`
	Export        string             `json:"export,omitempty"`
	ExportKey     string             `json:"exportKey,omitempty"`
	ExportURL     string             `json:"exportUrl,omitempty"`
	ExportError   string             `json:"exportError,omitempty"`
	RanAt         time.Time          `json:"ranAt"`
}

// PanicService runs the panic cascade over the projects a user owns.
// Projects the user merely collaborates on are never touched.
type PanicService struct {
	db           dbx.DBTX
	repomanager  repomanager.RepositoryManager
	configs      *PanicConfigService
	vault        vault
	audit        *AuditService
	backups      BackupStore
	logger       logging.Logger
	metrics      *metrics.Metrics
	auditFlushes bool
}

// NewPanicService builds a PanicService. backups may be nil, in which case
// exports are only returned to the caller.
func NewPanicService(db dbx.DBTX, rm repomanager.RepositoryManager, configs *PanicConfigService,
	cipher *cryptox.Cipher, audit *AuditService, backups BackupStore,
	logger logging.Logger, m *metrics.Metrics, cfg *config.Config) *PanicService {
	return &PanicService{
		db:           db,
		repomanager:  rm,
		configs:      configs,
		vault:        vault{cipher: cipher, metrics: m, logger: logger},
		audit:        audit,
		backups:      backups,
		logger:       logger,
		metrics:      m,
		auditFlushes: cfg.PanicAuditFlush,
	}
}

// Run executes the configured sub-actions in the fixed order download,
// flush, revoke. A failing step does not stop the later ones. When the
// configuration asks for confirmation and confirm is false, nothing runs
// and common.ErrUnconfirmed is returned.
func (s *PanicService) Run(ctx context.Context, userID string, confirm bool) (*PanicResult, error) {
	cfg, err := s.configs.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cfg.PanicButton.AskConfirmation && !confirm {
		return nil, common.ErrUnconfirmed
	}

	owned, err := s.repomanager.Projects(s.db).ListOwnedBy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing owned projects: %w", err)
	}

	res := &PanicResult{RanAt: time.Now().UTC()}
	log := s.logger.With("user_id", userID, "projects", len(owned))
	log.Warn(ctx, "panic cascade started",
		"download", cfg.PanicButton.DownloadEnvs,
		"flush", cfg.PanicButton.FlushEnvs,
		"revoke", cfg.PanicButton.RevokeCollaborators)

	if cfg.PanicButton.DownloadEnvs {
		s.download(ctx, userID, owned, res)
		s.metrics.PanicAction("download", res.Download.Succeeded)
	}
	if cfg.PanicButton.FlushEnvs {
		res.Flush = s.flush(ctx, userID, owned)
		s.metrics.PanicAction("flush", res.Flush.Succeeded)
	}
	if cfg.PanicButton.RevokeCollaborators {
		res.Revoke = s.revoke(ctx, owned)
		s.metrics.PanicAction("revoke", res.Revoke.Succeeded)
	}

	log.Warn(ctx, "panic cascade finished",
		"download_ok", res.Download.Succeeded,
		"flush_ok", res.Flush.Succeeded,
		"revoke_ok", res.Revoke.Succeeded)
	return res, nil
}

// PanicExportBlock is one decrypted environment file in a backup document.
type PanicExportBlock struct {
	ProjectName string
	Environment models.Environment
	Version     int
	Content     []byte
}

// download decrypts the latest version of every environment of every owned
// project into one document.
func (s *PanicService) download(ctx context.Context, userID string, owned []*models.Project, res *PanicResult) {
	res.Download.Requested = true

	var (
		blocks []PanicExportBlock
		failed int
	)
	for _, p := range owned {
		files, err := s.repomanager.EnvFiles(s.db).ListLatest(ctx, p.ID)
		if err != nil {
			failed++
			res.ExportEntries = append(res.ExportEntries, PanicExportEntry{
				ProjectID: p.ID, ProjectName: p.Name, Error: err.Error(),
			})
			continue
		}
		for _, f := range files {
			entry := PanicExportEntry{
				ProjectID:   p.ID,
				ProjectName: p.Name,
				Environment: f.Environment,
				Version:     f.Version,
			}
			plaintext, err := s.vault.open(ctx, f.Blob, p.ID, f.ID)
			if err != nil {
				failed++
				entry.Error = publicError(err)
			} else {
				entry.Succeeded = true
				blocks = append(blocks, PanicExportBlock{
					ProjectName: p.Name,
					Environment: f.Environment,
					Version:     f.Version,
					Content:     plaintext,
				})
			}
			res.ExportEntries = append(res.ExportEntries, entry)
		}
	}

	res.Export = RenderPanicExport(res.RanAt, blocks)
	for _, b := range blocks {
		common.WipeByteArray(b.Content)
	}

	res.Download.Affected = len(blocks)
	res.Download.Succeeded = failed == 0
	if failed > 0 {
		res.Download.Error = fmt.Sprintf("%d of %d environments could not be exported", failed, len(res.ExportEntries))
	}

	if s.backups != nil {
		s.upload(ctx, userID, res)
	}
}

func (s *PanicService) upload(ctx context.Context, userID string, res *PanicResult) {
	key := objectstore.ExportKey(userID, res.RanAt)
	if err := s.backups.Put(ctx, key, []byte(res.Export)); err != nil {
		s.logger.Error(ctx, "panic backup upload failed", "user_id", userID, "error", err)
		res.ExportError = "backup upload failed"
		return
	}

	export := &models.Export{ID: uuid.NewString(), UserID: userID, StorageKey: key, CreatedAt: res.RanAt}
	if err := s.repomanager.Exports(s.db).Create(ctx, export); err != nil {
		s.logger.Error(ctx, "panic backup record failed", "user_id", userID, "error", err)
	}

	url, err := s.backups.PresignGet(ctx, key)
	if err != nil {
		s.logger.Error(ctx, "panic backup presign failed", "user_id", userID, "error", err)
		res.ExportError = "backup link unavailable"
	}
	res.ExportKey = key
	res.ExportURL = url
}

// flush removes every environment file version of every owned project.
// Named secrets are left alone.
func (s *PanicService) flush(ctx context.Context, userID string, owned []*models.Project) PanicStep {
	step := PanicStep{Requested: true}
	var errs []string

	for _, p := range owned {
		removed, err := s.repomanager.EnvFiles(s.db).DeleteByProject(ctx, p.ID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("project %s: %v", p.ID, err))
			continue
		}
		step.Affected += len(removed)

		if s.auditFlushes {
			for _, f := range removed {
				s.audit.Record(ctx, AuditEvent{
					ProjectID:   p.ID,
					Actor:       userID,
					Action:      models.AuditDelete,
					Environment: f.Environment,
					EnvFileID:   f.ID,
					Version:     models.IntPtr(f.Version),
					Metadata:    models.AuditMetadata{OldVersion: models.IntPtr(f.Version)},
				})
			}
		}
	}

	return finishStep(step, errs)
}

// revoke clears the collaborator list of every owned project.
func (s *PanicService) revoke(ctx context.Context, owned []*models.Project) PanicStep {
	step := PanicStep{Requested: true}
	var errs []string

	for _, p := range owned {
		n, err := s.repomanager.Projects(s.db).ClearMembers(ctx, p.ID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("project %s: %v", p.ID, err))
			continue
		}
		step.Affected += int(n)
	}

	return finishStep(step, errs)
}

func finishStep(step PanicStep, errs []string) PanicStep {
	step.Succeeded = len(errs) == 0
	if len(errs) > 0 {
		step.Error = strings.Join(errs, "; ")
	}
	return step
}

// publicError keeps integrity failures generic.
func publicError(err error) string {
	if errors.Is(err, common.ErrIntegrity) {
		return common.ErrIntegrity.Error()
	}
	return err.Error()
}

// RenderPanicExport formats decrypted environment files as one backup document.
func RenderPanicExport(generated time.Time, blocks []PanicExportBlock) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# HashEnv Backup - %s\n\n", generated.UTC().Format(timestampLayout))
	for _, blk := range blocks {
		fmt.Fprintf(&b, "# Project: %s - Environment: %s - Version: %d\n", blk.ProjectName, blk.Environment, blk.Version)
		b.Write(blk.Content)
		if len(blk.Content) > 0 && blk.Content[len(blk.Content)-1] != '\n' {
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return b.String()
}
