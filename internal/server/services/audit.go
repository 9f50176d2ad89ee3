package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/dbx"
	"github.com/dmitrijs2005/hashenv/internal/logging"
	"github.com/dmitrijs2005/hashenv/internal/server/metrics"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/auditlogs"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// MaxAuditRows caps a single audit listing.
const MaxAuditRows = 1000

// timestampLayout renders UTC instants with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// AuditEvent describes one action to be recorded.
type AuditEvent struct {
	ProjectID   string
	Actor       string
	Action      models.AuditAction
	Environment models.Environment
	EnvFileID   string
	Version     *int
	Metadata    models.AuditMetadata
}

// AuditService appends to and queries the audit log.
type AuditService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	metrics     *metrics.Metrics
	limit       int
}

// NewAuditService builds an AuditService. limit caps listings and is itself
// clamped to MaxAuditRows.
func NewAuditService(db dbx.DBTX, rm repomanager.RepositoryManager, logger logging.Logger, m *metrics.Metrics, limit int) *AuditService {
	if limit <= 0 || limit > MaxAuditRows {
		limit = MaxAuditRows
	}
	return &AuditService{db: db, repomanager: rm, logger: logger, metrics: m, limit: limit}
}

// Record appends an entry, resolving the actor's name and email now so the
// entry stays readable later. It never fails the caller: write errors are
// logged and counted, and false is returned.
func (s *AuditService) Record(ctx context.Context, ev AuditEvent) bool {
	name, email := s.resolveActor(ctx, ev.Actor)

	entry := &models.AuditLogEntry{
		ID:               uuid.NewString(),
		ProjectID:        ev.ProjectID,
		EnvFileID:        ev.EnvFileID,
		Environment:      ev.Environment,
		Version:          ev.Version,
		Action:           ev.Action,
		PerformedBy:      ev.Actor,
		PerformedByName:  name,
		PerformedByEmail: email,
		Metadata:         ev.Metadata,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.repomanager.AuditLogs(s.db).Append(ctx, entry); err != nil {
		s.metrics.AuditWriteFailed()
		s.logger.Error(ctx, "audit write failed",
			"project_id", ev.ProjectID,
			"action", ev.Action,
			"performed_by", ev.Actor,
			"error", err)
		return false
	}
	return true
}

func (s *AuditService) resolveActor(ctx context.Context, userID string) (string, string) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "audit actor lookup failed", "performed_by", userID, "error", err)
		}
		return userID, ""
	}
	name := u.Name
	if name == "" {
		name = userID
	}
	return name, u.Email
}

// List returns entries for a project, newest first. limit <= 0 means the
// configured maximum.
func (s *AuditService) List(ctx context.Context, projectID string, env models.Environment, limit int) ([]*models.AuditLogEntry, error) {
	if env != "" && !env.Valid() {
		return nil, fmt.Errorf("%w: unknown environment %q", common.ErrValidation, env)
	}
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}
	return s.repomanager.AuditLogs(s.db).List(ctx, auditlogs.Filter{
		ProjectID:   projectID,
		Environment: env,
		Limit:       limit,
	})
}

// Export renders the project's audit log as plain text.
func (s *AuditService) Export(ctx context.Context, projectID string, env models.Environment) (string, error) {
	entries, err := s.List(ctx, projectID, env, 0)
	if err != nil {
		return "", err
	}
	return RenderAuditExport(projectID, env, time.Now(), entries), nil
}

// RenderAuditExport formats entries as the line-oriented audit export.
func RenderAuditExport(projectID string, env models.Environment, generated time.Time, entries []*models.AuditLogEntry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Project ID: %s\n", projectID)
	if env != "" {
		fmt.Fprintf(&b, "Environment: %s\n", env)
	}
	fmt.Fprintf(&b, "Generated: %s\n", generated.UTC().Format(timestampLayout))
	b.WriteString(strings.Repeat("=", 80))
	b.WriteString("\n\n")

	if len(entries) == 0 {
		b.WriteString("No logs found.\n")
		return b.String()
	}

	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s] %s\n", e.CreatedAt.UTC().Format(timestampLayout), strings.ToUpper(string(e.Action)))

		envName := string(e.Environment)
		if envName == "" {
			envName = "N/A"
		}
		fmt.Fprintf(&b, "Environment: %s\n", envName)

		if e.Version != nil {
			fmt.Fprintf(&b, "Version: %d\n", *e.Version)
		}
		fmt.Fprintf(&b, "Performed by: %s (%s)\n", e.PerformedByName, e.PerformedByEmail)

		if !e.Metadata.IsEmpty() {
			details, err := json.Marshal(e.Metadata)
			if err == nil {
				fmt.Fprintf(&b, "Details: %s\n", details)
			}
		}
	}
	return b.String()
}
