package models

import "time"

// AuditAction is the kind of event recorded in the audit log.
type AuditAction string

const (
	AuditUpload   AuditAction = "upload"
	AuditDownload AuditAction = "download"
	AuditEdit     AuditAction = "edit"
	AuditDelete   AuditAction = "delete"
	AuditAccess   AuditAction = "access"
)

// AuditMetadata carries optional per-action details.
type AuditMetadata struct {
	OldVersion *int   `json:"oldVersion,omitempty"`
	NewVersion *int   `json:"newVersion,omitempty"`
	FileName   string `json:"fileName,omitempty"`
}

// IsEmpty reports whether no field is set.
func (m AuditMetadata) IsEmpty() bool {
	return m.OldVersion == nil && m.NewVersion == nil && m.FileName == ""
}

// AuditLogEntry is an append-only record of one action. The actor's name and
// email are copied at write time so the entry stays readable after the
// account changes.
type AuditLogEntry struct {
	ID               string        `json:"id"`
	ProjectID        string        `json:"projectId"`
	EnvFileID        string        `json:"envFileId,omitempty"`
	Environment      Environment   `json:"environment,omitempty"`
	Version          *int          `json:"version,omitempty"`
	Action           AuditAction   `json:"action"`
	PerformedBy      string        `json:"performedBy"`
	PerformedByName  string        `json:"performedByName"`
	PerformedByEmail string        `json:"performedByEmail"`
	Metadata         AuditMetadata `json:"metadata"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// IntPtr is a convenience for optional version fields.
func IntPtr(v int) *int {
	return &v
}
