package models

import (
	"time"

	"github.com/dmitrijs2005/hashenv/internal/cryptox"
)

// Environment names the deployment stage an environment file belongs to.
type Environment string

const (
	EnvironmentDev     Environment = "dev"
	EnvironmentStaging Environment = "staging"
	EnvironmentProd    Environment = "prod"
)

// Environments lists the known environments in sort order.
var Environments = []Environment{EnvironmentDev, EnvironmentStaging, EnvironmentProd}

// Valid reports whether e is a known environment.
func (e Environment) Valid() bool {
	switch e {
	case EnvironmentDev, EnvironmentStaging, EnvironmentProd:
		return true
	}
	return false
}

// EnvFile is one stored version of a project's .env file.
type EnvFile struct {
	ID          string
	ProjectID   string
	Environment Environment
	// Version is strictly increasing per (ProjectID, Environment), starting at 1.
	Version    int
	Blob       cryptox.Blob
	UploadedBy string
	CreatedAt  time.Time
}

// EnvFileMeta is the externally visible part of an EnvFile. It never carries
// cipher parameters.
type EnvFileMeta struct {
	ID          string      `json:"id"`
	ProjectID   string      `json:"projectId"`
	Environment Environment `json:"environment"`
	Version     int         `json:"version"`
	UploadedBy  string      `json:"uploadedBy"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Meta strips the blob.
func (f *EnvFile) Meta() *EnvFileMeta {
	return &EnvFileMeta{
		ID:          f.ID,
		ProjectID:   f.ProjectID,
		Environment: f.Environment,
		Version:     f.Version,
		UploadedBy:  f.UploadedBy,
		CreatedAt:   f.CreatedAt,
	}
}
