package models

import "time"

// PanicButton selects what a panic run does. Each flag is independent.
type PanicButton struct {
	FlushEnvs           bool `json:"flushEnvs"`
	RevokeCollaborators bool `json:"revokeCollaborators"`
	DownloadEnvs        bool `json:"downloadEnvs"`
	AskConfirmation     bool `json:"askConfirmation"`
}

// UserPanicConfig is a user's panic preferences. FlushDuration is in hours;
// nil means disabled.
type UserPanicConfig struct {
	UserID        string      `json:"userId"`
	FlushDuration *int        `json:"flushDuration"`
	PanicButton   PanicButton `json:"panicButton"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// DefaultPanicConfig returns the safe defaults: confirmation on, nothing destructive.
func DefaultPanicConfig(userID string) *UserPanicConfig {
	return &UserPanicConfig{
		UserID:      userID,
		PanicButton: PanicButton{AskConfirmation: true},
	}
}

// Export records a panic backup document written to object storage.
type Export struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	StorageKey string    `json:"storageKey"`
	CreatedAt  time.Time `json:"createdAt"`
}
