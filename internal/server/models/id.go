package models

import (
	"fmt"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/google/uuid"
)

// CheckID rejects record identifiers that are not UUIDs before they reach
// the store. kind names the identifier in the error message.
func CheckID(kind, id string) error {
	if err := uuid.Validate(id); err != nil {
		return fmt.Errorf("%w: malformed %s id", common.ErrValidation, kind)
	}
	return nil
}
