// Package services contains server-side business logic.
//
// Handlers resolve permissions through package access first; the services
// here trust that decision and do no authorization of their own, except for
// project membership management which is always owner-gated.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/cryptox"
	"github.com/dmitrijs2005/hashenv/internal/logging"
	"github.com/dmitrijs2005/hashenv/internal/server/metrics"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validationError flattens validator output into a common.ErrValidation.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", common.ErrValidation, strings.Join(fields, ", "))
}

// ErrContentTooLarge is returned for plaintext above cryptox.MaxPlaintextSize.
var ErrContentTooLarge = fmt.Errorf("%w: content exceeds %d bytes", common.ErrValidation, cryptox.MaxPlaintextSize)

func checkSize(plaintext []byte) error {
	if len(plaintext) > cryptox.MaxPlaintextSize {
		return ErrContentTooLarge
	}
	return nil
}

// vault wraps the cipher with metrics and security logging.
type vault struct {
	cipher  *cryptox.Cipher
	metrics *metrics.Metrics
	logger  logging.Logger
}

func (v vault) seal(plaintext []byte) (cryptox.Blob, error) {
	blob, err := v.cipher.Encrypt(plaintext)
	v.metrics.CryptoOp("encrypt", err)
	return blob, err
}

// open decrypts blob. Integrity failures are logged as a security event
// carrying only identifiers.
func (v vault) open(ctx context.Context, blob cryptox.Blob, projectID, recordID string) ([]byte, error) {
	plaintext, err := v.cipher.Decrypt(blob)
	v.metrics.CryptoOp("decrypt", err)
	if errors.Is(err, common.ErrIntegrity) {
		v.logger.Warn(ctx, "integrity check failed",
			"event", "security",
			"project_id", projectID,
			"record_id", recordID)
	}
	return plaintext, err
}
