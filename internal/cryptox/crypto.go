// Package cryptox implements the envelope cipher used to seal environment
// files and named secrets at rest under the deployment's static master key.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the master key length in bytes (256 bit).
	KeySize = 32
	// TagSize is the authentication tag length in bytes (128 bit).
	TagSize = 16
	// MinNonceSize and MaxNonceSize bound the nonce lengths accepted on decrypt.
	MinNonceSize = 12
	MaxNonceSize = 16
	// MaxPlaintextSize caps plaintext accepted by callers before encrypting.
	MaxPlaintextSize = 50 * 1024
)

// Algorithm names the AEAD construction used by a Cipher.
type Algorithm string

const (
	AlgorithmAESGCM           Algorithm = "aes-256-gcm"
	AlgorithmChaCha20Poly1305 Algorithm = "chacha20-poly1305"
)

// Blob is an encrypted record as persisted by the store. The three parts are
// kept apart so their lengths can be checked before any decryption attempt.
type Blob struct {
	Ciphertext []byte
	Nonce      []byte
	AuthTag    []byte
}

// Cipher seals and opens Blobs with a single key. It holds no mutable state
// and is safe for concurrent use.
type Cipher struct {
	alg Algorithm
	key []byte
}

// ParseMasterKey decodes a base64 master key and checks its length.
func ParseMasterKey(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("%w: master key is not set", common.ErrConfiguration)
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: master key is not valid base64", common.ErrConfiguration)
	}
	if len(key) != KeySize {
		common.WipeByteArray(key)
		return nil, fmt.Errorf("%w: master key must be %d bytes", common.ErrConfiguration, KeySize)
	}
	return key, nil
}

// NewCipher returns a Cipher over a private copy of key.
// An empty algorithm selects AES-256-GCM.
func NewCipher(key []byte, alg Algorithm) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: master key must be %d bytes", common.ErrConfiguration, KeySize)
	}
	if alg == "" {
		alg = AlgorithmAESGCM
	}
	switch alg {
	case AlgorithmAESGCM, AlgorithmChaCha20Poly1305:
	default:
		return nil, fmt.Errorf("%w: unknown cipher algorithm %q", common.ErrConfiguration, alg)
	}
	k := make([]byte, KeySize)
	copy(k, key)
	return &Cipher{alg: alg, key: k}, nil
}

// Algorithm reports the AEAD construction in use.
func (c *Cipher) Algorithm() Algorithm {
	if c == nil {
		return ""
	}
	return c.alg
}

func (c *Cipher) aead(nonceSize int) (cipher.AEAD, error) {
	switch c.alg {
	case AlgorithmChaCha20Poly1305:
		if nonceSize != chacha20poly1305.NonceSize {
			return nil, fmt.Errorf("%w: nonce length %d not supported by %s", common.ErrValidation, nonceSize, c.alg)
		}
		return chacha20poly1305.New(c.key)
	default:
		block, err := aes.NewCipher(c.key)
		if err != nil {
			return nil, err
		}
		if nonceSize == MinNonceSize {
			return cipher.NewGCM(block)
		}
		return cipher.NewGCMWithNonceSize(block, nonceSize)
	}
}

// Encrypt seals plaintext under a freshly generated random nonce.
// Callers enforce MaxPlaintextSize before calling.
func (c *Cipher) Encrypt(plaintext []byte) (Blob, error) {
	if c == nil || len(c.key) != KeySize {
		return Blob{}, fmt.Errorf("%w: no master key loaded", common.ErrConfiguration)
	}

	aead, err := c.aead(MinNonceSize)
	if err != nil {
		return Blob{}, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return Blob{}, fmt.Errorf("nonce generation: %w", err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - aead.Overhead()

	return Blob{
		Ciphertext: sealed[:split],
		Nonce:      nonce,
		AuthTag:    sealed[split:],
	}, nil
}

// Decrypt validates parameter lengths, then opens the blob.
//
// Malformed lengths yield common.ErrValidation. Any authentication failure
// yields common.ErrIntegrity with no further detail, so callers cannot tell
// which part of the blob was altered.
func (c *Cipher) Decrypt(b Blob) ([]byte, error) {
	if c == nil || len(c.key) != KeySize {
		return nil, fmt.Errorf("%w: no master key loaded", common.ErrConfiguration)
	}
	if n := len(b.Nonce); n < MinNonceSize || n > MaxNonceSize {
		return nil, fmt.Errorf("%w: invalid nonce length", common.ErrValidation)
	}
	if len(b.AuthTag) != TagSize {
		return nil, fmt.Errorf("%w: invalid auth tag length", common.ErrValidation)
	}

	aead, err := c.aead(len(b.Nonce))
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(b.Ciphertext)+len(b.AuthTag))
	sealed = append(sealed, b.Ciphertext...)
	sealed = append(sealed, b.AuthTag...)

	plaintext, err := aead.Open(nil, b.Nonce, sealed, nil)
	if err != nil {
		return nil, common.ErrIntegrity
	}
	return plaintext, nil
}

// GenerateMasterKey returns a new random key encoded for configuration.
func GenerateMasterKey() string {
	key := common.GenerateRandByteArray(KeySize)
	defer common.WipeByteArray(key)
	return base64.StdEncoding.EncodeToString(key)
}
