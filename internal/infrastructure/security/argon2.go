package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/credoauth/credo/internal/application/ports"
	domerrors "github.com/credoauth/credo/internal/domain/errors"
)

// Argon2Params configurable for hashing.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns OWASP-recommended defaults for Argon2id.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024, // 64 MiB
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2Hasher implements ports.PasswordHasher using Argon2id. Hash and salt
// are kept as separate base64 values so the salt can be regenerated on every
// password change.
type Argon2Hasher struct {
	params    Argon2Params
	dummyHash string
	dummySalt string
}

// NewArgon2Hasher builds the hasher and precomputes the dummy verification
// target used when no account matches a login attempt.
func NewArgon2Hasher(params Argon2Params) (*Argon2Hasher, error) {
	h := &Argon2Hasher{params: params}
	hash, salt, err := h.Hash("credo-dummy-verification-target")
	if err != nil {
		return nil, err
	}
	h.dummyHash = hash
	h.dummySalt = salt
	return h, nil
}

func (h *Argon2Hasher) Hash(password string) (string, string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", "", fmt.Errorf("%w: %v", domerrors.ErrHashing, err)
	}
	hash := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Iterations,
		h.params.Memory,
		h.params.Parallelism,
		h.params.KeyLength,
	)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	return b64Hash, b64Salt, nil
}

func (h *Argon2Hasher) Verify(password, encodedHash, encodedSalt string) (bool, error) {
	hash, err := base64.RawStdEncoding.DecodeString(encodedHash)
	if err != nil {
		return false, fmt.Errorf("%w: hash: %v", domerrors.ErrCorruptCredential, err)
	}
	salt, err := base64.RawStdEncoding.DecodeString(encodedSalt)
	if err != nil {
		return false, fmt.Errorf("%w: salt: %v", domerrors.ErrCorruptCredential, err)
	}
	if len(hash) != int(h.params.KeyLength) {
		return false, fmt.Errorf("%w: hash length %d", domerrors.ErrCorruptCredential, len(hash))
	}
	derived := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Iterations,
		h.params.Memory,
		h.params.Parallelism,
		h.params.KeyLength,
	)
	return subtle.ConstantTimeCompare(hash, derived) == 1, nil
}

func (h *Argon2Hasher) DummyTarget() (string, string) {
	return h.dummyHash, h.dummySalt
}

var _ ports.PasswordHasher = (*Argon2Hasher)(nil)
