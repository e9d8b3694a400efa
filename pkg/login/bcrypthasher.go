package login

import (
	"crypto/sha512"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// BcryptV1Hasher implements PasswordHasher with plain bcrypt. Kept only so
// digests created before the pre-hash scheme keep verifying; new passwords
// never use it.
type BcryptV1Hasher struct{}

// Hash implements PasswordHasher.Hash
func (h *BcryptV1Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// Verify implements PasswordHasher.Verify
func (h *BcryptV1Hasher) Verify(password, digest string) (bool, error) {
	if password == "" || digest == "" {
		return false, errors.New("password and digest cannot be empty")
	}

	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// Version implements PasswordHasher.Version
func (h *BcryptV1Hasher) Version() PasswordVersion {
	return PasswordV1
}

// BcryptV2Hasher implements PasswordHasher using bcrypt over a SHA-512
// pre-hash. bcrypt silently truncates input at 72 bytes; pre-hashing to a
// fixed-length digest lifts that ceiling.
type BcryptV2Hasher struct{}

func prehash(password string) []byte {
	sum := sha512.Sum512([]byte(password))
	// Base64 keeps NUL bytes out of the bcrypt input.
	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(encoded, sum[:])
	return encoded
}

// Hash implements PasswordHasher.Hash
func (h *BcryptV2Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	hashedBytes, err := bcrypt.GenerateFromPassword(prehash(password), bcrypt.DefaultCost+2)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// Verify implements PasswordHasher.Verify
func (h *BcryptV2Hasher) Verify(password, digest string) (bool, error) {
	if password == "" || digest == "" {
		return false, errors.New("password and digest cannot be empty")
	}

	err := bcrypt.CompareHashAndPassword([]byte(digest), prehash(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// Version implements PasswordHasher.Version
func (h *BcryptV2Hasher) Version() PasswordVersion {
	return PasswordV2
}
