package login

import "fmt"

// PasswordVersion identifies the hashing scheme a stored digest was produced
// with, so older digests keep verifying after the default scheme moves on.
type PasswordVersion int32

const (
	// PasswordV1 is plain bcrypt at the default cost.
	PasswordV1 PasswordVersion = 1
	// PasswordV2 is bcrypt over a SHA-512 pre-hash, lifting bcrypt's 72-byte
	// input ceiling so arbitrarily long passwords are supported.
	PasswordV2 PasswordVersion = 2
	// PasswordV3 is argon2id with parameters embedded in the digest.
	PasswordV3 PasswordVersion = 3

	// CurrentPasswordVersion is used for new passwords and upgrades.
	CurrentPasswordVersion = PasswordV3
)

// PasswordHasher hashes and verifies passwords for one scheme version.
type PasswordHasher interface {
	// Hash produces a digest embedding everything needed to verify later.
	Hash(password string) (string, error)

	// Verify reports whether password matches the digest using a
	// constant-time comparison. A malformed digest is an error, not a miss.
	Verify(password, digest string) (bool, error)

	// Version reports which scheme this hasher implements.
	Version() PasswordVersion
}

// HasherFactory resolves hashers by stored version.
type HasherFactory struct {
	hashers map[PasswordVersion]PasswordHasher
}

// NewHasherFactory creates a factory with all supported scheme versions
// registered.
func NewHasherFactory() *HasherFactory {
	f := &HasherFactory{hashers: make(map[PasswordVersion]PasswordHasher)}
	f.hashers[PasswordV1] = &BcryptV1Hasher{}
	f.hashers[PasswordV2] = &BcryptV2Hasher{}
	f.hashers[PasswordV3] = NewArgon2Hasher()
	return f
}

// GetHasher returns the hasher for a stored digest's version.
func (f *HasherFactory) GetHasher(version PasswordVersion) (PasswordHasher, error) {
	hasher, ok := f.hashers[version]
	if !ok {
		return nil, fmt.Errorf("unsupported password version: %d", version)
	}
	return hasher, nil
}

// GetCurrentHasher returns the hasher used for new passwords.
func (f *HasherFactory) GetCurrentHasher() PasswordHasher {
	return f.hashers[CurrentPasswordVersion]
}
