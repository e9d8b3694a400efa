package twofa

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/verisafe/authcore/pkg/utils"
)

// Backup codes are two groups of ten hex characters, 80 bits of crypto/rand
// entropy each, enough that stored digests resist offline brute force.
const backupCodeBytes = 10

// GenerateBackupCodes creates count single-use backup codes. The raw codes
// are returned exactly once; only digests are ever stored.
func GenerateBackupCodes(count int) ([]string, error) {
	codes := make([]string, count)
	for i := range codes {
		raw, err := utils.RandomHex(backupCodeBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		codes[i] = raw[:10] + "-" + raw[10:]
	}
	return codes, nil
}

// DigestBackupCode maps a backup code to its stored digest. Codes are random
// with 80 bits of entropy, so a plain SHA-256 digest is sufficient and keeps
// verification cheap; formatting and case differences do not matter.
func DigestBackupCode(code string) string {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(code), "-", ""))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// DigestBackupCodes maps a whole set of raw codes to digests.
func DigestBackupCodes(codes []string) []string {
	digests := make([]string, len(codes))
	for i, code := range codes {
		digests[i] = DigestBackupCode(code)
	}
	return digests
}
