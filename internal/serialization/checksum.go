package serialization

import (
	"crypto/sha256"

	"github.com/pkg/errors"
)

// ComputeChecksum returns the SHA-256 of data.
func ComputeChecksum(data []byte) [ChecksumSize]byte {
	return sha256.Sum256(data)
}

// ValidateChecksum fails with ErrChecksumMismatch if computed != stored.
func ValidateChecksum(computed, stored [ChecksumSize]byte) error {
	if computed != stored {
		return errors.WithStack(ErrChecksumMismatch)
	}
	return nil
}
