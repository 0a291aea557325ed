package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// ComputeChecksum computes the SHA-256 checksum of float32 values in their
// little-endian byte encoding, as a hex string.
func ComputeChecksum(values ...[]float32) string {
	h := sha256.New()
	var buf [4]byte
	for _, vs := range values {
		for _, v := range vs {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateChecksum compares computed checksum against stored checksum.
// Returns ErrChecksumMismatch if they don't match.
func ValidateChecksum(computed, stored string) error {
	if computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}
