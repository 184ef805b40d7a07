// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// hashBufferSize is the chunk size used when streaming file content
// through the hash function. The exact value is not semantically
// significant, but it must stay fixed so large-file hashing performance
// is predictable.
const hashBufferSize = 64 * 1024

// Digest is a SHA-256 digest. Its canonical textual form is the
// 64-character lowercase hex encoding.
type Digest [32]byte

// String returns the canonical hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether the digest is the zero value, which never
// occurs as the hash of real content in practice and marks an unset
// digest.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// HashFile computes the SHA-256 digest of the file at path. The file is
// streamed through the hash function in fixed-size chunks to keep
// memory usage constant regardless of file size.
func HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	buffer := make([]byte, hashBufferSize)
	if _, err := io.CopyBuffer(hasher, file, buffer); err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// HashBytes computes the SHA-256 digest of data.
func HashBytes(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

// ParseDigest parses the canonical hex encoding of a SHA-256 digest.
// Returns an error if the string is not a valid 64-character hex
// encoding of 32 bytes.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing hash digest: %w", err)
	}
	if len(decoded) != 32 {
		return digest, fmt.Errorf("hash digest is %d bytes, want 32", len(decoded))
	}
	copy(digest[:], decoded)
	return digest, nil
}
