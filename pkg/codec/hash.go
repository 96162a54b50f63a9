// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-storedconfig.
//
// go-storedconfig is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package codec

import (
	"bytes"
	"crypto/md5"  // #nosec G501 - fingerprint display only
	"crypto/sha1" // #nosec G505 - fingerprint display only
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"
)

// HashAlgorithm identifies a digest function used for fingerprints.
type HashAlgorithm int

const (
	// MD5 digest (128 bit)
	MD5 HashAlgorithm = iota
	// SHA1 digest (160 bit)
	SHA1
	// SHA256 digest (256 bit)
	SHA256
	// SHA512 digest (512 bit)
	SHA512
)

// String returns the string representation of the hash algorithm.
func (h HashAlgorithm) String() string {
	switch h {
	case MD5:
		return "MD5"
	case SHA1:
		return "SHA1"
	case SHA256:
		return "SHA256"
	case SHA512:
		return "SHA512"
	default:
		return "Unknown"
	}
}

// New returns a fresh hash.Hash for the algorithm.
func (h HashAlgorithm) New() (hash.Hash, error) {
	switch h {
	case MD5:
		return md5.New(), nil // #nosec G401
	case SHA1:
		return sha1.New(), nil // #nosec G401
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedAlgorithm, int(h))
	}
}

// Hash reads r to EOF through the digest function and returns the digest as
// uppercase hex. Read errors are returned wrapped.
func Hash(r io.Reader, alg HashAlgorithm) (string, error) {
	if r == nil {
		return "", ErrNilReader
	}

	h, err := alg.New()
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("codec: failed to read input for %s: %w", alg, err)
	}

	return strings.ToUpper(hex.EncodeToString(h.Sum(nil))), nil
}

// HashBytes digests data. Empty input is rejected because a fingerprint of
// nothing identifies nothing.
func HashBytes(data []byte, alg HashAlgorithm) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyData
	}
	return Hash(bytes.NewReader(data), alg)
}
