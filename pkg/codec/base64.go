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

// Package codec provides the byte level primitives used by stored values:
// base64 encoding of persisted blobs and hex digests over byte streams.
// It has no knowledge of configuration settings.
package codec

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"
)

// Base64Encode encodes data using standard, padded base64.
func Base64Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Base64Decode decodes a base64 string read from a persisted document.
//
// Whitespace is ignored so that values wrapped or indented by an XML
// writer decode the same as a single line. Unpadded input is accepted.
func Base64Decode(input string) ([]byte, error) {
	cleaned := stripWhitespace(input)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidBase64)
	}

	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err == nil {
		return data, nil
	}

	if !strings.HasSuffix(cleaned, "=") {
		if raw, rawErr := base64.RawStdEncoding.DecodeString(cleaned); rawErr == nil {
			return raw, nil
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
