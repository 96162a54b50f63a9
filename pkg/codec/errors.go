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

import "errors"

var (
	// ErrInvalidBase64 is returned when input is not valid base64
	ErrInvalidBase64 = errors.New("codec: invalid base64")

	// ErrUnsupportedAlgorithm is returned for an unknown hash algorithm
	ErrUnsupportedAlgorithm = errors.New("codec: unsupported hash algorithm")

	// ErrNilReader is returned when a nil reader is passed to Hash
	ErrNilReader = errors.New("codec: nil reader")

	// ErrEmptyData is returned when there is nothing to hash
	ErrEmptyData = errors.New("codec: empty data")
)
