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

package storedconfig

import "errors"

var (
	// ErrInvalidDocument is returned when persisted data is not a stored configuration document
	ErrInvalidDocument = errors.New("storedconfig: invalid document")

	// ErrSyntaxMismatch is returned when a value's type does not match the setting's syntax
	ErrSyntaxMismatch = errors.New("storedconfig: value does not match setting syntax")

	// ErrNilValue is returned when writing a nil value
	ErrNilValue = errors.New("storedconfig: nil value")

	// ErrNilBackend is returned when a Store is created without a backend
	ErrNilBackend = errors.New("storedconfig: nil storage backend")
)
