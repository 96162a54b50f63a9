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

package value

import "errors"

var (
	// ErrNilCertificates is returned when a certificate collection is nil
	ErrNilCertificates = errors.New("value: nil certificate collection")

	// ErrNilCertificate is returned when a certificate collection holds a nil entry
	ErrNilCertificate = errors.New("value: nil certificate in collection")

	// ErrCertificateEncoding is reported when a certificate cannot be encoded for storage
	ErrCertificateEncoding = errors.New("value: certificate encoding failed")

	// ErrUnknownSyntax is returned when no factory is registered for a syntax
	ErrUnknownSyntax = errors.New("value: unknown syntax")

	// ErrInvalidValue is returned when persisted text cannot be parsed
	ErrInvalidValue = errors.New("value: invalid value")

	// ErrInvalidJSON is returned when imported JSON is malformed or of the wrong type
	ErrInvalidJSON = errors.New("value: invalid JSON")

	// ErrMissingSecurityKey is reported when a private key must be
	// encrypted but no security key is configured
	ErrMissingSecurityKey = errors.New("value: missing security key")
)
