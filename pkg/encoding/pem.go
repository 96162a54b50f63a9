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

// Package encoding decodes and encodes the certificate material held by
// stored configuration values. Certificates are accepted as DER or PEM and
// private keys are carried as (optionally encrypted) PKCS#8.
package encoding

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// PEM block types
const (
	PEMTypeCertificate         = "CERTIFICATE"
	PEMTypePrivateKey          = "PRIVATE KEY"
	PEMTypeEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
)

var pemPrefix = []byte("-----BEGIN")

// ParseCertificate parses a single certificate from DER or PEM data.
// PEM input is detected by its "-----BEGIN" armor; only the first block
// is used.
func ParseCertificate(data []byte) (*x509.Certificate, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	if isPEM(data) {
		return DecodeCertificatePEM(data)
	}

	cert, err := x509.ParseCertificate(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}
	return cert, nil
}

// ParseCertificates parses every certificate found in data. PEM input may
// carry several CERTIFICATE blocks; DER input may carry concatenated
// certificates.
func ParseCertificates(data []byte) ([]*x509.Certificate, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	if isPEM(data) {
		return DecodeCertificateChainPEM(data)
	}

	certs, err := x509.ParseCertificates(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}
	if len(certs) == 0 {
		return nil, ErrInvalidCertificate
	}
	return certs, nil
}

// EncodeCertificatePEM encodes an X.509 certificate to PEM format.
//
// Example:
//
//	pemData, err := encoding.EncodeCertificatePEM(cert)
func EncodeCertificatePEM(cert *x509.Certificate) ([]byte, error) {
	der, err := CertificateDER(cert)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pem.Encode(&buf, &pem.Block{Type: PEMTypeCertificate, Bytes: der}); err != nil {
		return nil, fmt.Errorf("failed to encode certificate PEM: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeCertificatePEM decodes PEM encoded data to an X.509 certificate.
func DecodeCertificatePEM(data []byte) (*x509.Certificate, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrInvalidPEMEncoding
	}
	if block.Type != PEMTypeCertificate {
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrInvalidCertificate, block.Type)
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}

	return cert, nil
}

// EncodeCertificateChainPEM encodes multiple X.509 certificates to PEM format.
// The certificates are concatenated in order (typically leaf to root).
func EncodeCertificateChainPEM(certs []*x509.Certificate) ([]byte, error) {
	if len(certs) == 0 {
		return nil, ErrInvalidCertificate
	}

	var buf bytes.Buffer
	for _, cert := range certs {
		der, err := CertificateDER(cert)
		if err != nil {
			return nil, err
		}
		if err := pem.Encode(&buf, &pem.Block{Type: PEMTypeCertificate, Bytes: der}); err != nil {
			return nil, fmt.Errorf("failed to encode certificate chain PEM: %w", err)
		}
	}

	return buf.Bytes(), nil
}

// DecodeCertificateChainPEM decodes PEM encoded data containing multiple
// certificates. Blocks that are not CERTIFICATE blocks are skipped.
func DecodeCertificateChainPEM(data []byte) ([]*x509.Certificate, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	var certs []*x509.Certificate
	remaining := data

	for len(remaining) > 0 {
		var block *pem.Block
		block, remaining = pem.Decode(remaining)
		if block == nil {
			break
		}
		if block.Type != PEMTypeCertificate {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: certificate %d in chain: %v", ErrInvalidCertificate, len(certs), err)
		}

		certs = append(certs, cert)
	}

	if len(certs) == 0 {
		return nil, ErrInvalidPEMEncoding
	}

	return certs, nil
}

// CertificateDER returns the DER encoding of cert. A certificate built by
// hand rather than parsed has no raw encoding and cannot be persisted.
func CertificateDER(cert *x509.Certificate) ([]byte, error) {
	if cert == nil {
		return nil, ErrInvalidCertificate
	}
	if len(cert.Raw) == 0 {
		return nil, ErrMissingRawEncoding
	}
	return cert.Raw, nil
}

func isPEM(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), pemPrefix)
}
