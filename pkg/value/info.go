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

import (
	"crypto/x509"
	"time"

	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/logger"
	"github.com/jeremyhahn/go-storedconfig/pkg/codec"
	"github.com/jeremyhahn/go-storedconfig/pkg/encoding"
	"github.com/jeremyhahn/go-storedconfig/pkg/metrics"
)

// CertificateInfo is a read-only description of one certificate. Hash
// fields are uppercase hex and empty when they could not be computed.
type CertificateInfo struct {
	Subject    string `json:"subject"`
	Serial     string `json:"serial"`
	Issuer     string `json:"issuer"`
	IssueDate  string `json:"issueDate"`
	ExpireDate string `json:"expireDate"`
	MD5Hash    string `json:"md5Hash,omitempty"`
	SHA1Hash   string `json:"sha1Hash,omitempty"`
	SHA512Hash string `json:"sha512Hash,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

func newCertificateInfo(cert *x509.Certificate, includeDetail bool, log logger.Logger) CertificateInfo {
	info := CertificateInfo{
		Subject:    cert.Subject.String(),
		Serial:     encoding.HexSerial(cert),
		Issuer:     cert.Issuer.String(),
		IssueDate:  formatDate(cert.NotBefore),
		ExpireDate: formatDate(cert.NotAfter),
	}
	info.MD5Hash, _ = fingerprint(cert, codec.MD5, log)
	info.SHA1Hash, _ = fingerprint(cert, codec.SHA1, log)
	info.SHA512Hash, _ = fingerprint(cert, codec.SHA512, log)
	if includeDetail {
		info.Detail = encoding.FormatCertificateDetail(cert)
	}
	return info
}

// fingerprint digests the certificate's DER encoding. A failure is logged at
// warn level and reported through ok.
func fingerprint(cert *x509.Certificate, alg codec.HashAlgorithm, log logger.Logger) (string, bool) {
	der, err := encoding.CertificateDER(cert)
	if err == nil {
		var h string
		if h, err = codec.HashBytes(der, alg); err == nil {
			return h, true
		}
	}
	metrics.RecordHashFailure(alg.String())
	log.Warn("error generating hash for certificate",
		logger.String("algorithm", alg.String()),
		logger.String("subject", cert.Subject.String()),
		logger.Error(err))
	return "", false
}

func formatDate(t time.Time) string {
	return t.UTC().Format(encoding.DateFormat)
}
