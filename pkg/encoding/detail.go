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

package encoding

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// DateFormat is the layout used for validity dates in text output.
const DateFormat = time.UnixDate

// HexSerial returns the certificate serial number as uppercase hex with an
// even number of digits.
func HexSerial(cert *x509.Certificate) string {
	if cert == nil || cert.SerialNumber == nil {
		return ""
	}
	s := strings.ToUpper(cert.SerialNumber.Text(16))
	if len(s)%2 != 0 {
		s = "0" + s
	}
	return s
}

var keyUsageNames = []struct {
	usage x509.KeyUsage
	name  string
}{
	{x509.KeyUsageDigitalSignature, "Digital Signature"},
	{x509.KeyUsageContentCommitment, "Content Commitment"},
	{x509.KeyUsageKeyEncipherment, "Key Encipherment"},
	{x509.KeyUsageDataEncipherment, "Data Encipherment"},
	{x509.KeyUsageKeyAgreement, "Key Agreement"},
	{x509.KeyUsageCertSign, "Certificate Sign"},
	{x509.KeyUsageCRLSign, "CRL Sign"},
	{x509.KeyUsageEncipherOnly, "Encipher Only"},
	{x509.KeyUsageDecipherOnly, "Decipher Only"},
}

var extKeyUsageNames = map[x509.ExtKeyUsage]string{
	x509.ExtKeyUsageAny:             "Any",
	x509.ExtKeyUsageServerAuth:      "TLS Web Server Authentication",
	x509.ExtKeyUsageClientAuth:      "TLS Web Client Authentication",
	x509.ExtKeyUsageCodeSigning:     "Code Signing",
	x509.ExtKeyUsageEmailProtection: "E-mail Protection",
	x509.ExtKeyUsageTimeStamping:    "Time Stamping",
	x509.ExtKeyUsageOCSPSigning:     "OCSP Signing",
}

// FormatCertificateDetail renders a verbose, human readable dump of a
// certificate similar to "openssl x509 -text" output.
func FormatCertificateDetail(cert *x509.Certificate) string {
	if cert == nil {
		return ""
	}

	var b strings.Builder
	line := func(indent int, format string, args ...any) {
		b.WriteString(strings.Repeat("  ", indent))
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line(0, "Certificate:")
	line(1, "Version: %d", cert.Version)
	line(1, "Serial Number: %s", HexSerial(cert))
	line(1, "Signature Algorithm: %s", cert.SignatureAlgorithm)
	line(1, "Issuer: %s", cert.Issuer)
	line(1, "Validity:")
	line(2, "Not Before: %s", cert.NotBefore.UTC().Format(DateFormat))
	line(2, "Not After : %s", cert.NotAfter.UTC().Format(DateFormat))
	line(1, "Subject: %s", cert.Subject)
	line(1, "Public Key Algorithm: %s", cert.PublicKeyAlgorithm)
	if size := publicKeySize(cert.PublicKey); size != "" {
		line(2, "Key Size: %s", size)
	}

	if usages := keyUsages(cert.KeyUsage); len(usages) > 0 {
		line(1, "Key Usage: %s", strings.Join(usages, ", "))
	}
	if len(cert.ExtKeyUsage) > 0 {
		names := make([]string, 0, len(cert.ExtKeyUsage))
		for _, u := range cert.ExtKeyUsage {
			if n, ok := extKeyUsageNames[u]; ok {
				names = append(names, n)
			} else {
				names = append(names, fmt.Sprintf("Unknown (%d)", u))
			}
		}
		line(1, "Extended Key Usage: %s", strings.Join(names, ", "))
	}
	if cert.BasicConstraintsValid {
		line(1, "Basic Constraints: CA:%t", cert.IsCA)
	}

	var sans []string
	for _, dns := range cert.DNSNames {
		sans = append(sans, "DNS:"+dns)
	}
	for _, ip := range cert.IPAddresses {
		sans = append(sans, "IP:"+ip.String())
	}
	for _, email := range cert.EmailAddresses {
		sans = append(sans, "email:"+email)
	}
	for _, uri := range cert.URIs {
		sans = append(sans, "URI:"+uri.String())
	}
	if len(sans) > 0 {
		line(1, "Subject Alternative Name: %s", strings.Join(sans, ", "))
	}

	if len(cert.SubjectKeyId) > 0 {
		line(1, "Subject Key Identifier: %s", colonHex(cert.SubjectKeyId))
	}
	if len(cert.AuthorityKeyId) > 0 {
		line(1, "Authority Key Identifier: %s", colonHex(cert.AuthorityKeyId))
	}

	return b.String()
}

func keyUsages(ku x509.KeyUsage) []string {
	var names []string
	for _, k := range keyUsageNames {
		if ku&k.usage != 0 {
			names = append(names, k.name)
		}
	}
	return names
}

func publicKeySize(pub any) string {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return fmt.Sprintf("%d bit", k.N.BitLen())
	case *ecdsa.PublicKey:
		return fmt.Sprintf("%d bit (%s)", k.Curve.Params().BitSize, k.Curve.Params().Name)
	case ed25519.PublicKey:
		return "256 bit"
	default:
		return ""
	}
}

func colonHex(b []byte) string {
	h := strings.ToUpper(hex.EncodeToString(b))
	parts := make([]string, 0, len(h)/2)
	for i := 0; i+2 <= len(h); i += 2 {
		parts = append(parts, h[i:i+2])
	}
	return strings.Join(parts, ":")
}
