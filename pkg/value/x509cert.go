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
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/logger"
	"github.com/jeremyhahn/go-storedconfig/pkg/codec"
	"github.com/jeremyhahn/go-storedconfig/pkg/encoding"
	"github.com/jeremyhahn/go-storedconfig/pkg/metrics"
	"github.com/jeremyhahn/go-storedconfig/pkg/setting"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// X509CertificateValue is an ordered list of X.509 certificates, such as the
// server certificates trusted for an LDAP or syslog connection. An empty
// list means no certificates are configured.
type X509CertificateValue struct {
	certs []*x509.Certificate
	log   logger.Logger
}

// NewX509CertificateValue builds a value holding a copy of certs. A nil
// slice is rejected with ErrNilCertificates and a nil entry with
// ErrNilCertificate; an empty slice is valid.
func NewX509CertificateValue(certs []*x509.Certificate, opts ...Option) (*X509CertificateValue, error) {
	if certs == nil {
		return nil, ErrNilCertificates
	}
	for i, cert := range certs {
		if cert == nil {
			return nil, fmt.Errorf("%w: index %d", ErrNilCertificate, i)
		}
	}

	o := newOptions(opts)
	return &X509CertificateValue{
		certs: slices.Clone(certs),
		log:   o.log,
	}, nil
}

// NewX509CertificateValueFromSeq builds a value from an ordered sequence of
// certificates, for example slices.Values(chain) or a map iterator sorted by
// the caller.
func NewX509CertificateValueFromSeq(seq iter.Seq[*x509.Certificate], opts ...Option) (*X509CertificateValue, error) {
	if seq == nil {
		return nil, ErrNilCertificates
	}
	certs := slices.Collect(seq)
	if certs == nil {
		certs = []*x509.Certificate{}
	}
	return NewX509CertificateValue(certs, opts...)
}

// EmptyX509CertificateValue returns a value holding no certificates.
func EmptyX509CertificateValue(opts ...Option) *X509CertificateValue {
	o := newOptions(opts)
	return &X509CertificateValue{certs: []*x509.Certificate{}, log: o.log}
}

// DecodeResult is the outcome of decoding one persisted certificate entry.
// Exactly one of Certificate and Err is set.
type DecodeResult struct {
	// Index is the position of the entry among its siblings
	Index       int
	Certificate *x509.Certificate
	Err         error
}

// OK reports whether the entry decoded successfully.
func (r DecodeResult) OK() bool {
	return r.Err == nil && r.Certificate != nil
}

// DecodeCertificateElements decodes every <value> child of a <setting>
// element in document order. Entries that are not valid base64 fail with
// codec.ErrInvalidBase64 and entries that are not certificates fail with
// encoding.ErrInvalidCertificate.
func DecodeCertificateElements(settingElement *etree.Element) []DecodeResult {
	return decodeCertificateChildren(settingElement, ValueElement)
}

func decodeCertificateChildren(parent *etree.Element, tag string) []DecodeResult {
	if parent == nil {
		return nil
	}

	children := parent.SelectElements(tag)
	results := make([]DecodeResult, 0, len(children))
	for i, child := range children {
		results = append(results, decodeCertificate(i, child.Text()))
	}
	return results
}

func decodeCertificate(index int, b64 string) DecodeResult {
	der, err := codec.Base64Decode(b64)
	if err != nil {
		return DecodeResult{Index: index, Err: err}
	}
	cert, err := encoding.ParseCertificate(der)
	if err != nil {
		return DecodeResult{Index: index, Err: err}
	}
	return DecodeResult{Index: index, Certificate: cert}
}

// ParseX509CertificateElement rebuilds a value from a <setting> element,
// keeping every entry that decoded and returning the entries that were
// dropped.
func ParseX509CertificateElement(settingElement *etree.Element, opts ...Option) (*X509CertificateValue, []DecodeResult) {
	kept, dropped := partitionResults(DecodeCertificateElements(settingElement))
	v := EmptyX509CertificateValue(opts...)
	v.certs = kept
	return v, dropped
}

func partitionResults(results []DecodeResult) ([]*x509.Certificate, []DecodeResult) {
	kept := make([]*x509.Certificate, 0, len(results))
	var dropped []DecodeResult
	for _, r := range results {
		if r.OK() {
			kept = append(kept, r.Certificate)
			continue
		}
		dropped = append(dropped, r)
	}
	return kept, dropped
}

func logDropped(log logger.Logger, key string, kept int, dropped []DecodeResult) {
	for range kept {
		metrics.RecordCertificateDecoded()
	}
	for _, d := range dropped {
		reason := metrics.ReasonCertificate
		if errors.Is(d.Err, codec.ErrInvalidBase64) {
			reason = metrics.ReasonBase64
		}
		metrics.RecordCertificateDropped(reason)
		log.Error("error decoding certificate",
			logger.String("setting", key),
			logger.Int("index", d.Index),
			logger.String("reason", reason),
			logger.Error(d.Err))
	}
}

// Certificates returns a copy of the held certificates in order.
func (v *X509CertificateValue) Certificates() []*x509.Certificate {
	return slices.Clone(v.certs)
}

// Len returns the number of held certificates.
func (v *X509CertificateValue) Len() int {
	return len(v.certs)
}

// HasCertificates reports whether at least one certificate is held.
func (v *X509CertificateValue) HasCertificates() bool {
	return len(v.certs) > 0
}

// ToXMLValues encodes each certificate as base64 DER text inside an element
// named valueElementName. A certificate without a raw encoding is logged and
// left out; the remaining certificates are still written.
func (v *X509CertificateValue) ToXMLValues(valueElementName string) []*etree.Element {
	elements := make([]*etree.Element, 0, len(v.certs))
	for i, cert := range v.certs {
		b64, err := encodeCertificate(cert)
		if err != nil {
			metrics.RecordEncodeFailure(setting.SyntaxX509Cert.String())
			v.log.Error("error encoding certificate",
				logger.Int("index", i),
				logger.String("subject", cert.Subject.String()),
				logger.Error(err))
			continue
		}
		el := etree.NewElement(valueElementName)
		el.SetText(b64)
		elements = append(elements, el)
	}
	return elements
}

func encodeCertificate(cert *x509.Certificate) (string, error) {
	der, err := encoding.CertificateDER(cert)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCertificateEncoding, err)
	}
	return codec.Base64Encode(der), nil
}

// ToNativeObject returns a copy of the certificate list as
// []*x509.Certificate.
func (v *X509CertificateValue) ToNativeObject() any {
	return v.Certificates()
}

// Validate never reports problems; certificate trust and expiry are checked
// where the certificates are used.
func (v *X509CertificateValue) Validate(*setting.Setting) []string {
	return []string{}
}

// ToInfoMap describes every held certificate. Fingerprints that cannot be
// computed are logged and left empty. includeDetail adds a full text dump
// of each certificate.
func (v *X509CertificateValue) ToInfoMap(includeDetail bool) []CertificateInfo {
	infos := make([]CertificateInfo, 0, len(v.certs))
	for _, cert := range v.certs {
		infos = append(infos, newCertificateInfo(cert, includeDetail, v.log))
	}
	return infos
}

// ToDebugString renders one "Certificate N" block per certificate when
// pretty is set, otherwise the JSON encoding of ToInfoMap(false).
func (v *X509CertificateValue) ToDebugString(pretty bool, locale language.Tag) string {
	if !pretty {
		data, err := json.Marshal(v.ToInfoMap(false))
		if err != nil {
			v.log.Error("error serializing certificate info", logger.Error(err))
			return "[]"
		}
		return string(data)
	}

	p := message.NewPrinter(locale)
	var sb strings.Builder
	for i, cert := range v.certs {
		sb.WriteString(p.Sprintf("Certificate %s\n", strconv.Itoa(i)))
		sb.WriteString(p.Sprintf(" Subject: %s\n", cert.Subject.String()))
		sb.WriteString(p.Sprintf(" Serial: %s\n", encoding.HexSerial(cert)))
		sb.WriteString(p.Sprintf(" Issuer: %s\n", cert.Issuer.String()))
		sb.WriteString(p.Sprintf(" IssueDate: %s\n", formatDate(cert.NotBefore)))
		sb.WriteString(p.Sprintf(" ExpireDate: %s\n", formatDate(cert.NotAfter)))
		if h, ok := fingerprint(cert, codec.MD5, v.log); ok {
			sb.WriteString(p.Sprintf(" MD5 Hash: %s\n", h))
		}
		if h, ok := fingerprint(cert, codec.SHA1, v.log); ok {
			sb.WriteString(p.Sprintf(" SHA1 Hash: %s\n", h))
		}
	}
	return sb.String()
}

// X509CertificateFactory builds X509CertificateValue instances.
type X509CertificateFactory struct {
	opts options
}

// NewX509CertificateFactory returns a factory for X509CERT settings.
func NewX509CertificateFactory(opts ...Option) *X509CertificateFactory {
	return &X509CertificateFactory{opts: newOptions(opts)}
}

// FromXMLElement decodes every <value> child. Entries that fail to decode
// are logged at error level and dropped; the error return is always nil.
func (f *X509CertificateFactory) FromXMLElement(settingElement *etree.Element, key string) (StoredValue, error) {
	v, dropped := ParseX509CertificateElement(settingElement, f.opts.apply()...)
	logDropped(f.opts.log, key, v.Len(), dropped)
	return v, nil
}

// FromJSON always yields an empty value: certificates are imported from
// files or persisted documents, never from JSON.
func (f *X509CertificateFactory) FromJSON(string) (StoredValue, error) {
	return EmptyX509CertificateValue(f.opts.apply()...), nil
}
