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
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"slices"
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

// Child elements of a persisted private key value
const (
	CertificateElement = "certificate"
	KeyElement         = "key"
)

// PrivateKeyCertificate is the native form of a PrivateKeyValue.
type PrivateKeyCertificate struct {
	Certificates []*x509.Certificate
	Key          crypto.PrivateKey
}

// PrivateKeyValue holds a certificate chain (leaf first) together with the
// private key of the leaf, for example the HTTPS server identity. The key is
// persisted as PKCS#8 encrypted with the configuration security key.
//
// A persisted key that cannot be decrypted, for example because the security
// key is not configured, is kept in its sealed form and written back as is.
type PrivateKeyValue struct {
	certs       []*x509.Certificate
	key         crypto.PrivateKey
	sealedKey   string
	securityKey []byte
	log         logger.Logger
}

// NewPrivateKeyValue builds a value from a certificate chain and key. A nil
// chain is rejected with ErrNilCertificates.
func NewPrivateKeyValue(certs []*x509.Certificate, key crypto.PrivateKey, opts ...Option) (*PrivateKeyValue, error) {
	if certs == nil {
		return nil, ErrNilCertificates
	}
	for i, cert := range certs {
		if cert == nil {
			return nil, fmt.Errorf("%w: index %d", ErrNilCertificate, i)
		}
	}
	if key != nil {
		if _, err := encoding.PublicKey(key); err != nil {
			return nil, err
		}
	}

	o := newOptions(opts)
	return &PrivateKeyValue{
		certs:       slices.Clone(certs),
		key:         key,
		securityKey: o.securityKey,
		log:         o.log,
	}, nil
}

// EmptyPrivateKeyValue returns a value with no chain and no key.
func EmptyPrivateKeyValue(opts ...Option) *PrivateKeyValue {
	o := newOptions(opts)
	return &PrivateKeyValue{
		certs:       []*x509.Certificate{},
		securityKey: o.securityKey,
		log:         o.log,
	}
}

// Certificates returns a copy of the certificate chain.
func (v *PrivateKeyValue) Certificates() []*x509.Certificate {
	return slices.Clone(v.certs)
}

// PrivateKey returns the held private key, or nil.
func (v *PrivateKeyValue) PrivateKey() crypto.PrivateKey {
	return v.key
}

// IsEmpty reports whether neither a chain nor a key is held.
func (v *PrivateKeyValue) IsEmpty() bool {
	return len(v.certs) == 0 && v.key == nil && v.sealedKey == ""
}

// ToXMLValues writes a single element holding one <certificate> child per
// chain entry and a <key> child with the encrypted key. A sealed key is
// written back unchanged. An empty value yields no elements.
func (v *PrivateKeyValue) ToXMLValues(valueElementName string) []*etree.Element {
	if v.IsEmpty() {
		return []*etree.Element{}
	}

	el := etree.NewElement(valueElementName)
	for i, cert := range v.certs {
		b64, err := encodeCertificate(cert)
		if err != nil {
			metrics.RecordEncodeFailure(setting.SyntaxPrivateKey.String())
			v.log.Error("error encoding certificate",
				logger.Int("index", i),
				logger.String("subject", cert.Subject.String()),
				logger.Error(err))
			continue
		}
		el.CreateElement(CertificateElement).SetText(b64)
	}

	if v.key != nil {
		b64, err := v.encodeKey()
		if err != nil {
			metrics.RecordEncodeFailure(setting.SyntaxPrivateKey.String())
			v.log.Error("error encoding private key", logger.Error(err))
		} else {
			el.CreateElement(KeyElement).SetText(b64)
		}
	} else if v.sealedKey != "" {
		el.CreateElement(KeyElement).SetText(v.sealedKey)
	}
	return []*etree.Element{el}
}

func (v *PrivateKeyValue) encodeKey() (string, error) {
	if len(v.securityKey) == 0 {
		return "", ErrMissingSecurityKey
	}
	der, err := encoding.EncodePKCS8(v.key, v.securityKey)
	if err != nil {
		return "", err
	}
	return codec.Base64Encode(der), nil
}

func (v *PrivateKeyValue) ToNativeObject() any {
	return PrivateKeyCertificate{
		Certificates: v.Certificates(),
		Key:          v.key,
	}
}

// Validate reports a key without a certificate, a certificate without a key
// and a key that does not belong to the leaf certificate.
func (v *PrivateKeyValue) Validate(s *setting.Setting) []string {
	problems := []string{}
	name := "private key"
	if s != nil {
		name = s.Key
	}

	switch {
	case v.IsEmpty():
		if s != nil && s.Required {
			problems = append(problems, fmt.Sprintf("%s: a certificate and private key are required", name))
		}
	case v.key == nil && v.sealedKey != "":
		problems = append(problems, fmt.Sprintf("%s: private key cannot be decrypted with the configured security key", name))
	case v.key == nil:
		problems = append(problems, fmt.Sprintf("%s: certificate has no private key", name))
	case len(v.certs) == 0:
		problems = append(problems, fmt.Sprintf("%s: private key has no certificate", name))
	default:
		pub, err := encoding.PublicKey(v.key)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			break
		}
		leaf, ok := v.certs[0].PublicKey.(interface{ Equal(crypto.PublicKey) bool })
		if !ok || !leaf.Equal(pub) {
			problems = append(problems, fmt.Sprintf("%s: private key does not match certificate %s", name, v.certs[0].Subject))
		}
	}
	return problems
}

type privateKeyInfo struct {
	KeyType      string            `json:"keyType,omitempty"`
	Sealed       bool              `json:"sealed,omitempty"`
	Certificates []CertificateInfo `json:"certificates"`
}

// ToDebugString describes the key type and the chain. Key material is never
// rendered.
func (v *PrivateKeyValue) ToDebugString(pretty bool, locale language.Tag) string {
	chain := &X509CertificateValue{certs: v.certs, log: v.log}
	if !pretty {
		data, err := json.Marshal(privateKeyInfo{
			KeyType:      keyType(v.key),
			Sealed:       v.key == nil && v.sealedKey != "",
			Certificates: chain.ToInfoMap(false),
		})
		if err != nil {
			v.log.Error("error serializing private key info", logger.Error(err))
			return "{}"
		}
		return string(data)
	}

	var sb strings.Builder
	switch {
	case v.key != nil:
		sb.WriteString(message.NewPrinter(locale).Sprintf("PrivateKey: %s\n", keyType(v.key)))
	case v.sealedKey != "":
		sb.WriteString("PrivateKey: sealed\n")
	}
	sb.WriteString(chain.ToDebugString(true, locale))
	return sb.String()
}

func keyType(key crypto.PrivateKey) string {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return fmt.Sprintf("RSA-%d", k.N.BitLen())
	case *ecdsa.PrivateKey:
		return "ECDSA-" + k.Curve.Params().Name
	case ed25519.PrivateKey:
		return "Ed25519"
	default:
		return ""
	}
}

// PrivateKeyFactory builds PrivateKeyValue instances. The security key
// configured through WithSecurityKey decrypts persisted keys.
type PrivateKeyFactory struct {
	opts options
}

// NewPrivateKeyFactory returns a factory for PRIVATE_KEY settings.
func NewPrivateKeyFactory(opts ...Option) *PrivateKeyFactory {
	return &PrivateKeyFactory{opts: newOptions(opts)}
}

// FromXMLElement decodes the chain and key from the first <value> child.
// Certificates that cannot be decoded are logged and dropped. A key that
// cannot be decrypted is logged and kept sealed so a later save does not
// lose it.
func (f *PrivateKeyFactory) FromXMLElement(settingElement *etree.Element, key string) (StoredValue, error) {
	v := EmptyPrivateKeyValue(f.opts.apply()...)
	if settingElement == nil {
		return v, nil
	}
	valueEl := settingElement.SelectElement(ValueElement)
	if valueEl == nil {
		return v, nil
	}

	kept, dropped := partitionResults(decodeCertificateChildren(valueEl, CertificateElement))
	logDropped(f.opts.log, key, len(kept), dropped)
	v.certs = kept

	if keyEl := valueEl.SelectElement(KeyElement); keyEl != nil {
		sealed := strings.TrimSpace(keyEl.Text())
		pk, err := f.decodeKey(sealed)
		if err != nil {
			f.opts.log.Error("error decoding private key, keeping it sealed",
				logger.String("setting", key),
				logger.Error(err))
			v.sealedKey = sealed
		} else {
			v.key = pk
		}
	}
	return v, nil
}

func (f *PrivateKeyFactory) decodeKey(b64 string) (crypto.PrivateKey, error) {
	if len(f.opts.securityKey) == 0 {
		return nil, ErrMissingSecurityKey
	}
	der, err := codec.Base64Decode(b64)
	if err != nil {
		return nil, err
	}
	return encoding.DecodePKCS8(der, f.opts.securityKey)
}

// FromJSON always yields an empty value; keys are never imported as JSON.
func (f *PrivateKeyFactory) FromJSON(string) (StoredValue, error) {
	return EmptyPrivateKeyValue(f.opts.apply()...), nil
}
