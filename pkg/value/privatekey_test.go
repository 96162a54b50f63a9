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

package value_test

import (
	"crypto/x509"
	"testing"

	"github.com/beevik/etree"
	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/logger"
	"github.com/jeremyhahn/go-storedconfig/pkg/codec"
	"github.com/jeremyhahn/go-storedconfig/pkg/setting"
	"github.com/jeremyhahn/go-storedconfig/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"golang.org/x/text/language"
)

var securityKey = []byte("configuration-security-key")

func TestPrivateKeyValue_RoundTrip(t *testing.T) {
	cert, key := createTestCert(t, "https.example.com", 7)
	log := newRecordingLogger()

	v, err := value.NewPrivateKeyValue([]*x509.Certificate{cert}, key,
		value.WithSecurityKey(securityKey), value.WithLogger(log))
	require.NoError(t, err)

	elements := v.ToXMLValues("value")
	require.Len(t, elements, 1)
	assert.Len(t, elements[0].SelectElements(value.CertificateElement), 1)
	require.NotNil(t, elements[0].SelectElement(value.KeyElement))

	factory := value.NewPrivateKeyFactory(value.WithSecurityKey(securityKey), value.WithLogger(log))
	sv, err := factory.FromXMLElement(settingElement(setting.KeyHTTPSServerCert, elements...), setting.KeyHTTPSServerCert)
	require.NoError(t, err)

	native, ok := sv.ToNativeObject().(value.PrivateKeyCertificate)
	require.True(t, ok)
	require.Len(t, native.Certificates, 1)
	assert.True(t, cert.Equal(native.Certificates[0]))
	require.NotNil(t, native.Key)
	assert.True(t, key.Equal(native.Key))

	assert.Empty(t, sv.Validate(nil))
	assert.Empty(t, log.at(logger.LevelError))
}

func TestPrivateKeyValue_KeyIsEncrypted(t *testing.T) {
	cert, key := createTestCert(t, "enc", 1)
	v, err := value.NewPrivateKeyValue([]*x509.Certificate{cert}, key, value.WithSecurityKey(securityKey))
	require.NoError(t, err)

	keyText := v.ToXMLValues("value")[0].SelectElement(value.KeyElement).Text()
	der, err := codec.Base64Decode(keyText)
	require.NoError(t, err)

	_, err = x509.ParsePKCS8PrivateKey(der)
	assert.Error(t, err, "persisted key must not be plain PKCS#8")
}

func TestPrivateKeyFactory_WrongSecurityKeyKeepsSealedKey(t *testing.T) {
	cert, key := createTestCert(t, "wrong", 1)
	v, err := value.NewPrivateKeyValue([]*x509.Certificate{cert}, key, value.WithSecurityKey(securityKey))
	require.NoError(t, err)
	persisted := v.ToXMLValues("value")
	sealed := persisted[0].SelectElement(value.KeyElement).Text()

	log := newRecordingLogger()
	sv, err := value.NewPrivateKeyFactory(value.WithSecurityKey([]byte("other")), value.WithLogger(log)).
		FromXMLElement(settingElement("k", persisted...), "k")
	require.NoError(t, err)

	pv := sv.(*value.PrivateKeyValue)
	assert.Len(t, pv.Certificates(), 1)
	assert.Nil(t, pv.PrivateKey())
	require.Len(t, log.at(logger.LevelError), 1)

	problems := pv.Validate(nil)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "cannot be decrypted")

	rewritten := pv.ToXMLValues("value")
	require.Len(t, rewritten, 1)
	keyEl := rewritten[0].SelectElement(value.KeyElement)
	require.NotNil(t, keyEl)
	assert.Equal(t, sealed, keyEl.Text())

	assert.Contains(t, pv.ToDebugString(true, language.English), "PrivateKey: sealed\n")
	assert.True(t, gjson.Get(pv.ToDebugString(false, language.English), "sealed").Bool())
}

func TestPrivateKeyFactory_MissingSecurityKeyKeepsSealedKey(t *testing.T) {
	cert, key := createTestCert(t, "unkeyed", 1)
	v, err := value.NewPrivateKeyValue([]*x509.Certificate{cert}, key, value.WithSecurityKey(securityKey))
	require.NoError(t, err)
	persisted := v.ToXMLValues("value")
	sealed := persisted[0].SelectElement(value.KeyElement).Text()

	log := newRecordingLogger()
	sv, err := value.NewPrivateKeyFactory(value.WithLogger(log)).
		FromXMLElement(settingElement("k", persisted...), "k")
	require.NoError(t, err)

	pv := sv.(*value.PrivateKeyValue)
	assert.False(t, pv.IsEmpty())
	errs := log.at(logger.LevelError)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0].fields["error"].(error), value.ErrMissingSecurityKey)

	keyEl := pv.ToXMLValues("value")[0].SelectElement(value.KeyElement)
	require.NotNil(t, keyEl)
	assert.Equal(t, sealed, keyEl.Text())
}

func TestPrivateKeyValue_DebugStringChainIndex(t *testing.T) {
	cert, key := createTestCert(t, "chain", 1)
	chain := make([]*x509.Certificate, 1001)
	for i := range chain {
		chain[i] = cert
	}
	v, err := value.NewPrivateKeyValue(chain, key)
	require.NoError(t, err)

	out := v.ToDebugString(true, language.German)
	assert.Contains(t, out, "Certificate 1000\n")
	assert.NotContains(t, out, "Certificate 1.000")
}

func TestPrivateKeyValue_MissingSecurityKeyOmitsKey(t *testing.T) {
	cert, key := createTestCert(t, "nokey", 1)
	log := newRecordingLogger()

	v, err := value.NewPrivateKeyValue([]*x509.Certificate{cert}, key, value.WithLogger(log))
	require.NoError(t, err)

	elements := v.ToXMLValues("value")
	require.Len(t, elements, 1)
	assert.Nil(t, elements[0].SelectElement(value.KeyElement))
	assert.Len(t, elements[0].SelectElements(value.CertificateElement), 1)

	errs := log.at(logger.LevelError)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0].fields["error"].(error), value.ErrMissingSecurityKey)
}

func TestPrivateKeyValue_ValidateMismatch(t *testing.T) {
	cert, _ := createTestCert(t, "leaf", 1)
	_, otherKey := createTestCert(t, "other", 2)

	v, err := value.NewPrivateKeyValue([]*x509.Certificate{cert}, otherKey)
	require.NoError(t, err)

	s, err := setting.Lookup(setting.KeyHTTPSServerCert)
	require.NoError(t, err)

	problems := v.Validate(s)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "does not match certificate CN=leaf")
	assert.Contains(t, problems[0], setting.KeyHTTPSServerCert)
}

func TestPrivateKeyValue_ValidateHalves(t *testing.T) {
	cert, key := createTestCert(t, "half", 1)

	keyOnly, err := value.NewPrivateKeyValue([]*x509.Certificate{}, key)
	require.NoError(t, err)
	assert.Contains(t, keyOnly.Validate(nil)[0], "no certificate")

	empty := value.EmptyPrivateKeyValue()
	assert.Empty(t, empty.Validate(nil))
	assert.Empty(t, empty.ToXMLValues("value"))
	assert.True(t, empty.IsEmpty())

	required := &setting.Setting{Key: "k", Required: true}
	assert.Len(t, empty.Validate(required), 1)

	certOnly, err := value.NewPrivateKeyValue([]*x509.Certificate{cert}, nil)
	require.NoError(t, err)
	assert.False(t, certOnly.IsEmpty())
}

func TestNewPrivateKeyValue_Rejections(t *testing.T) {
	_, key := createTestCert(t, "x", 1)

	_, err := value.NewPrivateKeyValue(nil, key)
	assert.ErrorIs(t, err, value.ErrNilCertificates)

	_, err = value.NewPrivateKeyValue([]*x509.Certificate{nil}, key)
	assert.ErrorIs(t, err, value.ErrNilCertificate)

	_, err = value.NewPrivateKeyValue([]*x509.Certificate{}, "not a key")
	assert.Error(t, err)
}

func TestPrivateKeyValue_DebugStringHidesKey(t *testing.T) {
	cert, key := createTestCert(t, "debug", 1)
	v, err := value.NewPrivateKeyValue([]*x509.Certificate{cert}, key, value.WithSecurityKey(securityKey))
	require.NoError(t, err)

	pretty := v.ToDebugString(true, language.English)
	assert.Contains(t, pretty, "PrivateKey: ECDSA-P-256\n")
	assert.Contains(t, pretty, "Certificate 0\n Subject: CN=debug\n")

	compact := v.ToDebugString(false, language.English)
	assert.Equal(t, "ECDSA-P-256", gjson.Get(compact, "keyType").String())
	assert.Equal(t, "CN=debug", gjson.Get(compact, "certificates.0.subject").String())
	assert.False(t, gjson.Get(compact, "key").Exists())
}

func TestPrivateKeyFactory_EmptyInputs(t *testing.T) {
	factory := value.NewPrivateKeyFactory(value.WithSecurityKey(securityKey))

	sv, err := factory.FromJSON(`{"key":"anything"}`)
	require.NoError(t, err)
	assert.True(t, sv.(*value.PrivateKeyValue).IsEmpty())

	sv, err = factory.FromXMLElement(etree.NewElement("setting"), "k")
	require.NoError(t, err)
	assert.True(t, sv.(*value.PrivateKeyValue).IsEmpty())

	sv, err = factory.FromXMLElement(nil, "k")
	require.NoError(t, err)
	assert.True(t, sv.(*value.PrivateKeyValue).IsEmpty())
}
