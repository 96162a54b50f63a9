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
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha512"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/logger"
	"github.com/jeremyhahn/go-storedconfig/pkg/codec"
	"github.com/jeremyhahn/go-storedconfig/pkg/encoding"
	"github.com/jeremyhahn/go-storedconfig/pkg/setting"
	"github.com/jeremyhahn/go-storedconfig/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"golang.org/x/text/language"
)

func upperHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

func TestX509CertificateValue_RoundTripScenario(t *testing.T) {
	cert, _ := createTestCert(t, "test", 1)
	log := newRecordingLogger()

	original, err := value.NewX509CertificateValue([]*x509.Certificate{cert}, value.WithLogger(log))
	require.NoError(t, err)

	elements := original.ToXMLValues(value.ValueElement)
	require.Len(t, elements, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString(cert.Raw), elements[0].Text())

	factory := value.NewX509CertificateFactory(value.WithLogger(log))
	sv, err := factory.FromXMLElement(settingElement(setting.KeyLDAPServerCerts, elements...), setting.KeyLDAPServerCerts)
	require.NoError(t, err)

	parsed, ok := sv.(*value.X509CertificateValue)
	require.True(t, ok)
	assert.True(t, parsed.HasCertificates())
	require.Equal(t, 1, parsed.Len())
	assert.True(t, cert.Equal(parsed.Certificates()[0]))

	infos := parsed.ToInfoMap(false)
	require.Len(t, infos, 1)
	assert.Equal(t, "CN=test", infos[0].Subject)
	assert.Equal(t, "CN=test", infos[0].Issuer)
	assert.Equal(t, "01", infos[0].Serial)
	assert.NotEmpty(t, infos[0].MD5Hash)
	assert.NotEmpty(t, infos[0].SHA1Hash)
	assert.NotEmpty(t, infos[0].SHA512Hash)
	assert.Empty(t, infos[0].Detail)
	assert.Empty(t, log.at(logger.LevelError))
	assert.Empty(t, log.at(logger.LevelWarn))
}

func TestX509CertificateValue_RoundTripPreservesOrder(t *testing.T) {
	var certs []*x509.Certificate
	for i := range 4 {
		c, _ := createTestCert(t, fmt.Sprintf("cert-%d", i), int64(i+1))
		certs = append(certs, c)
	}

	v, err := value.NewX509CertificateValue(certs, value.WithLogger(newRecordingLogger()))
	require.NoError(t, err)

	parsed, dropped := value.ParseX509CertificateElement(settingElement("k", v.ToXMLValues("value")...))
	assert.Empty(t, dropped)
	got := parsed.Certificates()
	require.Len(t, got, len(certs))
	for i := range certs {
		assert.True(t, certs[i].Equal(got[i]), "certificate %d out of order", i)
	}
}

func TestX509CertificateValue_CustomElementName(t *testing.T) {
	cert, _ := createTestCert(t, "custom", 2)
	v, err := value.NewX509CertificateValue([]*x509.Certificate{cert})
	require.NoError(t, err)

	elements := v.ToXMLValues("cert")
	require.Len(t, elements, 1)
	assert.Equal(t, "cert", elements[0].Tag)
}

func TestX509CertificateFactory_PartialFailure(t *testing.T) {
	good1, _ := createTestCert(t, "good-1", 10)
	good2, _ := createTestCert(t, "good-2", 11)
	log := newRecordingLogger()

	el := settingElement(setting.KeyAuditSyslogCerts,
		textElement(base64.StdEncoding.EncodeToString(good1.Raw)),
		textElement("!!! not base64 !!!"),
		textElement(base64.StdEncoding.EncodeToString([]byte("not a certificate"))),
		textElement(""),
		textElement(base64.StdEncoding.EncodeToString(good2.Raw)),
	)

	results := value.DecodeCertificateElements(el)
	require.Len(t, results, 5)
	assert.True(t, results[0].OK())
	assert.ErrorIs(t, results[1].Err, codec.ErrInvalidBase64)
	assert.ErrorIs(t, results[2].Err, encoding.ErrInvalidCertificate)
	assert.ErrorIs(t, results[3].Err, codec.ErrInvalidBase64)
	assert.True(t, results[4].OK())
	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}

	sv, err := value.NewX509CertificateFactory(value.WithLogger(log)).
		FromXMLElement(el, setting.KeyAuditSyslogCerts)
	require.NoError(t, err)

	certs := sv.(*value.X509CertificateValue).Certificates()
	require.Len(t, certs, 2)
	assert.Equal(t, "good-1", certs[0].Subject.CommonName)
	assert.Equal(t, "good-2", certs[1].Subject.CommonName)

	errs := log.at(logger.LevelError)
	require.Len(t, errs, 3)
	assert.Equal(t, setting.KeyAuditSyslogCerts, errs[0].fields["setting"])
	assert.Equal(t, 1, errs[0].fields["index"])
	assert.Equal(t, 2, errs[1].fields["index"])
	assert.Equal(t, 3, errs[2].fields["index"])
}

func TestX509CertificateFactory_EmptyIsValid(t *testing.T) {
	sv, err := value.NewX509CertificateFactory().FromXMLElement(settingElement("k"), "k")
	require.NoError(t, err)

	v := sv.(*value.X509CertificateValue)
	assert.False(t, v.HasCertificates())
	assert.NotNil(t, v.Certificates())
	assert.Empty(t, v.Certificates())
	assert.Empty(t, v.ToXMLValues("value"))
	assert.Empty(t, v.Validate(nil))
	assert.NotNil(t, v.Validate(nil))
	assert.Equal(t, "[]", v.ToDebugString(false, language.English))
	assert.Equal(t, "", v.ToDebugString(true, language.English))

	native, ok := v.ToNativeObject().([]*x509.Certificate)
	require.True(t, ok)
	assert.NotNil(t, native)
	assert.Empty(t, native)
}

func TestX509CertificateFactory_NilElement(t *testing.T) {
	sv, err := value.NewX509CertificateFactory().FromXMLElement(nil, "k")
	require.NoError(t, err)
	assert.False(t, sv.(*value.X509CertificateValue).HasCertificates())
	assert.Nil(t, value.DecodeCertificateElements(nil))
}

func TestX509CertificateFactory_IgnoresOtherChildren(t *testing.T) {
	cert, _ := createTestCert(t, "only", 3)
	el := settingElement("k", textElement(base64.StdEncoding.EncodeToString(cert.Raw)))
	el.CreateElement("label").SetText("not a value")

	results := value.DecodeCertificateElements(el)
	require.Len(t, results, 1)
	assert.True(t, results[0].OK())
}

func TestX509CertificateFactory_AcceptsWrappedBase64(t *testing.T) {
	cert, _ := createTestCert(t, "wrapped", 4)
	b64 := base64.StdEncoding.EncodeToString(cert.Raw)

	var wrapped strings.Builder
	wrapped.WriteString("\n    ")
	for i := 0; i < len(b64); i += 64 {
		end := min(i+64, len(b64))
		wrapped.WriteString(b64[i:end])
		wrapped.WriteString("\n    ")
	}

	results := value.DecodeCertificateElements(settingElement("k", textElement(wrapped.String())))
	require.Len(t, results, 1)
	require.True(t, results[0].OK())
	assert.True(t, cert.Equal(results[0].Certificate))
}

func TestX509CertificateFactory_FromJSONAlwaysEmpty(t *testing.T) {
	cert, _ := createTestCert(t, "json", 5)
	factory := value.NewX509CertificateFactory()

	inputs := []string{
		"",
		"[]",
		"null",
		"{not json",
		fmt.Sprintf(`["%s"]`, base64.StdEncoding.EncodeToString(cert.Raw)),
		fmt.Sprintf(`[{"subject":"CN=json","raw":"%s"}]`, base64.StdEncoding.EncodeToString(cert.Raw)),
	}
	for _, input := range inputs {
		sv, err := factory.FromJSON(input)
		require.NoError(t, err, input)
		v := sv.(*value.X509CertificateValue)
		assert.False(t, v.HasCertificates(), input)
		assert.NotNil(t, v.Certificates(), input)
	}
}

func TestNewX509CertificateValue_NilRejection(t *testing.T) {
	_, err := value.NewX509CertificateValue(nil)
	assert.ErrorIs(t, err, value.ErrNilCertificates)

	cert, _ := createTestCert(t, "a", 1)
	_, err = value.NewX509CertificateValue([]*x509.Certificate{cert, nil})
	assert.ErrorIs(t, err, value.ErrNilCertificate)

	_, err = value.NewX509CertificateValueFromSeq(nil)
	assert.ErrorIs(t, err, value.ErrNilCertificates)

	_, err = value.NewX509CertificateValueFromSeq(slices.Values([]*x509.Certificate{nil}))
	assert.ErrorIs(t, err, value.ErrNilCertificate)

	empty, err := value.NewX509CertificateValue([]*x509.Certificate{})
	require.NoError(t, err)
	assert.False(t, empty.HasCertificates())

	fromSeq, err := value.NewX509CertificateValueFromSeq(slices.Values([]*x509.Certificate(nil)))
	require.NoError(t, err)
	assert.NotNil(t, fromSeq.Certificates())
	assert.False(t, fromSeq.HasCertificates())
}

func TestNewX509CertificateValueFromSeq(t *testing.T) {
	a, _ := createTestCert(t, "a", 1)
	b, _ := createTestCert(t, "b", 2)

	v, err := value.NewX509CertificateValueFromSeq(slices.Values([]*x509.Certificate{a, b}))
	require.NoError(t, err)
	certs := v.Certificates()
	require.Len(t, certs, 2)
	assert.Same(t, a, certs[0])
	assert.Same(t, b, certs[1])
}

func TestX509CertificateValue_DefensiveCopies(t *testing.T) {
	a, _ := createTestCert(t, "a", 1)
	b, _ := createTestCert(t, "b", 2)

	input := []*x509.Certificate{a}
	v, err := value.NewX509CertificateValue(input)
	require.NoError(t, err)

	input[0] = b
	assert.Same(t, a, v.Certificates()[0])

	out := v.Certificates()
	out[0] = b
	assert.Same(t, a, v.Certificates()[0])

	native := v.ToNativeObject().([]*x509.Certificate)
	native[0] = b
	assert.Same(t, a, v.Certificates()[0])
}

func TestX509CertificateValue_EncodeFailureIsSkipped(t *testing.T) {
	good, _ := createTestCert(t, "good", 1)
	log := newRecordingLogger()

	v, err := value.NewX509CertificateValue([]*x509.Certificate{good, handmadeCert("handmade")}, value.WithLogger(log))
	require.NoError(t, err)

	elements := v.ToXMLValues("value")
	require.Len(t, elements, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString(good.Raw), elements[0].Text())

	errs := log.at(logger.LevelError)
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].fields["index"])
	assert.ErrorIs(t, errs[0].fields["error"].(error), value.ErrCertificateEncoding)
	assert.ErrorIs(t, errs[0].fields["error"].(error), encoding.ErrMissingRawEncoding)
}

func TestX509CertificateValue_HashFailureOmitsFields(t *testing.T) {
	log := newRecordingLogger()
	v, err := value.NewX509CertificateValue([]*x509.Certificate{handmadeCert("handmade")}, value.WithLogger(log))
	require.NoError(t, err)

	infos := v.ToInfoMap(false)
	require.Len(t, infos, 1)
	assert.Equal(t, "CN=handmade", infos[0].Subject)
	assert.Equal(t, "05", infos[0].Serial)
	assert.Empty(t, infos[0].MD5Hash)
	assert.Empty(t, infos[0].SHA1Hash)
	assert.Empty(t, infos[0].SHA512Hash)

	warns := log.at(logger.LevelWarn)
	require.Len(t, warns, 3)
	assert.Equal(t, "MD5", warns[0].fields["algorithm"])
	assert.Equal(t, "SHA1", warns[1].fields["algorithm"])
	assert.Equal(t, "SHA512", warns[2].fields["algorithm"])

	compact := v.ToDebugString(false, language.English)
	assert.False(t, gjson.Get(compact, "0.md5Hash").Exists())
	assert.False(t, gjson.Get(compact, "0.sha512Hash").Exists())
	assert.Equal(t, "CN=handmade", gjson.Get(compact, "0.subject").String())

	pretty := v.ToDebugString(true, language.English)
	assert.Contains(t, pretty, "Certificate 0\n")
	assert.Contains(t, pretty, " ExpireDate: ")
	assert.NotContains(t, pretty, "MD5 Hash")
	assert.NotContains(t, pretty, "SHA1 Hash")
}

func TestX509CertificateValue_HashStability(t *testing.T) {
	cert, _ := createTestCert(t, "stable", 9)
	v, err := value.NewX509CertificateValue([]*x509.Certificate{cert})
	require.NoError(t, err)

	md5Sum := md5.Sum(cert.Raw)
	sha1Sum := sha1.Sum(cert.Raw)
	sha512Sum := sha512.Sum512(cert.Raw)

	first := v.ToInfoMap(false)[0]
	assert.Equal(t, upperHex(md5Sum[:]), first.MD5Hash)
	assert.Equal(t, upperHex(sha1Sum[:]), first.SHA1Hash)
	assert.Equal(t, upperHex(sha512Sum[:]), first.SHA512Hash)

	second := v.ToInfoMap(true)[0]
	assert.Equal(t, first.MD5Hash, second.MD5Hash)
	assert.Equal(t, first.SHA1Hash, second.SHA1Hash)
	assert.Equal(t, first.SHA512Hash, second.SHA512Hash)

	for _, tag := range []language.Tag{language.English, language.German, language.Japanese} {
		compact := v.ToDebugString(false, tag)
		assert.Equal(t, first.SHA512Hash, gjson.Get(compact, "0.sha512Hash").String())
	}
}

func TestX509CertificateValue_ToInfoMapDetail(t *testing.T) {
	cert, _ := createTestCert(t, "test", 1)
	v, err := value.NewX509CertificateValue([]*x509.Certificate{cert})
	require.NoError(t, err)

	withDetail := v.ToInfoMap(true)
	require.Len(t, withDetail, 1)
	assert.Contains(t, withDetail[0].Detail, "Subject: CN=test")
	assert.Equal(t, encoding.FormatCertificateDetail(cert), withDetail[0].Detail)

	assert.Empty(t, v.ToInfoMap(false)[0].Detail)
}

func TestX509CertificateValue_DebugStringPretty(t *testing.T) {
	a, _ := createTestCert(t, "alpha", 0xA1)
	b, _ := createTestCert(t, "beta", 0xB2)
	v, err := value.NewX509CertificateValue([]*x509.Certificate{a, b})
	require.NoError(t, err)

	out := v.ToDebugString(true, language.English)

	first := strings.Index(out, "Certificate 0\n")
	second := strings.Index(out, "Certificate 1\n")
	require.GreaterOrEqual(t, first, 0)
	require.Greater(t, second, first)
	assert.Equal(t, 2, strings.Count(out, "Certificate "))

	block := out[first:second]
	md5Sum := md5.Sum(a.Raw)
	sha1Sum := sha1.Sum(a.Raw)
	expected := strings.Join([]string{
		"Certificate 0",
		" Subject: CN=alpha",
		" Serial: A1",
		" Issuer: CN=alpha",
		" IssueDate: " + a.NotBefore.UTC().Format(time.UnixDate),
		" ExpireDate: " + a.NotAfter.UTC().Format(time.UnixDate),
		" MD5 Hash: " + upperHex(md5Sum[:]),
		" SHA1 Hash: " + upperHex(sha1Sum[:]),
		"",
	}, "\n")
	assert.Equal(t, expected, block)
	assert.Contains(t, out[second:], " Subject: CN=beta\n")
	assert.NotContains(t, out, "SHA512")
}

func TestX509CertificateValue_DebugStringIndexIgnoresLocaleGrouping(t *testing.T) {
	cert, _ := createTestCert(t, "bulk", 0x10)
	certs := make([]*x509.Certificate, 1001)
	for i := range certs {
		certs[i] = cert
	}
	v, err := value.NewX509CertificateValue(certs)
	require.NoError(t, err)

	for _, tag := range []language.Tag{language.English, language.German, language.French} {
		t.Run(tag.String(), func(t *testing.T) {
			out := v.ToDebugString(true, tag)
			assert.Contains(t, out, "Certificate 999\n")
			assert.Contains(t, out, "Certificate 1000\n")
			assert.NotContains(t, out, "Certificate 1,000")
			assert.NotContains(t, out, "Certificate 1.000")
			assert.Equal(t, 1001, strings.Count(out, " Subject: CN=bulk\n"))
		})
	}
}

func TestX509CertificateValue_DebugStringCompact(t *testing.T) {
	a, _ := createTestCert(t, "alpha", 1)
	b, _ := createTestCert(t, "beta", 2)
	v, err := value.NewX509CertificateValue([]*x509.Certificate{a, b})
	require.NoError(t, err)

	compact := v.ToDebugString(false, language.English)
	assert.NotContains(t, compact, "\n")

	var decoded []value.CertificateInfo
	require.NoError(t, json.Unmarshal([]byte(compact), &decoded))
	assert.Equal(t, v.ToInfoMap(false), decoded)

	assert.Equal(t, int64(2), gjson.Get(compact, "#").Int())
	assert.Equal(t, "CN=beta", gjson.Get(compact, "1.subject").String())
	assert.False(t, gjson.Get(compact, "0.detail").Exists())

	keys := []string{}
	gjson.Get(compact, "0").ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.String())
		return true
	})
	assert.Equal(t, []string{"subject", "serial", "issuer", "issueDate", "expireDate", "md5Hash", "sha1Hash", "sha512Hash"}, keys)
}

func TestX509CertificateValue_ValidateAlwaysEmpty(t *testing.T) {
	cert, _ := createTestCert(t, "v", 1)
	v, err := value.NewX509CertificateValue([]*x509.Certificate{cert})
	require.NoError(t, err)

	s, err := setting.Lookup(setting.KeyLDAPServerCerts)
	require.NoError(t, err)
	assert.Empty(t, v.Validate(s))

	s.Required = true
	assert.Empty(t, value.EmptyX509CertificateValue().Validate(s))
}

func TestX509CertificateValue_ConcurrentReads(t *testing.T) {
	cert, _ := createTestCert(t, "concurrent", 1)
	v, err := value.NewX509CertificateValue([]*x509.Certificate{cert}, value.WithLogger(newRecordingLogger()))
	require.NoError(t, err)

	done := make(chan string, 8)
	for range 8 {
		go func() {
			_ = v.ToXMLValues("value")
			done <- v.ToInfoMap(false)[0].SHA1Hash
		}()
	}
	first := <-done
	for range 7 {
		assert.Equal(t, first, <-done)
	}
}

func TestX509CertificateValue_ToXMLValuesDocument(t *testing.T) {
	cert, _ := createTestCert(t, "doc", 1)
	v, err := value.NewX509CertificateValue([]*x509.Certificate{cert})
	require.NoError(t, err)

	doc := etree.NewDocument()
	root := doc.CreateElement("setting")
	for _, el := range v.ToXMLValues("value") {
		root.AddChild(el)
	}
	data, err := doc.WriteToString()
	require.NoError(t, err)

	reloaded := etree.NewDocument()
	require.NoError(t, reloaded.ReadFromString(data))
	parsed, dropped := value.ParseX509CertificateElement(reloaded.Root())
	assert.Empty(t, dropped)
	assert.Equal(t, 1, parsed.Len())
}
