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
	"strings"
	"testing"

	"github.com/jeremyhahn/go-storedconfig/pkg/setting"
	"github.com/jeremyhahn/go-storedconfig/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestStringValue_XMLRoundTrip(t *testing.T) {
	v := value.NewStringValue("cn=proxy,ou=service,o=example")

	elements := v.ToXMLValues("value")
	require.Len(t, elements, 1)

	sv, err := value.StringFactory{}.FromXMLElement(settingElement(setting.KeyLDAPProxyUsername, elements...), setting.KeyLDAPProxyUsername)
	require.NoError(t, err)
	assert.Equal(t, "cn=proxy,ou=service,o=example", sv.ToNativeObject())
}

func TestStringFactory_MissingValue(t *testing.T) {
	sv, err := value.StringFactory{}.FromXMLElement(settingElement("k"), "k")
	require.NoError(t, err)
	assert.Equal(t, "", sv.ToNativeObject())

	sv, err = value.StringFactory{}.FromXMLElement(nil, "k")
	require.NoError(t, err)
	assert.Equal(t, "", sv.ToNativeObject())
}

func TestStringFactory_FromJSON(t *testing.T) {
	sv, err := value.StringFactory{}.FromJSON(`"ldaps://ldap.example.com:636"`)
	require.NoError(t, err)
	assert.Equal(t, "ldaps://ldap.example.com:636", sv.ToNativeObject())

	sv, err = value.StringFactory{}.FromJSON(`null`)
	require.NoError(t, err)
	assert.Equal(t, "", sv.ToNativeObject())

	_, err = value.StringFactory{}.FromJSON(`42`)
	assert.ErrorIs(t, err, value.ErrInvalidJSON)

	_, err = value.StringFactory{}.FromJSON(`"unterminated`)
	assert.ErrorIs(t, err, value.ErrInvalidJSON)
}

func TestStringValue_Validate(t *testing.T) {
	s := &setting.Setting{
		Key:       "ldap.serverUrls",
		Required:  true,
		Pattern:   `^ldaps?://`,
		MaxLength: 20,
	}

	assert.Empty(t, value.NewStringValue("ldaps://host").Validate(s))

	problems := value.NewStringValue("").Validate(s)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "required")

	problems = value.NewStringValue("http://" + strings.Repeat("x", 30)).Validate(s)
	require.Len(t, problems, 2)
	assert.Contains(t, problems[0], "maximum length of 20")
	assert.Contains(t, problems[1], "does not match pattern")

	assert.Empty(t, value.NewStringValue("").Validate(nil))

	bad := &setting.Setting{Key: "k", Pattern: "("}
	assert.Len(t, value.NewStringValue("x").Validate(bad), 1)
}

func TestStringValue_DebugString(t *testing.T) {
	v := value.NewStringValue(`say "hi"`)
	assert.Equal(t, `say "hi"`, v.ToDebugString(true, language.English))
	assert.Equal(t, `"say \"hi\""`, v.ToDebugString(false, language.English))
	assert.Equal(t, `say "hi"`, v.String())
}

func TestBooleanValue_XMLRoundTrip(t *testing.T) {
	for _, b := range []bool{true, false} {
		elements := value.NewBooleanValue(b).ToXMLValues("value")
		require.Len(t, elements, 1)

		sv, err := value.BooleanFactory{}.FromXMLElement(settingElement("k", elements...), "k")
		require.NoError(t, err)
		assert.Equal(t, b, sv.ToNativeObject())
	}
}

func TestBooleanFactory_FromXMLElement(t *testing.T) {
	sv, err := value.BooleanFactory{}.FromXMLElement(settingElement("k", textElement(" TRUE ")), "k")
	require.NoError(t, err)
	assert.Equal(t, true, sv.ToNativeObject())

	sv, err = value.BooleanFactory{}.FromXMLElement(settingElement("k"), "k")
	require.NoError(t, err)
	assert.Equal(t, false, sv.ToNativeObject())

	_, err = value.BooleanFactory{}.FromXMLElement(settingElement("k", textElement("maybe")), "k")
	assert.ErrorIs(t, err, value.ErrInvalidValue)
}

func TestBooleanFactory_FromJSON(t *testing.T) {
	sv, err := value.BooleanFactory{}.FromJSON(`true`)
	require.NoError(t, err)
	assert.True(t, sv.(*value.BooleanValue).Bool())

	sv, err = value.BooleanFactory{}.FromJSON(` false `)
	require.NoError(t, err)
	assert.False(t, sv.(*value.BooleanValue).Bool())

	_, err = value.BooleanFactory{}.FromJSON(`"true"`)
	assert.ErrorIs(t, err, value.ErrInvalidJSON)

	_, err = value.BooleanFactory{}.FromJSON(`tru`)
	assert.ErrorIs(t, err, value.ErrInvalidJSON)
}

func TestBooleanValue_DebugString(t *testing.T) {
	assert.Equal(t, "True", value.NewBooleanValue(true).ToDebugString(true, language.English))
	assert.Equal(t, "False", value.NewBooleanValue(false).ToDebugString(true, language.English))
	assert.Equal(t, "true", value.NewBooleanValue(true).ToDebugString(false, language.English))
	assert.Empty(t, value.NewBooleanValue(true).Validate(nil))
}
