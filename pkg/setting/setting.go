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

// Package setting describes the configuration settings known to a stored
// configuration document: their keys, syntax and validation constraints.
package setting

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Syntax identifies the value type stored for a setting.
type Syntax string

const (
	SyntaxString     Syntax = "STRING"
	SyntaxBoolean    Syntax = "BOOLEAN"
	SyntaxX509Cert   Syntax = "X509CERT"
	SyntaxPrivateKey Syntax = "PRIVATE_KEY"
)

// Syntaxes returns every supported syntax.
func Syntaxes() []Syntax {
	return []Syntax{SyntaxString, SyntaxBoolean, SyntaxX509Cert, SyntaxPrivateKey}
}

// ParseSyntax converts the persisted syntax attribute into a Syntax.
func ParseSyntax(s string) (Syntax, error) {
	syntax := Syntax(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Syntaxes() {
		if syntax == known {
			return syntax, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSyntax, s)
}

func (s Syntax) String() string {
	return string(s)
}

// Category groups related settings.
type Category string

const (
	CategoryLDAP  Category = "LDAP"
	CategoryHTTPS Category = "HTTPS"
	CategoryEmail Category = "EMAIL"
	CategoryAudit Category = "AUDIT"
)

var (
	// ErrUnknownSetting is returned when a key is not in the catalog
	ErrUnknownSetting = errors.New("setting: unknown setting")

	// ErrUnknownSyntax is returned for an unrecognized syntax name
	ErrUnknownSyntax = errors.New("setting: unknown syntax")
)

// Setting is the metadata for a single configuration key. Values consult
// it when validating themselves.
type Setting struct {
	Key         string   `json:"key" yaml:"key"`
	Label       string   `json:"label" yaml:"label"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Category    Category `json:"category" yaml:"category"`
	Syntax      Syntax   `json:"syntax" yaml:"syntax"`
	Required    bool     `json:"required,omitempty" yaml:"required,omitempty"`

	// Pattern, when set, is a regular expression string values must match
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// MaxLength limits string values; zero means unlimited
	MaxLength int `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
}

// Regexp compiles the setting's pattern. It returns nil when no pattern is
// configured.
func (s *Setting) Regexp() (*regexp.Regexp, error) {
	if s == nil || s.Pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(s.Pattern)
	if err != nil {
		return nil, fmt.Errorf("setting: invalid pattern for %s: %w", s.Key, err)
	}
	return re, nil
}
