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

// Package value implements the typed values held by a stored configuration
// document. Every value knows how to write itself as XML elements, how to be
// rebuilt from the persisted <setting> element, how to validate itself
// against its setting metadata and how to render diagnostics.
//
// Values are immutable once constructed and safe for concurrent reads.
// Persisted data that cannot be decoded is logged and dropped entry by entry
// so a single bad blob never prevents a configuration from loading.
package value

import (
	"github.com/beevik/etree"
	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/logger"
	"github.com/jeremyhahn/go-storedconfig/pkg/setting"
	"golang.org/x/text/language"
)

// ValueElement is the child element name holding each persisted item.
const ValueElement = "value"

// StoredValue is the contract implemented by every configuration value type.
type StoredValue interface {
	// ToXMLValues renders the value as zero or more elements named
	// valueElementName. Items that cannot be encoded are logged and
	// omitted.
	ToXMLValues(valueElementName string) []*etree.Element

	// ToNativeObject returns the in-memory form of the value. Callers
	// receive a copy and may not mutate the value through it.
	ToNativeObject() any

	// Validate returns human readable problems with the value. An empty
	// slice means the value is valid.
	Validate(s *setting.Setting) []string

	// ToDebugString renders the value for administrators (pretty) or as
	// compact JSON for logs and APIs.
	ToDebugString(pretty bool, locale language.Tag) string
}

// Factory builds a StoredValue from persisted or imported data.
type Factory interface {
	// FromXMLElement rebuilds a value from its <setting> element. key is
	// the setting key and is used for diagnostics only.
	FromXMLElement(settingElement *etree.Element, key string) (StoredValue, error)

	// FromJSON builds a value from an imported JSON document.
	FromJSON(input string) (StoredValue, error)
}

// Option configures factories and values.
type Option func(*options)

type options struct {
	log         logger.Logger
	securityKey []byte
}

// WithLogger sets the logger receiving decode, encode and fingerprint
// failures.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithSecurityKey sets the configuration security key used to encrypt
// private keys at rest.
func WithSecurityKey(key []byte) Option {
	return func(o *options) {
		o.securityKey = append([]byte(nil), key...)
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.NewSlogAdapter(nil)
	}
	return o
}

func (o options) apply() []Option {
	return []Option{WithLogger(o.log), WithSecurityKey(o.securityKey)}
}
