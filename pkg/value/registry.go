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
	"fmt"
	"sync"

	"github.com/beevik/etree"
	"github.com/jeremyhahn/go-storedconfig/pkg/setting"
)

// Registry dispatches construction to the Factory registered for a
// setting syntax.
type Registry struct {
	mu        sync.RWMutex
	factories map[setting.Syntax]Factory
}

// NewRegistry returns a registry with the built-in STRING, BOOLEAN,
// X509CERT and PRIVATE_KEY factories.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{factories: make(map[setting.Syntax]Factory)}
	r.Register(setting.SyntaxString, StringFactory{})
	r.Register(setting.SyntaxBoolean, BooleanFactory{})
	r.Register(setting.SyntaxX509Cert, NewX509CertificateFactory(opts...))
	r.Register(setting.SyntaxPrivateKey, NewPrivateKeyFactory(opts...))
	return r
}

// Register installs f for syntax, replacing any previous factory.
func (r *Registry) Register(syntax setting.Syntax, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[syntax] = f
}

// Factory returns the factory registered for syntax.
func (r *Registry) Factory(syntax setting.Syntax) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[syntax]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSyntax, syntax)
	}
	return f, nil
}

// FromXMLElement builds the value persisted in settingElement.
func (r *Registry) FromXMLElement(syntax setting.Syntax, settingElement *etree.Element, key string) (StoredValue, error) {
	f, err := r.Factory(syntax)
	if err != nil {
		return nil, err
	}
	return f.FromXMLElement(settingElement, key)
}

// FromJSON builds a value of syntax from imported JSON.
func (r *Registry) FromJSON(syntax setting.Syntax, input string) (StoredValue, error) {
	f, err := r.Factory(syntax)
	if err != nil {
		return nil, err
	}
	return f.FromJSON(input)
}

// Default returns the value a setting of syntax has before anything is
// written to it.
func (r *Registry) Default(syntax setting.Syntax) (StoredValue, error) {
	return r.FromXMLElement(syntax, nil, "")
}

// SyntaxOf returns the syntax of a built-in value type.
func SyntaxOf(v StoredValue) (setting.Syntax, bool) {
	switch v.(type) {
	case *StringValue:
		return setting.SyntaxString, true
	case *BooleanValue:
		return setting.SyntaxBoolean, true
	case *X509CertificateValue:
		return setting.SyntaxX509Cert, true
	case *PrivateKeyValue:
		return setting.SyntaxPrivateKey, true
	default:
		return "", false
	}
}
