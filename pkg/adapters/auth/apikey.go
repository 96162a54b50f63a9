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

package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"sync"
)

var (
	// ErrMissingAPIKey is returned when a request carries no API key
	ErrMissingAPIKey = errors.New("auth: no API key provided")

	// ErrInvalidAPIKey is returned when a request carries an unknown API key
	ErrInvalidAPIKey = errors.New("auth: invalid API key")
)

// APIKeyAuthenticator authenticates requests using API keys.
// Keys are read from the configured header, then the Authorization header
// with the "Bearer" scheme.
type APIKeyAuthenticator struct {
	mu         sync.RWMutex
	validKeys  map[string]*Identity
	headerName string
}

// APIKeyConfig configures the API key authenticator
type APIKeyConfig struct {
	// Keys maps API keys to identities
	Keys map[string]*Identity

	// HeaderName is the HTTP header name (default: "X-API-Key")
	HeaderName string
}

// NewAPIKeyAuthenticator creates a new API key authenticator
func NewAPIKeyAuthenticator(config *APIKeyConfig) *APIKeyAuthenticator {
	if config == nil {
		config = &APIKeyConfig{}
	}

	headerName := config.HeaderName
	if headerName == "" {
		headerName = "X-API-Key"
	}

	keys := make(map[string]*Identity, len(config.Keys))
	for k, v := range config.Keys {
		keys[k] = v
	}

	return &APIKeyAuthenticator{
		validKeys:  keys,
		headerName: headerName,
	}
}

// AddKey adds a new API key with the given identity
func (a *APIKeyAuthenticator) AddKey(apiKey string, identity *Identity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.validKeys[apiKey] = identity
}

// RemoveKey removes an API key
func (a *APIKeyAuthenticator) RemoveKey(apiKey string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.validKeys, apiKey)
}

// AuthenticateHTTP authenticates an HTTP request using an API key
func (a *APIKeyAuthenticator) AuthenticateHTTP(r *http.Request) (*Identity, error) {
	apiKey := r.Header.Get(a.headerName)
	if apiKey == "" {
		if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			apiKey = bearer
		}
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	identity := a.lookup(apiKey)
	if identity == nil {
		return nil, ErrInvalidAPIKey
	}

	cloned := identity.clone()
	cloned.Attributes["auth_method"] = "apikey"
	cloned.Attributes["remote_addr"] = r.RemoteAddr
	return cloned, nil
}

// lookup compares every key in constant time.
func (a *APIKeyAuthenticator) lookup(apiKey string) *Identity {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var found *Identity
	for k, identity := range a.validKeys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(apiKey)) == 1 {
			found = identity
		}
	}
	return found
}

// Name returns the authenticator name
func (a *APIKeyAuthenticator) Name() string {
	return "apikey"
}
