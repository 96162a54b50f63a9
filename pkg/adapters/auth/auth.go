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

// Package auth authenticates REST requests against the stored
// configuration server.
package auth

import (
	"context"
	"net/http"
	"slices"
)

// Roles recognized by the REST API
const (
	// RoleReader may read settings and validation results
	RoleReader = "reader"

	// RoleAdmin may additionally modify and reset settings
	RoleAdmin = "admin"
)

// Identity represents an authenticated user or service
type Identity struct {
	// Subject is the unique identifier for the authenticated entity
	Subject string

	// Roles granted to the subject
	Roles []string

	// Attributes contains metadata about the authentication (auth method, remote address)
	Attributes map[string]string
}

// Authenticator authenticates HTTP requests
type Authenticator interface {
	// AuthenticateHTTP returns the identity of the caller, or an error when
	// the request carries no valid credentials
	AuthenticateHTTP(r *http.Request) (*Identity, error)

	// Name returns the authenticator name for logging
	Name() string
}

// ContextKey is the type for context keys used by the auth package
type ContextKey string

const (
	// IdentityContextKey is the context key for storing authenticated identity
	IdentityContextKey ContextKey = "auth.identity"
)

// GetIdentity extracts the identity from a context
func GetIdentity(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(IdentityContextKey).(*Identity); ok {
		return identity
	}
	return nil
}

// WithIdentity adds an identity to a context
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// HasRole checks if the identity has a specific role. Admins hold every role.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	return slices.Contains(i.Roles, role) || slices.Contains(i.Roles, RoleAdmin)
}

func (i *Identity) clone() *Identity {
	c := &Identity{
		Subject:    i.Subject,
		Roles:      slices.Clone(i.Roles),
		Attributes: make(map[string]string, len(i.Attributes)+2),
	}
	for k, v := range i.Attributes {
		c.Attributes[k] = v
	}
	return c
}
