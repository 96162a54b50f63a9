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

package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_HasRole(t *testing.T) {
	var nilIdentity *auth.Identity
	assert.False(t, nilIdentity.HasRole(auth.RoleReader))

	reader := &auth.Identity{Subject: "ops", Roles: []string{auth.RoleReader}}
	assert.True(t, reader.HasRole(auth.RoleReader))
	assert.False(t, reader.HasRole(auth.RoleAdmin))

	admin := &auth.Identity{Subject: "root", Roles: []string{auth.RoleAdmin}}
	assert.True(t, admin.HasRole(auth.RoleReader))
	assert.True(t, admin.HasRole(auth.RoleAdmin))
}

func TestIdentityContext(t *testing.T) {
	assert.Nil(t, auth.GetIdentity(context.Background()))

	id := &auth.Identity{Subject: "svc"}
	ctx := auth.WithIdentity(context.Background(), id)
	assert.Same(t, id, auth.GetIdentity(ctx))
}

func TestAPIKeyAuthenticator(t *testing.T) {
	a := auth.NewAPIKeyAuthenticator(&auth.APIKeyConfig{
		Keys: map[string]*auth.Identity{
			"reader-key": {Subject: "dashboard", Roles: []string{auth.RoleReader}},
		},
	})
	assert.Equal(t, "apikey", a.Name())

	tests := []struct {
		name    string
		setup   func(r *http.Request)
		subject string
		wantErr error
	}{
		{"header", func(r *http.Request) { r.Header.Set("X-API-Key", "reader-key") }, "dashboard", nil},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer reader-key") }, "dashboard", nil},
		{"missing", func(*http.Request) {}, "", auth.ErrMissingAPIKey},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic reader-key") }, "", auth.ErrMissingAPIKey},
		{"unknown", func(r *http.Request) { r.Header.Set("X-API-Key", "nope") }, "", auth.ErrInvalidAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
			tt.setup(r)

			id, err := a.AuthenticateHTTP(r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, id)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.subject, id.Subject)
			assert.Equal(t, "apikey", id.Attributes["auth_method"])
			assert.Equal(t, r.RemoteAddr, id.Attributes["remote_addr"])
		})
	}
}

func TestAPIKeyAuthenticator_CustomHeaderAndMutation(t *testing.T) {
	a := auth.NewAPIKeyAuthenticator(&auth.APIKeyConfig{HeaderName: "X-Config-Key"})

	original := &auth.Identity{Subject: "ci", Roles: []string{auth.RoleAdmin}}
	a.AddKey("ci-key", original)

	r := httptest.NewRequest(http.MethodPut, "/api/v1/settings/x", nil)
	r.Header.Set("X-Config-Key", "ci-key")

	id, err := a.AuthenticateHTTP(r)
	require.NoError(t, err)
	id.Roles[0] = "tampered"
	assert.Equal(t, auth.RoleAdmin, original.Roles[0])
	assert.Nil(t, original.Attributes)

	a.RemoveKey("ci-key")
	_, err = a.AuthenticateHTTP(r)
	assert.ErrorIs(t, err, auth.ErrInvalidAPIKey)
}

func TestNewAPIKeyAuthenticator_NilConfig(t *testing.T) {
	a := auth.NewAPIKeyAuthenticator(nil)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-API-Key", "anything")
	_, err := a.AuthenticateHTTP(r)
	assert.ErrorIs(t, err, auth.ErrInvalidAPIKey)
}

func TestNoOpAuthenticator(t *testing.T) {
	a := auth.NewNoOpAuthenticator()
	assert.Equal(t, "noop", a.Name())

	id, err := a.AuthenticateHTTP(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "anonymous", id.Subject)
	assert.True(t, id.HasRole(auth.RoleAdmin))
}
