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

package storedconfig_test

import (
	"crypto/x509"
	"testing"

	"github.com/jeremyhahn/go-storedconfig/pkg/setting"
	"github.com/jeremyhahn/go-storedconfig/pkg/storage"
	"github.com/jeremyhahn/go-storedconfig/pkg/storage/file"
	"github.com/jeremyhahn/go-storedconfig/pkg/storage/memory"
	"github.com/jeremyhahn/go-storedconfig/pkg/storedconfig"
	"github.com/jeremyhahn/go-storedconfig/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, backend storage.Backend, backups int) *storedconfig.Store {
	t.Helper()
	s, err := storedconfig.NewStore(storedconfig.StoreConfig{
		Backend:         backend,
		BackendName:     "test",
		Backups:         backups,
		DocumentOptions: loadOpts(),
		Logger:          quiet(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewStore_NilBackend(t *testing.T) {
	_, err := storedconfig.NewStore(storedconfig.StoreConfig{})
	assert.ErrorIs(t, err, storedconfig.ErrNilBackend)
}

func TestStore_SaveOpen(t *testing.T) {
	backends := map[string]func(t *testing.T) storage.Backend{
		"memory": func(*testing.T) storage.Backend { return memory.New() },
		"file": func(t *testing.T) storage.Backend {
			b, err := file.New(t.TempDir())
			require.NoError(t, err)
			return b
		},
	}

	for name, mk := range backends {
		t.Run(name, func(t *testing.T) {
			store := newStore(t, mk(t), 0)

			doc := newDoc()
			require.NoError(t, doc.Write(setting.KeyLDAPProxyUsername, value.NewStringValue("cn=proxy")))
			require.NoError(t, store.Save("default", doc))

			opened, err := store.Open("default")
			require.NoError(t, err)
			assert.Equal(t, doc.ID(), opened.ID())

			v, err := opened.Read(setting.KeyLDAPProxyUsername)
			require.NoError(t, err)
			assert.Equal(t, "cn=proxy", v.ToNativeObject())

			names, err := store.List()
			require.NoError(t, err)
			assert.Equal(t, []string{"default"}, names)

			require.NoError(t, store.Delete("default"))
			_, err = store.Open("default")
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})
	}
}

func TestStore_OpenOrNew(t *testing.T) {
	store := newStore(t, memory.New(), 0)

	doc, err := store.OpenOrNew("fresh")
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID())
	assert.Empty(t, doc.Keys())
}

func TestStore_OpenInvalid(t *testing.T) {
	backend := memory.New()
	require.NoError(t, backend.Put(storage.ConfigPath("broken"), []byte("<nope"), nil))
	store := newStore(t, backend, 0)

	_, err := store.Open("broken")
	assert.ErrorIs(t, err, storedconfig.ErrInvalidDocument)

	_, err = store.OpenOrNew("broken")
	assert.ErrorIs(t, err, storedconfig.ErrInvalidDocument)

	assert.ErrorIs(t, store.Save("../escape", newDoc()), storage.ErrInvalidName)
	assert.ErrorIs(t, store.Save("default", nil), storedconfig.ErrNilValue)
}

func TestStore_Backups(t *testing.T) {
	store := newStore(t, memory.New(), 2)
	doc := newDoc()

	for _, user := range []string{"cn=a", "cn=b", "cn=c", "cn=d"} {
		require.NoError(t, doc.Write(setting.KeyLDAPProxyUsername, value.NewStringValue(user)))
		require.NoError(t, store.Save("default", doc))
	}

	backups, err := store.Backups("default")
	require.NoError(t, err)
	assert.Len(t, backups, 2)

	opened, err := store.Open("default")
	require.NoError(t, err)
	v, err := opened.Read(setting.KeyLDAPProxyUsername)
	require.NoError(t, err)
	assert.Equal(t, "cn=d", v.ToNativeObject())
}

func TestStore_SaveWithoutSecurityKeyKeepsPrivateKey(t *testing.T) {
	backend := memory.New()
	keyed := newStore(t, backend, 0)

	cert, key := createTestCert(t, "https.example.com")
	pk, err := value.NewPrivateKeyValue([]*x509.Certificate{cert}, key, value.WithSecurityKey(securityKey))
	require.NoError(t, err)

	doc := newDoc()
	require.NoError(t, doc.Write(setting.KeyHTTPSServerCert, pk))
	require.NoError(t, keyed.Save("default", doc))

	unkeyed, err := storedconfig.NewStore(storedconfig.StoreConfig{
		Backend: backend,
		DocumentOptions: []storedconfig.Option{
			storedconfig.WithLogger(quiet()),
			storedconfig.WithRegistry(value.NewRegistry(value.WithLogger(quiet()))),
		},
		Logger: quiet(),
	})
	require.NoError(t, err)

	opened, err := unkeyed.Open("default")
	require.NoError(t, err)
	require.NoError(t, opened.Write(setting.KeyLDAPProxyUsername, value.NewStringValue("cn=proxy")))
	require.NoError(t, unkeyed.Save("default", opened))

	data, err := storage.GetConfig(backend, "default")
	require.NoError(t, err)
	assert.Contains(t, string(data), "<key>")

	reopened, err := keyed.Open("default")
	require.NoError(t, err)
	v, err := reopened.Read(setting.KeyHTTPSServerCert)
	require.NoError(t, err)
	native := v.ToNativeObject().(value.PrivateKeyCertificate)
	require.NotNil(t, native.Key)
	assert.True(t, key.Equal(native.Key))
	assert.Empty(t, v.Validate(nil))
}
