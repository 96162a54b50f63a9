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

package file_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jeremyhahn/go-storedconfig/pkg/storage"
	"github.com/jeremyhahn/go-storedconfig/pkg/storage/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_EmptyRoot(t *testing.T) {
	_, err := file.New("")
	assert.Error(t, err)
}

func TestFileStorage_PutGet(t *testing.T) {
	dir := t.TempDir()
	s, err := file.New(dir)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	value := []byte("<StoredConfiguration/>")
	require.NoError(t, s.Put(storage.ConfigPath("default"), value, nil))

	got, err := s.Get(storage.ConfigPath("default"))
	require.NoError(t, err)
	assert.Equal(t, value, got)

	onDisk, err := os.ReadFile(filepath.Join(dir, "configs", "default.xml"))
	require.NoError(t, err)
	assert.Equal(t, value, onDisk)

	_, err = s.Get("configs/missing.xml")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileStorage_Overwrite(t *testing.T) {
	s, err := file.New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put("configs/a.xml", []byte("first"), nil))
	require.NoError(t, s.Put("configs/a.xml", []byte("second"), nil))

	got, err := s.Get("configs/a.xml")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	keys, err := s.List("")
	require.NoError(t, err)
	assert.Equal(t, []string{"configs/a.xml"}, keys, "temporary files must not remain")
}

func TestFileStorage_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on windows")
	}

	dir := t.TempDir()
	s, err := file.New(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put("configs/a.xml", []byte("x"), nil))
	info, err := os.Stat(filepath.Join(dir, "configs", "a.xml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, s.Put("configs/b.xml", []byte("x"), &storage.Options{Permissions: 0640}))
	info, err = os.Stat(filepath.Join(dir, "configs", "b.xml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())
}

func TestFileStorage_ListDeleteExists(t *testing.T) {
	dir := t.TempDir()
	s, err := file.New(dir)
	require.NoError(t, err)

	for _, k := range []string{"configs/b.xml", "configs/a.xml", "backups/a/1.xml"} {
		require.NoError(t, s.Put(k, []byte("x"), nil))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", ".tmp-123"), []byte("partial"), 0600))

	keys, err := s.List("configs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"configs/a.xml", "configs/b.xml"}, keys)

	ok, err := s.Exists("configs/a.xml")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete("configs/a.xml"))
	ok, err = s.Exists("configs/a.xml")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, s.Delete("configs/a.xml"), storage.ErrNotFound)
}

func TestFileStorage_RejectsTraversal(t *testing.T) {
	s, err := file.New(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape.xml", "configs/../../escape.xml", "/etc/passwd", "a\x00b"} {
		assert.ErrorIs(t, s.Put(key, []byte("x"), nil), storage.ErrInvalidKey, "%q", key)
		_, err := s.Get(key)
		assert.ErrorIs(t, err, storage.ErrInvalidKey, "%q", key)
	}
}

func TestFileStorage_Closed(t *testing.T) {
	s, err := file.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Get("configs/a.xml")
	assert.ErrorIs(t, err, storage.ErrClosed)
	assert.ErrorIs(t, s.Put("configs/a.xml", nil, nil), storage.ErrClosed)
	_, err = s.List("")
	assert.ErrorIs(t, err, storage.ErrClosed)
}

func TestFileStorage_Root(t *testing.T) {
	dir := t.TempDir()
	s, err := file.New(dir)
	require.NoError(t, err)

	fs, ok := s.(*file.FileStorage)
	require.True(t, ok)
	assert.True(t, filepath.IsAbs(fs.Root()))
}
