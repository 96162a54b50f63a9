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

package storage

import (
	"time"
)

// SaveConfig stores a serialized configuration document under its name.
// Returns ErrInvalidName if the name is unsafe.
func SaveConfig(backend Backend, name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return backend.Put(ConfigPath(name), data, nil)
}

// GetConfig retrieves a serialized configuration document.
// Returns ErrNotFound if the document does not exist.
func GetConfig(backend Backend, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return backend.Get(ConfigPath(name))
}

// DeleteConfig removes a configuration document. Backups are kept.
// Returns ErrNotFound if the document does not exist.
func DeleteConfig(backend Backend, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return backend.Delete(ConfigPath(name))
}

// ConfigExists reports whether a configuration document is stored.
func ConfigExists(backend Backend, name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	return backend.Exists(ConfigPath(name))
}

// BackupConfig copies the current document to a timestamped backup key and
// returns that key. Returns ErrNotFound if there is nothing to back up.
func BackupConfig(backend Backend, name string, now time.Time) (string, error) {
	data, err := GetConfig(backend, name)
	if err != nil {
		return "", err
	}
	key := BackupPath(name, now)
	if err := backend.Put(key, data, nil); err != nil {
		return "", err
	}
	return key, nil
}

// PruneBackups deletes the oldest backups of name so that at most keep
// remain. A keep of zero or less disables pruning.
func PruneBackups(backend Backend, name string, keep int) error {
	if keep <= 0 {
		return nil
	}
	backups, err := ListBackups(backend, name)
	if err != nil {
		return err
	}
	for len(backups) > keep {
		if err := backend.Delete(backups[0]); err != nil {
			return err
		}
		backups = backups[1:]
	}
	return nil
}
