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
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

// Key prefixes and suffixes
const (
	ConfigPrefix = "configs/"
	BackupPrefix = "backups/"
	ConfigSuffix = ".xml"

	backupTimeLayout = "20060102T150405.000000000Z"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateName checks that a document name is usable as a single path
// element.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// ConfigPath returns the storage key of the named configuration document.
func ConfigPath(name string) string {
	return ConfigPrefix + name + ConfigSuffix
}

// BackupPath returns the storage key of a backup of the named document
// taken at ts.
func BackupPath(name string, ts time.Time) string {
	return BackupPrefix + name + "/" + ts.UTC().Format(backupTimeLayout) + ConfigSuffix
}

// ListConfigs returns the names of every stored configuration document.
func ListConfigs(backend Backend) ([]string, error) {
	keys, err := backend.List(ConfigPrefix)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(keys))
	for _, k := range keys {
		name := strings.TrimSuffix(strings.TrimPrefix(k, ConfigPrefix), ConfigSuffix)
		// Skip nested keys and foreign files
		if name == "" || strings.Contains(name, "/") || !strings.HasSuffix(k, ConfigSuffix) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// ListBackups returns the backup keys of the named document, oldest first.
func ListBackups(backend Backend, name string) ([]string, error) {
	keys, err := backend.List(BackupPrefix + name + "/")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if path.Ext(k) == ConfigSuffix {
			out = append(out, k)
		}
	}
	return out, nil
}
