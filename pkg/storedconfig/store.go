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

package storedconfig

import (
	"errors"
	"time"

	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/logger"
	"github.com/jeremyhahn/go-storedconfig/pkg/metrics"
	"github.com/jeremyhahn/go-storedconfig/pkg/storage"
)

// StoreConfig configures a Store.
type StoreConfig struct {
	// Backend persists serialized documents (required)
	Backend storage.Backend

	// BackendName labels metrics, e.g. "file" or "memory"
	BackendName string

	// Backups is the number of previous versions kept when a document is
	// overwritten; zero disables backups
	Backups int

	// DocumentOptions are applied to every loaded document
	DocumentOptions []Option

	// Logger receives store diagnostics
	Logger logger.Logger
}

// Store saves and opens named configuration documents.
type Store struct {
	backend     storage.Backend
	backendName string
	backups     int
	docOpts     []Option
	log         logger.Logger
}

// NewStore creates a Store over cfg.Backend.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Backend == nil {
		return nil, ErrNilBackend
	}
	name := cfg.BackendName
	if name == "" {
		name = "unknown"
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewSlogAdapter(nil)
	}
	return &Store{
		backend:     cfg.Backend,
		backendName: name,
		backups:     cfg.Backups,
		docOpts:     append([]Option{WithLogger(log)}, cfg.DocumentOptions...),
		log:         log,
	}, nil
}

// Save serializes doc under name, backing up the previous version first
// when backups are enabled.
func (s *Store) Save(name string, doc *StoredConfiguration) (err error) {
	timer := metrics.NewTimer(metrics.OpSave, s.backendName)
	defer func() {
		timer.Done(err)
		if err != nil {
			metrics.RecordError(metrics.OpSave, s.backendName, errorType(err))
		}
	}()

	if doc == nil {
		return ErrNilValue
	}
	data, err := doc.Bytes()
	if err != nil {
		return err
	}

	if s.backups > 0 {
		exists, err := storage.ConfigExists(s.backend, name)
		if err != nil {
			return err
		}
		if exists {
			if _, err := storage.BackupConfig(s.backend, name, time.Now()); err != nil {
				return err
			}
		}
		if err := storage.PruneBackups(s.backend, name, s.backups); err != nil {
			s.log.Warn("failed to prune configuration backups",
				logger.String("document", name),
				logger.Error(err))
		}
	}

	if err := storage.SaveConfig(s.backend, name, data); err != nil {
		return err
	}

	metrics.SetSettingsTotal(name, float64(len(doc.Keys())))
	s.log.Debug("saved configuration",
		logger.String("document", name),
		logger.String("id", doc.ID()))
	return nil
}

// Open loads the named document. A missing document returns
// storage.ErrNotFound.
func (s *Store) Open(name string) (doc *StoredConfiguration, err error) {
	timer := metrics.NewTimer(metrics.OpOpen, s.backendName)
	defer func() {
		timer.Done(err)
		if err != nil {
			metrics.RecordError(metrics.OpOpen, s.backendName, errorType(err))
		}
	}()

	data, err := storage.GetConfig(s.backend, name)
	if err != nil {
		return nil, err
	}
	doc, err = Load(data, s.docOpts...)
	if err != nil {
		return nil, err
	}
	metrics.SetSettingsTotal(name, float64(len(doc.Keys())))
	return doc, nil
}

// OpenOrNew loads the named document, or returns a new empty one when it
// does not exist yet.
func (s *Store) OpenOrNew(name string) (*StoredConfiguration, error) {
	doc, err := s.Open(name)
	if errors.Is(err, storage.ErrNotFound) {
		return New(s.docOpts...), nil
	}
	return doc, err
}

// Delete removes the named document. Backups are kept.
func (s *Store) Delete(name string) (err error) {
	timer := metrics.NewTimer(metrics.OpDelete, s.backendName)
	defer func() { timer.Done(err) }()
	return storage.DeleteConfig(s.backend, name)
}

// List returns the names of all stored documents.
func (s *Store) List() (names []string, err error) {
	timer := metrics.NewTimer(metrics.OpList, s.backendName)
	defer func() { timer.Done(err) }()
	return storage.ListConfigs(s.backend)
}

// Backups returns the backup keys of the named document, oldest first.
func (s *Store) Backups(name string) ([]string, error) {
	return storage.ListBackups(s.backend, name)
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func errorType(err error) string {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return "not_found"
	case errors.Is(err, storage.ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, ErrInvalidDocument):
		return "invalid_document"
	case errors.Is(err, storage.ErrClosed):
		return "closed"
	default:
		return "internal"
	}
}
