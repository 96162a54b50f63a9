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

// Package storedconfig holds the persisted configuration document: an XML
// file with one <setting> element per configured key, each carrying the
// elements written by its typed value.
//
//	<StoredConfiguration id="..." createTime="..." modifyTime="...">
//	  <settings>
//	    <setting key="ldap.serverCerts" syntax="X509CERT" modifyTime="...">
//	      <value>MIIB...</value>
//	    </setting>
//	  </settings>
//	</StoredConfiguration>
//
// Settings that are unknown or cannot be decoded are logged and skipped
// when a document is loaded, so one bad entry never blocks startup.
package storedconfig

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/logger"
	"github.com/jeremyhahn/go-storedconfig/pkg/setting"
	"github.com/jeremyhahn/go-storedconfig/pkg/value"
)

// Element and attribute names of the persisted document
const (
	RootElement     = "StoredConfiguration"
	SettingsElement = "settings"
	SettingElement  = "setting"

	AttrID         = "id"
	AttrKey        = "key"
	AttrSyntax     = "syntax"
	AttrCreateTime = "createTime"
	AttrModifyTime = "modifyTime"
)

// TimeFormat is the layout of timestamps stored in the document.
const TimeFormat = time.RFC3339

type entry struct {
	syntax     setting.Syntax
	value      value.StoredValue
	modifyTime time.Time
}

// StoredConfiguration is an in-memory configuration document. It is safe
// for concurrent use; readers share a lock and writers hold it exclusively.
type StoredConfiguration struct {
	mu         sync.RWMutex
	id         string
	createTime time.Time
	modifyTime time.Time
	settings   map[string]entry

	registry *value.Registry
	log      logger.Logger
	now      func() time.Time
}

// Option configures a StoredConfiguration.
type Option func(*StoredConfiguration)

// WithRegistry sets the registry used to decode persisted values.
func WithRegistry(r *value.Registry) Option {
	return func(c *StoredConfiguration) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithLogger sets the logger receiving load diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(c *StoredConfiguration) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *StoredConfiguration) {
		if now != nil {
			c.now = now
		}
	}
}

func newDocument(opts []Option) *StoredConfiguration {
	c := &StoredConfiguration{
		settings: make(map[string]entry),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.NewSlogAdapter(nil)
	}
	if c.registry == nil {
		c.registry = value.NewRegistry(value.WithLogger(c.log))
	}
	return c
}

// New returns an empty document with a fresh id.
func New(opts ...Option) *StoredConfiguration {
	c := newDocument(opts)
	c.id = uuid.NewString()
	c.createTime = c.now().UTC().Truncate(time.Second)
	c.modifyTime = c.createTime
	return c
}

// Load parses a persisted document. Malformed XML or a foreign root
// element fails with ErrInvalidDocument; individual settings that cannot
// be decoded are logged and skipped.
func Load(data []byte, opts ...Option) (*StoredConfiguration, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != RootElement {
		return nil, fmt.Errorf("%w: missing <%s> root element", ErrInvalidDocument, RootElement)
	}

	c := newDocument(opts)
	c.id = root.SelectAttrValue(AttrID, "")
	if _, err := uuid.Parse(c.id); err != nil {
		c.log.Warn("stored configuration has no valid id, assigning a new one",
			logger.String("id", c.id))
		c.id = uuid.NewString()
	}
	now := c.now().UTC().Truncate(time.Second)
	c.createTime = c.parseTime(root, AttrCreateTime, now)
	c.modifyTime = c.parseTime(root, AttrModifyTime, c.createTime)

	settingsEl := root.SelectElement(SettingsElement)
	if settingsEl == nil {
		return c, nil
	}

	for _, el := range settingsEl.SelectElements(SettingElement) {
		c.loadSetting(el)
	}
	return c, nil
}

func (c *StoredConfiguration) loadSetting(el *etree.Element) {
	key := el.SelectAttrValue(AttrKey, "")
	s, err := setting.Lookup(key)
	if err != nil {
		c.log.Warn("skipping unknown setting", logger.String("setting", key))
		return
	}

	if raw := el.SelectAttrValue(AttrSyntax, ""); raw != "" {
		syntax, err := setting.ParseSyntax(raw)
		if err != nil || syntax != s.Syntax {
			c.log.Warn("skipping setting with mismatched syntax",
				logger.String("setting", key),
				logger.String("syntax", raw),
				logger.String("expected", s.Syntax.String()))
			return
		}
	}

	v, err := c.registry.FromXMLElement(s.Syntax, el, key)
	if err != nil {
		c.log.Error("error reading setting", logger.String("setting", key), logger.Error(err))
		return
	}

	c.settings[key] = entry{
		syntax:     s.Syntax,
		value:      v,
		modifyTime: c.parseTime(el, AttrModifyTime, c.modifyTime),
	}
}

func (c *StoredConfiguration) parseTime(el *etree.Element, attr string, fallback time.Time) time.Time {
	raw := el.SelectAttrValue(attr, "")
	if raw == "" {
		return fallback
	}
	t, err := time.Parse(TimeFormat, raw)
	if err != nil {
		c.log.Warn("ignoring malformed timestamp",
			logger.String("attribute", attr),
			logger.String("value", raw))
		return fallback
	}
	return t.UTC()
}

// Bytes serializes the document with settings ordered by key.
func (c *StoredConfiguration) Bytes() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement(RootElement)
	root.CreateAttr(AttrID, c.id)
	root.CreateAttr(AttrCreateTime, c.createTime.Format(TimeFormat))
	root.CreateAttr(AttrModifyTime, c.modifyTime.Format(TimeFormat))

	settingsEl := root.CreateElement(SettingsElement)
	for _, key := range c.keysLocked() {
		e := c.settings[key]
		el := settingsEl.CreateElement(SettingElement)
		el.CreateAttr(AttrKey, key)
		el.CreateAttr(AttrSyntax, e.syntax.String())
		el.CreateAttr(AttrModifyTime, e.modifyTime.Format(TimeFormat))
		for _, child := range e.value.ToXMLValues(value.ValueElement) {
			el.AddChild(child)
		}
	}

	doc.Indent(2)
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("storedconfig: failed to serialize document: %w", err)
	}
	return data, nil
}

// Read returns the value of key, or the syntax default when the key has
// never been written.
func (c *StoredConfiguration) Read(key string) (value.StoredValue, error) {
	s, err := setting.Lookup(key)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	e, ok := c.settings[key]
	c.mu.RUnlock()
	if ok {
		return e.value, nil
	}
	return c.registry.Default(s.Syntax)
}

// IsDefault reports whether key has never been written or has been reset.
func (c *StoredConfiguration) IsDefault(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.settings[key]
	return !ok
}

// Write stores v under key. The value type must match the setting syntax.
func (c *StoredConfiguration) Write(key string, v value.StoredValue) error {
	if v == nil {
		return ErrNilValue
	}
	s, err := setting.Lookup(key)
	if err != nil {
		return err
	}
	if syntax, ok := value.SyntaxOf(v); ok && syntax != s.Syntax {
		return fmt.Errorf("%w: %s is %s, got %s", ErrSyntaxMismatch, key, s.Syntax, syntax)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now().UTC().Truncate(time.Second)
	c.settings[key] = entry{syntax: s.Syntax, value: v, modifyTime: now}
	c.modifyTime = now
	return nil
}

// ImportJSON builds a value for key from JSON and writes it.
func (c *StoredConfiguration) ImportJSON(key, input string) error {
	s, err := setting.Lookup(key)
	if err != nil {
		return err
	}
	v, err := c.registry.FromJSON(s.Syntax, input)
	if err != nil {
		return err
	}
	return c.Write(key, v)
}

// Reset returns key to its default value.
func (c *StoredConfiguration) Reset(key string) error {
	if _, err := setting.Lookup(key); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.settings[key]; ok {
		delete(c.settings, key)
		c.modifyTime = c.now().UTC().Truncate(time.Second)
	}
	return nil
}

// Keys returns the written setting keys in sorted order.
func (c *StoredConfiguration) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keysLocked()
}

func (c *StoredConfiguration) keysLocked() []string {
	keys := make([]string, 0, len(c.settings))
	for k := range c.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks every catalog setting, using defaults for unwritten
// keys, and returns the problems found per key.
func (c *StoredConfiguration) Validate() map[string][]string {
	problems := make(map[string][]string)
	for _, s := range setting.All() {
		v, err := c.Read(s.Key)
		if err != nil {
			problems[s.Key] = []string{err.Error()}
			continue
		}
		if p := v.Validate(&s); len(p) > 0 {
			problems[s.Key] = p
		}
	}
	return problems
}

// ID returns the document instance id.
func (c *StoredConfiguration) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// CreateTime returns when the document was first created.
func (c *StoredConfiguration) CreateTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.createTime
}

// ModifyTime returns when any setting was last written or reset.
func (c *StoredConfiguration) ModifyTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.modifyTime
}

// SettingModifyTime returns when key was last written.
func (c *StoredConfiguration) SettingModifyTime(key string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.settings[key]
	return e.modifyTime, ok
}
