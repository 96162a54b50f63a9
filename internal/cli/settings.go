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

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/jeremyhahn/go-storedconfig/pkg/setting"
	"github.com/jeremyhahn/go-storedconfig/pkg/storedconfig"
	"github.com/jeremyhahn/go-storedconfig/pkg/value"
)

// newSettingsCmd builds the settings command
func newSettingsCmd(cfg *Config) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "List settings",
		Long:  `List every catalog setting and its current value in the document`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cfg.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			locale, err := sess.cfg.LocaleTag()
			if err != nil {
				return err
			}
			doc, err := sess.document()
			if err != nil {
				return err
			}

			catalog := setting.All()
			if category != "" {
				catalog = setting.ByCategory(setting.Category(strings.ToUpper(category)))
				if len(catalog) == 0 {
					return fmt.Errorf("unknown category: %s", category)
				}
			}

			printVerbose(cmd.ErrOrStderr(), cfg, "Listing %d settings of document %s", len(catalog), sess.cfg.Document.Name)

			views := make([]SettingView, 0, len(catalog))
			for i := range catalog {
				view, err := settingView(doc, catalog[i].Key, locale)
				if err != nil {
					return err
				}
				views = append(views, *view)
			}
			return printerFor(cmd, cfg).PrintSettings(sess.cfg.Document.Name, views)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only list settings in this category (LDAP, HTTPS, EMAIL, AUDIT)")
	return cmd
}

// newDocumentsCmd builds the documents command
func newDocumentsCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List stored documents",
		Long:  `List the configuration documents held by the storage backend`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cfg.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			names, err := sess.store.List()
			if err != nil {
				return fmt.Errorf("failed to list documents: %w", err)
			}

			docs := make([]DocumentView, 0, len(names))
			for _, name := range names {
				backups, err := sess.store.Backups(name)
				if err != nil {
					return fmt.Errorf("failed to list backups of %s: %w", name, err)
				}
				docs = append(docs, DocumentView{Name: name, Backups: len(backups)})
			}
			return printerFor(cmd, cfg).PrintDocuments(docs)
		},
	}
}

// settingView reads key from doc and describes it for printing
func settingView(doc *storedconfig.StoredConfiguration, key string, locale language.Tag) (*SettingView, error) {
	s, err := setting.Lookup(key)
	if err != nil {
		return nil, err
	}
	v, err := doc.Read(key)
	if err != nil {
		return nil, err
	}

	view := &SettingView{
		Key:      s.Key,
		Label:    s.Label,
		Category: string(s.Category),
		Syntax:   s.Syntax.String(),
		Required: s.Required,
		Default:  doc.IsDefault(key),
		Value:    v.ToDebugString(false, locale),
		Display:  v.ToDebugString(true, locale),
	}
	if problems := v.Validate(s); len(problems) > 0 {
		view.Problems = problems
	}
	switch typed := v.(type) {
	case *value.X509CertificateValue:
		view.Certificates = typed.Len()
	case *value.PrivateKeyValue:
		view.Certificates = len(typed.Certificates())
	}
	return view, nil
}
