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

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/audit"
)

// newValueCmd builds the value command
func newValueCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "value",
		Short: "Read and write setting values",
		Long:  `Get, set, and reset the values of settings in the document`,
	}
	cmd.AddCommand(newValueGetCmd(cfg))
	cmd.AddCommand(newValueSetCmd(cfg))
	cmd.AddCommand(newValueResetCmd(cfg))
	return cmd
}

// newValueGetCmd builds the value get command
func newValueGetCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a setting value",
		Long:  `Print a setting value rendered for the selected locale`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

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

			printVerbose(cmd.ErrOrStderr(), cfg, "Reading %s from document %s", key, sess.cfg.Document.Name)

			view, err := settingView(doc, key, locale)
			if err != nil {
				return err
			}
			return printerFor(cmd, cfg).PrintSetting(*view)
		},
	}
}

// newValueSetCmd builds the value set command
func newValueSetCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <json>",
		Short: "Set a setting value",
		Long: `Set a setting value from a JSON literal, for example:

  storedconfig value set ldap.serverUrls '"ldaps://ldap.example.com"'
  storedconfig value set email.smtp.useTLS true

Certificate settings are set with "cert import".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, input := args[0], args[1]

			sess, err := cfg.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			doc, err := sess.document()
			if err != nil {
				return err
			}

			printVerbose(cmd.ErrOrStderr(), cfg, "Importing %s into document %s", key, sess.cfg.Document.Name)

			if err := doc.ImportJSON(key, input); err != nil {
				return fmt.Errorf("failed to set %s: %w", key, err)
			}
			if err := sess.save(cmd.Context(), doc, audit.EventSettingWrite, key); err != nil {
				return err
			}
			return printerFor(cmd, cfg).PrintSuccess(fmt.Sprintf("Successfully set %s", key))
		},
	}
}

// newValueResetCmd builds the value reset command
func newValueResetCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <key>",
		Short: "Reset a setting to its default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return resetSetting(cmd, cfg, args[0])
		},
	}
}

// resetSetting returns key to its default value and saves the document
func resetSetting(cmd *cobra.Command, cfg *Config, key string) error {
	sess, err := cfg.openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	doc, err := sess.document()
	if err != nil {
		return err
	}
	if err := doc.Reset(key); err != nil {
		return fmt.Errorf("failed to reset %s: %w", key, err)
	}
	if err := sess.save(cmd.Context(), doc, audit.EventSettingReset, key); err != nil {
		return err
	}
	return printerFor(cmd, cfg).PrintSuccess(fmt.Sprintf("Successfully reset %s", key))
}
