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
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ErrValidationFailed is returned by validate when the document has problems
var ErrValidationFailed = errors.New("validation failed")

// newValidateCmd builds the validate command
func newValidateCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the document",
		Long: `Check every setting against the catalog constraints. The command
fails when any setting has a problem.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cfg.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			doc, err := sess.document()
			if err != nil {
				return err
			}

			problems := doc.Validate()
			if err := printerFor(cmd, cfg).PrintProblems(sess.cfg.Document.Name, problems); err != nil {
				return err
			}
			if len(problems) > 0 {
				return fmt.Errorf("%w: %d setting(s) with problems", ErrValidationFailed, len(problems))
			}
			return nil
		},
	}
}
