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
	"io"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command
var rootCmd = NewRootCommand()

// Execute runs the root command. Errors are printed in the selected
// output format before being returned.
func Execute() error {
	return rootCmd.Execute()
}

// NewRootCommand builds the storedconfig command tree with a fresh
// configuration. Each call is independent of the others.
func NewRootCommand() *cobra.Command {
	cfg := NewConfig()

	cmd := &cobra.Command{
		Use:   "storedconfig",
		Short: "storedconfig - Stored configuration management tool",
		Long: `storedconfig manages typed configuration documents: string,
boolean, X.509 certificate chain and private key settings persisted as
XML through a pluggable storage backend.

Settings are addressed by their catalog key, for example
ldap.serverCerts or https.server.cert.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.stderr = cmd.ErrOrStderr()
		},
	}

	// Persistent flags (available to all commands)
	flags := cmd.PersistentFlags()
	flags.String(keyConfig, "", "config file (YAML)")
	flags.StringP(keyOutput, "o", string(OutputFormatText), "output format (text, json, table)")
	flags.BoolP(keyVerbose, "v", false, "verbose output")
	flags.String(keyLocale, "", "locale used to render values (e.g. en, de)")
	flags.StringP(keyDocument, "d", "", "name of the configuration document")
	flags.String(keyStorage, "", "storage backend (file, memory)")
	flags.String(keyDataDir, "", "directory for file storage")

	// Flags win over STOREDCONFIG_* environment variables
	if err := cfg.v.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("cli: failed to bind flags: %v", err))
	}

	// Add subcommands
	cmd.AddCommand(newVersionCmd(cfg))
	cmd.AddCommand(newSettingsCmd(cfg))
	cmd.AddCommand(newDocumentsCmd(cfg))
	cmd.AddCommand(newValueCmd(cfg))
	cmd.AddCommand(newCertCmd(cfg))
	cmd.AddCommand(newValidateCmd(cfg))
	cmd.AddCommand(newServeCmd(cfg))

	return cmd
}

// printerFor returns a printer writing cmd output in the selected format
func printerFor(cmd *cobra.Command, cfg *Config) *Printer {
	return NewPrinter(cfg.OutputFormat(), cmd.OutOrStdout())
}

// HandleError prints err to stderr in the selected output format. It is
// used by main after Execute fails.
func HandleError(err error) {
	format := string(OutputFormatText)
	if f, ferr := rootCmd.PersistentFlags().GetString(keyOutput); ferr == nil {
		format = f
	}
	printer := NewPrinter(format, os.Stderr)
	if perr := printer.PrintError(err); perr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

// printVerbose prints a message if verbose mode is enabled
func printVerbose(w io.Writer, cfg *Config, format string, args ...any) {
	if cfg.Verbose() {
		fmt.Fprintf(w, "[VERBOSE] "+format+"\n", args...)
	}
}
