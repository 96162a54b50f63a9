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
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/audit"
	"github.com/jeremyhahn/go-storedconfig/pkg/encoding"
	"github.com/jeremyhahn/go-storedconfig/pkg/setting"
	"github.com/jeremyhahn/go-storedconfig/pkg/value"
)

// ErrNotCertificateSetting is returned when a cert command names a setting
// that holds neither certificates nor a private key
var ErrNotCertificateSetting = errors.New("setting does not hold certificates")

// newCertCmd builds the certificate command
func newCertCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Manage certificate settings",
		Long:  `Import, show, and clear X.509 certificate chains and private keys`,
	}
	cmd.AddCommand(newCertImportCmd(cfg))
	cmd.AddCommand(newCertShowCmd(cfg))
	cmd.AddCommand(newCertClearCmd(cfg))
	return cmd
}

// newCertImportCmd builds the cert import command
func newCertImportCmd(cfg *Config) *cobra.Command {
	var (
		keyFile     string
		keyPassword string
	)

	cmd := &cobra.Command{
		Use:   "import <key> <cert-file>...",
		Short: "Import certificates",
		Long: `Import PEM or DER certificates into a certificate setting. Every
certificate of every file is kept, in order. PRIVATE_KEY settings also
require --key with a PKCS#8 PEM private key.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, files := args[0], args[1:]

			s, err := setting.Lookup(key)
			if err != nil {
				return err
			}
			if s.Syntax != setting.SyntaxX509Cert && s.Syntax != setting.SyntaxPrivateKey {
				return fmt.Errorf("%w: %s is %s", ErrNotCertificateSetting, key, s.Syntax)
			}

			var certs []*x509.Certificate
			for _, file := range files {
				// #nosec G304 - Certificate file path from CLI argument
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read certificate file: %w", err)
				}
				parsed, err := encoding.ParseCertificates(data)
				if err != nil {
					return fmt.Errorf("failed to parse %s: %w", file, err)
				}
				for _, cert := range parsed {
					printVerbose(cmd.ErrOrStderr(), cfg, "Certificate Subject: %s", cert.Subject.String())
				}
				certs = append(certs, parsed...)
			}

			sess, err := cfg.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			opts := []value.Option{
				value.WithLogger(sess.log),
				value.WithSecurityKey(sess.cfg.SecurityKey()),
			}

			var v value.StoredValue
			switch s.Syntax {
			case setting.SyntaxPrivateKey:
				if keyFile == "" {
					return fmt.Errorf("%s holds a private key: --key is required", key)
				}
				// #nosec G304 - Key file path from CLI argument
				keyPEM, err := os.ReadFile(keyFile)
				if err != nil {
					return fmt.Errorf("failed to read key file: %w", err)
				}
				var password []byte
				if keyPassword != "" {
					password = []byte(keyPassword)
				}
				privateKey, err := encoding.DecodePrivateKeyPEM(keyPEM, password)
				if err != nil {
					return fmt.Errorf("failed to parse private key: %w", err)
				}
				v, err = value.NewPrivateKeyValue(certs, privateKey, opts...)
				if err != nil {
					return err
				}
			default:
				v, err = value.NewX509CertificateValue(certs, opts...)
				if err != nil {
					return err
				}
			}

			doc, err := sess.document()
			if err != nil {
				return err
			}
			if err := doc.Write(key, v); err != nil {
				return fmt.Errorf("failed to write %s: %w", key, err)
			}
			if err := sess.save(cmd.Context(), doc, audit.EventSettingWrite, key); err != nil {
				return err
			}

			return printerFor(cmd, cfg).PrintSuccess(
				fmt.Sprintf("Successfully imported %d certificate(s) into %s", len(certs), key))
		},
	}

	cmd.Flags().StringVar(&keyFile, "key", "", "PKCS#8 PEM private key (PRIVATE_KEY settings)")
	cmd.Flags().StringVar(&keyPassword, "key-password", "", "password of an encrypted private key")
	return cmd
}

// newCertShowCmd builds the cert show command
func newCertShowCmd(cfg *Config) *cobra.Command {
	var (
		detail bool
		asPEM  bool
	)

	cmd := &cobra.Command{
		Use:   "show <key>",
		Short: "Show certificates",
		Long: `Show the subject, serial, validity and fingerprints of every certificate
in a setting. --pem writes the chain as PEM instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			sess, err := cfg.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			doc, err := sess.document()
			if err != nil {
				return err
			}
			v, err := doc.Read(key)
			if err != nil {
				return err
			}

			var certs *value.X509CertificateValue
			switch typed := v.(type) {
			case *value.X509CertificateValue:
				certs = typed
			case *value.PrivateKeyValue:
				certs, err = value.NewX509CertificateValue(typed.Certificates(), value.WithLogger(sess.log))
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("%w: %s", ErrNotCertificateSetting, key)
			}

			if asPEM {
				if !certs.HasCertificates() {
					return fmt.Errorf("%s holds no certificates", key)
				}
				data, err := encoding.EncodeCertificateChainPEM(certs.Certificates())
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			return printerFor(cmd, cfg).PrintCertificates(key, certs.ToInfoMap(detail))
		},
	}

	cmd.Flags().BoolVar(&detail, "detail", false, "include a full text dump of each certificate")
	cmd.Flags().BoolVar(&asPEM, "pem", false, "write the certificate chain as PEM")
	return cmd
}

// newCertClearCmd builds the cert clear command
func newCertClearCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <key>",
		Short: "Clear certificates",
		Long:  `Reset a certificate setting to its empty default`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			s, err := setting.Lookup(key)
			if err != nil {
				return err
			}
			if s.Syntax != setting.SyntaxX509Cert && s.Syntax != setting.SyntaxPrivateKey {
				return fmt.Errorf("%w: %s is %s", ErrNotCertificateSetting, key, s.Syntax)
			}
			return resetSetting(cmd, cfg, key)
		},
	}
}
