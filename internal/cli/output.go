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
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/jeremyhahn/go-storedconfig/pkg/setting"
	"github.com/jeremyhahn/go-storedconfig/pkg/value"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText  OutputFormat = "text"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatTable OutputFormat = "table"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(strings.ToLower(format)),
		writer: writer,
	}
}

// SettingView is the printable state of one setting in a document
type SettingView struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Category string   `json:"category"`
	Syntax   string   `json:"syntax"`
	Required bool     `json:"required"`
	Default  bool     `json:"isDefault"`
	Value    string   `json:"value"`
	Display  string   `json:"display,omitempty"`
	Problems []string `json:"problems,omitempty"`

	// Certificates counts the certificates held by certificate settings
	Certificates int `json:"certificates,omitempty"`
}

// PrintSettings prints the settings of a document
func (p *Printer) PrintSettings(document string, settings []SettingView) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]any{
			"document": document,
			"settings": settings,
		})
	case OutputFormatTable:
		rows := make([][]string, 0, len(settings))
		for _, s := range settings {
			rows = append(rows, []string{s.Key, s.Category, s.Syntax,
				strconv.FormatBool(s.Required), strconv.FormatBool(s.Default), summarize(s)})
		}
		return p.printTable([]string{"KEY", "CATEGORY", "SYNTAX", "REQUIRED", "DEFAULT", "VALUE"}, rows)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Document: %s\n", document)
		for _, s := range settings {
			marker := ""
			if s.Default {
				marker = " (default)"
			}
			fmt.Fprintf(p.writer, "  %s [%s]%s: %s\n", s.Key, s.Syntax, marker, summarize(s))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSetting prints a single setting with its localized rendering
func (p *Printer) PrintSetting(s SettingView) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(s)
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintf(p.writer, "Key:      %s\n", s.Key)
		fmt.Fprintf(p.writer, "Label:    %s\n", s.Label)
		fmt.Fprintf(p.writer, "Syntax:   %s\n", s.Syntax)
		fmt.Fprintf(p.writer, "Default:  %t\n", s.Default)
		if strings.Contains(s.Display, "\n") {
			fmt.Fprintln(p.writer, "Value:")
			fmt.Fprint(p.writer, indent(s.Display, "  "))
		} else {
			fmt.Fprintf(p.writer, "Value:    %s\n", s.Display)
		}
		for _, problem := range s.Problems {
			fmt.Fprintf(p.writer, "Problem:  %s\n", problem)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintCertificates prints the certificates held by a setting
func (p *Printer) PrintCertificates(key string, certs []value.CertificateInfo) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]any{
			"key":          key,
			"certificates": certs,
		})
	case OutputFormatTable:
		if len(certs) == 0 {
			fmt.Fprintf(p.writer, "No certificates configured for %s\n", key)
			return nil
		}
		rows := make([][]string, 0, len(certs))
		for i, c := range certs {
			rows = append(rows, []string{strconv.Itoa(i), c.Subject, c.Serial, c.Issuer, c.ExpireDate})
		}
		return p.printTable([]string{"#", "SUBJECT", "SERIAL", "ISSUER", "EXPIRES"}, rows)
	case OutputFormatText:
		if len(certs) == 0 {
			fmt.Fprintf(p.writer, "No certificates configured for %s\n", key)
			return nil
		}
		for i, c := range certs {
			if i > 0 {
				fmt.Fprintln(p.writer)
			}
			fmt.Fprintf(p.writer, "Certificate %d\n", i)
			fmt.Fprintf(p.writer, "  Subject:     %s\n", c.Subject)
			fmt.Fprintf(p.writer, "  Serial:      %s\n", c.Serial)
			fmt.Fprintf(p.writer, "  Issuer:      %s\n", c.Issuer)
			fmt.Fprintf(p.writer, "  Issue Date:  %s\n", c.IssueDate)
			fmt.Fprintf(p.writer, "  Expire Date: %s\n", c.ExpireDate)
			if c.MD5Hash != "" {
				fmt.Fprintf(p.writer, "  MD5:         %s\n", c.MD5Hash)
			}
			if c.SHA1Hash != "" {
				fmt.Fprintf(p.writer, "  SHA1:        %s\n", c.SHA1Hash)
			}
			if c.SHA512Hash != "" {
				fmt.Fprintf(p.writer, "  SHA512:      %s\n", c.SHA512Hash)
			}
			if c.Detail != "" {
				fmt.Fprint(p.writer, indent(c.Detail, "  "))
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintProblems prints validation problems by setting key
func (p *Printer) PrintProblems(document string, problems map[string][]string) error {
	keys := make([]string, 0, len(problems))
	for k := range problems {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]any{
			"document": document,
			"valid":    len(problems) == 0,
			"problems": problems,
		})
	case OutputFormatTable:
		if len(problems) == 0 {
			fmt.Fprintf(p.writer, "Document %s is valid\n", document)
			return nil
		}
		var rows [][]string
		for _, k := range keys {
			for _, problem := range problems[k] {
				rows = append(rows, []string{k, problem})
			}
		}
		return p.printTable([]string{"KEY", "PROBLEM"}, rows)
	case OutputFormatText:
		if len(problems) == 0 {
			fmt.Fprintf(p.writer, "Document %s is valid\n", document)
			return nil
		}
		fmt.Fprintf(p.writer, "Document %s has problems:\n", document)
		for _, k := range keys {
			for _, problem := range problems[k] {
				fmt.Fprintf(p.writer, "  - %s: %s\n", k, problem)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// DocumentView is the printable summary of a stored document
type DocumentView struct {
	Name    string `json:"name"`
	Backups int    `json:"backups"`
}

// PrintDocuments prints the stored documents
func (p *Printer) PrintDocuments(docs []DocumentView) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]any{
			"documents": docs,
		})
	case OutputFormatTable:
		if len(docs) == 0 {
			fmt.Fprintln(p.writer, "No documents found")
			return nil
		}
		rows := make([][]string, 0, len(docs))
		for _, d := range docs {
			rows = append(rows, []string{d.Name, strconv.Itoa(d.Backups)})
		}
		return p.printTable([]string{"NAME", "BACKUPS"}, rows)
	case OutputFormatText:
		if len(docs) == 0 {
			fmt.Fprintln(p.writer, "No documents found")
			return nil
		}
		fmt.Fprintln(p.writer, "Documents:")
		for _, d := range docs {
			fmt.Fprintf(p.writer, "  - %s (%d backups)\n", d.Name, d.Backups)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]any{
			"status":  "success",
			"message": message,
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintln(p.writer, message)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]any{
			"status": "error",
			"error":  err.Error(),
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data any) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// printTable renders rows under header
func (p *Printer) printTable(header []string, rows [][]string) error {
	table := tablewriter.NewWriter(p.writer)
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	table.Header(cells...)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("failed to build table: %w", err)
	}
	return table.Render()
}

// summarize renders a value on one line for list output
func summarize(s SettingView) string {
	if s.Default {
		return "-"
	}
	switch setting.Syntax(s.Syntax) {
	case setting.SyntaxX509Cert, setting.SyntaxPrivateKey:
		return fmt.Sprintf("%d certificate(s)", s.Certificates)
	default:
		return s.Display
	}
}

func indent(text, prefix string) string {
	var sb strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		sb.WriteString(prefix)
		sb.WriteString(line)
	}
	if !strings.HasSuffix(text, "\n") && text != "" {
		sb.WriteByte('\n')
	}
	return sb.String()
}
