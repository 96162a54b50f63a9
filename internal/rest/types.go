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

package rest

import (
	"time"

	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/audit"
	"github.com/jeremyhahn/go-storedconfig/pkg/value"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// SettingInfo describes a catalog setting and its state in the document.
type SettingInfo struct {
	Key         string     `json:"key"`
	Label       string     `json:"label"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category"`
	Syntax      string     `json:"syntax"`
	Required    bool       `json:"required"`
	IsDefault   bool       `json:"isDefault"`
	ModifyTime  *time.Time `json:"modifyTime,omitempty"`
}

// ListSettingsResponse represents the response for listing settings.
type ListSettingsResponse struct {
	Document string        `json:"document"`
	Settings []SettingInfo `json:"settings"`
}

// SettingResponse represents a single setting and its current value.
type SettingResponse struct {
	SettingInfo

	// Value is the compact debug rendering of the value
	Value string `json:"value"`

	// Display is the localized, human readable rendering of the value
	Display string `json:"display"`

	// Problems lists validation failures of the current value
	Problems []string `json:"problems,omitempty"`
}

// CertificatesResponse lists the certificates held by a setting.
type CertificatesResponse struct {
	Key          string                  `json:"key"`
	Syntax       string                  `json:"syntax"`
	Certificates []value.CertificateInfo `json:"certificates"`
}

// ValidateResponse reports validation problems of the whole document.
type ValidateResponse struct {
	Document string              `json:"document"`
	Valid    bool                `json:"valid"`
	Problems map[string][]string `json:"problems,omitempty"`
}

// ListDocumentsResponse lists the stored configuration documents.
type ListDocumentsResponse struct {
	Documents []string `json:"documents"`
}

// AuditEventsResponse lists recorded audit events.
type AuditEventsResponse struct {
	Events []*audit.AuditEvent `json:"events"`
	Count  int                 `json:"count"`
}
