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
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/audit"
	"github.com/jeremyhahn/go-storedconfig/pkg/adapters/logger"
	"github.com/jeremyhahn/go-storedconfig/pkg/correlation"
	"github.com/jeremyhahn/go-storedconfig/pkg/health"
	"github.com/jeremyhahn/go-storedconfig/pkg/setting"
	"github.com/jeremyhahn/go-storedconfig/pkg/storedconfig"
	"github.com/jeremyhahn/go-storedconfig/pkg/value"
)

// maxBodySize limits setting update bodies.
const maxBodySize = 1 << 20

// HandlerContext holds the state shared by the REST handlers.
type HandlerContext struct {
	// HealthChecker backs the /health/* probes
	HealthChecker *health.Checker

	store    *storedconfig.Store
	document string
	version  string
	locale   language.Tag
	log      logger.Logger
	auditor  audit.AuditAdapter

	// mu serializes read-modify-save cycles on the served document
	mu sync.Mutex
}

// NewHandlerContext creates handlers serving the named document of store.
func NewHandlerContext(store *storedconfig.Store, document, version string, locale language.Tag, log logger.Logger) *HandlerContext {
	return &HandlerContext{
		store:    store,
		document: document,
		version:  version,
		locale:   locale,
		log:      log,
		auditor:  audit.NewNoOpAuditAdapter(),
	}
}

// SetHealthChecker sets the checker used by the probe handlers.
func (h *HandlerContext) SetHealthChecker(checker *health.Checker) {
	h.HealthChecker = checker
}

// HealthHandler handles GET /health requests.
func (h *HandlerContext) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{Status: "ok", Version: h.version}, http.StatusOK)
}

// ListDocumentsHandler handles GET /api/v1/documents requests.
func (h *HandlerContext) ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.List()
	if err != nil {
		handleError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, ListDocumentsResponse{Documents: names}, http.StatusOK)
}

// ListSettingsHandler handles GET /api/v1/settings requests. The optional
// category query parameter filters the catalog.
func (h *HandlerContext) ListSettingsHandler(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.OpenOrNew(h.document)
	if err != nil {
		handleError(w, err)
		return
	}

	settings := setting.All()
	if category := r.URL.Query().Get("category"); category != "" {
		settings = setting.ByCategory(setting.Category(strings.ToUpper(category)))
	}

	resp := ListSettingsResponse{
		Document: h.document,
		Settings: make([]SettingInfo, 0, len(settings)),
	}
	for _, s := range settings {
		resp.Settings = append(resp.Settings, settingInfo(doc, &s))
	}
	writeJSON(w, resp, http.StatusOK)
}

// GetSettingHandler handles GET /api/v1/settings/{key} requests.
func (h *HandlerContext) GetSettingHandler(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.OpenOrNew(h.document)
	if err != nil {
		handleError(w, err)
		return
	}

	resp, err := h.settingResponse(doc, chi.URLParam(r, "key"), h.localeFor(r))
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, resp, http.StatusOK)
}

// UpdateSettingHandler handles PUT /api/v1/settings/{key} requests. The
// body is the JSON encoding of the new value, e.g. "ldaps://host" or true.
// Certificate and private key settings are refused; they are imported with
// the cert import command.
func (h *HandlerContext) UpdateSettingHandler(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	s, err := setting.Lookup(key)
	if err != nil {
		handleError(w, err)
		return
	}
	if s.Syntax == setting.SyntaxX509Cert || s.Syntax == setting.SyntaxPrivateKey {
		err := fmt.Errorf("%w: %s is %s", ErrCertificateSetting, key, s.Syntax)
		h.recordEvent(r, audit.EventSettingWrite, key, err)
		writeErrorWithMessage(w, err, "Use 'storedconfig cert import' to change certificate settings", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeErrorWithMessage(w, ErrInvalidRequest, "Request body too large or unreadable", http.StatusBadRequest)
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		writeErrorWithMessage(w, ErrInvalidRequest, "Request body must contain a JSON value", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.store.OpenOrNew(h.document)
	if err != nil {
		handleError(w, err)
		return
	}
	if err := doc.ImportJSON(key, string(body)); err != nil {
		h.recordEvent(r, audit.EventSettingWrite, key, err)
		handleError(w, err)
		return
	}
	if err := h.store.Save(h.document, doc); err != nil {
		h.recordEvent(r, audit.EventSettingWrite, key, err)
		handleError(w, err)
		return
	}
	h.recordEvent(r, audit.EventSettingWrite, key, nil)

	correlation.Logger(r.Context(), h.log).Info("Setting updated",
		logger.String("document", h.document),
		logger.String("setting", key))

	resp, err := h.settingResponse(doc, key, h.localeFor(r))
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, resp, http.StatusOK)
}

// ResetSettingHandler handles DELETE /api/v1/settings/{key} requests.
func (h *HandlerContext) ResetSettingHandler(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.store.OpenOrNew(h.document)
	if err != nil {
		handleError(w, err)
		return
	}
	if err := doc.Reset(key); err != nil {
		h.recordEvent(r, audit.EventSettingReset, key, err)
		handleError(w, err)
		return
	}
	if err := h.store.Save(h.document, doc); err != nil {
		h.recordEvent(r, audit.EventSettingReset, key, err)
		handleError(w, err)
		return
	}
	h.recordEvent(r, audit.EventSettingReset, key, nil)

	correlation.Logger(r.Context(), h.log).Info("Setting reset",
		logger.String("document", h.document),
		logger.String("setting", key))
	w.WriteHeader(http.StatusNoContent)
}

// GetCertificatesHandler handles GET /api/v1/settings/{key}/certificates
// requests. detail=true adds a full text dump of every certificate.
func (h *HandlerContext) GetCertificatesHandler(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	detail := false
	if raw := r.URL.Query().Get("detail"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeErrorWithMessage(w, ErrInvalidRequest, fmt.Sprintf("invalid detail parameter %q", raw), http.StatusBadRequest)
			return
		}
		detail = parsed
	}

	doc, err := h.store.OpenOrNew(h.document)
	if err != nil {
		handleError(w, err)
		return
	}
	v, err := doc.Read(key)
	if err != nil {
		handleError(w, err)
		return
	}

	var certs *value.X509CertificateValue
	switch typed := v.(type) {
	case *value.X509CertificateValue:
		certs = typed
	case *value.PrivateKeyValue:
		certs, err = value.NewX509CertificateValue(typed.Certificates(), value.WithLogger(h.log))
		if err != nil {
			handleError(w, err)
			return
		}
	default:
		handleError(w, fmt.Errorf("%w: %s", ErrNotCertificateSetting, key))
		return
	}

	syntax, _ := value.SyntaxOf(v)
	writeJSON(w, CertificatesResponse{
		Key:          key,
		Syntax:       syntax.String(),
		Certificates: certs.ToInfoMap(detail),
	}, http.StatusOK)
}

// ValidateHandler handles GET /api/v1/validate requests.
func (h *HandlerContext) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.OpenOrNew(h.document)
	if err != nil {
		handleError(w, err)
		return
	}

	problems := doc.Validate()
	resp := ValidateResponse{
		Document: h.document,
		Valid:    len(problems) == 0,
	}
	if !resp.Valid {
		resp.Problems = problems
	}
	writeJSON(w, resp, http.StatusOK)
}

func (h *HandlerContext) settingResponse(doc *storedconfig.StoredConfiguration, key string, locale language.Tag) (*SettingResponse, error) {
	s, err := setting.Lookup(key)
	if err != nil {
		return nil, err
	}
	v, err := doc.Read(key)
	if err != nil {
		return nil, err
	}

	resp := &SettingResponse{
		SettingInfo: settingInfo(doc, s),
		Value:       v.ToDebugString(false, locale),
		Display:     v.ToDebugString(true, locale),
	}
	if problems := v.Validate(s); len(problems) > 0 {
		resp.Problems = problems
	}
	return resp, nil
}

// localeFor picks the rendering locale: the locale query parameter, then
// the first Accept-Language tag, then the server default.
func (h *HandlerContext) localeFor(r *http.Request) language.Tag {
	if raw := r.URL.Query().Get("locale"); raw != "" {
		if tag, err := language.Parse(raw); err == nil {
			return tag
		}
	}
	if header := r.Header.Get("Accept-Language"); header != "" {
		if tags, _, err := language.ParseAcceptLanguage(header); err == nil && len(tags) > 0 {
			return tags[0]
		}
	}
	return h.locale
}

func settingInfo(doc *storedconfig.StoredConfiguration, s *setting.Setting) SettingInfo {
	info := SettingInfo{
		Key:         s.Key,
		Label:       s.Label,
		Description: s.Description,
		Category:    string(s.Category),
		Syntax:      s.Syntax.String(),
		Required:    s.Required,
		IsDefault:   doc.IsDefault(s.Key),
	}
	if t, ok := doc.SettingModifyTime(s.Key); ok {
		info.ModifyTime = &t
	}
	return info
}
