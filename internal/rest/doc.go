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

// Package rest exposes a stored configuration document over HTTP.
//
// # Server Setup
//
//	store, _ := storedconfig.NewStore(storedconfig.StoreConfig{
//	    Backend:     backend,
//	    BackendName: "file",
//	})
//
//	server, _ := rest.NewServer(&rest.Config{
//	    Addr:     ":8443",
//	    Store:    store,
//	    Document: "default",
//	    Version:  "1.0.0",
//	})
//
//	go server.Start()
//	defer server.Stop(ctx)
//
// # API Endpoints
//
// Health and metrics (no authentication):
//   - GET /health - Returns server status and version
//   - GET /health/live, /health/ready, /health/startup - Kubernetes probes
//     naming the served document and the server uptime
//   - GET /metrics - Prometheus metrics
//
// Settings (reader role):
//   - GET /api/v1/documents - List stored documents
//   - GET /api/v1/settings?category=LDAP - List catalog settings and their state
//   - GET /api/v1/settings/{key}?locale=de - Get a setting value
//   - GET /api/v1/settings/{key}/certificates?detail=true - Describe held certificates
//   - GET /api/v1/validate - Validate every setting of the document
//
// Settings (admin role):
//   - PUT /api/v1/settings/{key} - Replace a value from its JSON encoding;
//     certificate and private key settings answer 400 (use cert import)
//   - DELETE /api/v1/settings/{key} - Reset a setting to its default
//   - GET /api/v1/audit?type=setting.write&setting=ldap.serverUrls - Query the audit trail
//   - GET /api/v1/audit/stats - Audit statistics
//
// Every /api/v1 route is throttled per client when a RateLimiter is
// configured.
//
// # Error Handling
//
// Error responses carry a JSON body:
//
//	{
//	  "error": "setting: unknown setting: ldap.bogus",
//	  "code": 404
//	}
//
// Unknown settings and documents map to 404, malformed input and syntax
// mismatches to 400, missing credentials to 401, missing roles to 403 and
// throttled clients to 429.
package rest
