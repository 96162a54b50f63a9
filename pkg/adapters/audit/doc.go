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

/*
Package audit records who changed which stored setting, and when.

# Overview

The REST server and the CLI report every setting write and reset, plus
denied or failed access attempts, to an AuditAdapter. This follows the
same adapter pattern as the auth and logger packages.

# Implementations

  - MemoryAuditAdapter keeps a bounded window of events and answers
    queries. The REST server exposes it on GET /api/v1/audit.
  - LoggerAuditAdapter writes each event to a logger.Logger and does not
    support queries.
  - NoOpAuditAdapter discards everything.

# Usage

	auditor := audit.NewMemoryAuditAdapter(1000)
	_ = auditor.LogEvent(ctx, &audit.AuditEvent{
		EventType:  audit.EventSettingWrite,
		Severity:   audit.SeverityInfo,
		Outcome:    audit.OutcomeSuccess,
		Principal:  "admin",
		Document:   "default",
		SettingKey: "email.smtp.useTLS",
	})

	events, _ := auditor.GetEvents(ctx, &audit.EventQuery{
		SettingKey: "email.smtp.useTLS",
		Limit:      10,
	})

Events identify settings by key. Private keys and other secrets must not
be placed in Metadata.
*/
package audit
