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

package setting

import (
	"fmt"
	"sort"
)

// Well-known setting keys
const (
	KeyLDAPServerCerts       = "ldap.serverCerts"
	KeyLDAPServerURLs        = "ldap.serverUrls"
	KeyLDAPProxyUsername     = "ldap.proxy.username"
	KeyLDAPTestUserUsername  = "ldap.testuser.username"
	KeyLDAPPromiscuousEnable = "ldap.promiscuousEnable"
	KeyHTTPSServerCert       = "https.server.cert"
	KeyHTTPSServerEnable     = "https.server.enable"
	KeyEmailServerAddress    = "email.smtp.address"
	KeyEmailServerCerts      = "email.smtp.serverCerts"
	KeyEmailUseTLS           = "email.smtp.useTLS"
	KeyAuditSyslogHost       = "audit.syslog.host"
	KeyAuditSyslogCerts      = "audit.syslog.certificates"
	KeyAuditSyslogEnable     = "audit.syslog.enable"
)

var catalog = []Setting{
	{
		Key:         KeyLDAPServerCerts,
		Label:       "LDAP Server Certificates",
		Description: "Certificates trusted when connecting to the LDAP directory.",
		Category:    CategoryLDAP,
		Syntax:      SyntaxX509Cert,
	},
	{
		Key:         KeyLDAPServerURLs,
		Label:       "LDAP URLs",
		Description: "LDAP server URL, for example ldaps://ldap.example.com:636.",
		Category:    CategoryLDAP,
		Syntax:      SyntaxString,
		Required:    true,
		Pattern:     `^ldaps?://[^\s]+$`,
		MaxLength:   1024,
	},
	{
		Key:         KeyLDAPProxyUsername,
		Label:       "LDAP Proxy User",
		Description: "Distinguished name of the proxy account used to bind.",
		Category:    CategoryLDAP,
		Syntax:      SyntaxString,
		Required:    true,
		MaxLength:   1024,
	},
	{
		Key:         KeyLDAPTestUserUsername,
		Label:       "LDAP Test User",
		Description: "Distinguished name of an account used to check directory health.",
		Category:    CategoryLDAP,
		Syntax:      SyntaxString,
		MaxLength:   1024,
	},
	{
		Key:         KeyLDAPPromiscuousEnable,
		Label:       "Promiscuous LDAP SSL",
		Description: "Accept any certificate presented by the LDAP server.",
		Category:    CategoryLDAP,
		Syntax:      SyntaxBoolean,
	},
	{
		Key:         KeyHTTPSServerCert,
		Label:       "HTTPS Server Certificate",
		Description: "Certificate chain and private key served by the HTTPS listener.",
		Category:    CategoryHTTPS,
		Syntax:      SyntaxPrivateKey,
	},
	{
		Key:      KeyHTTPSServerEnable,
		Label:    "Enable HTTPS Server",
		Category: CategoryHTTPS,
		Syntax:   SyntaxBoolean,
	},
	{
		Key:         KeyEmailServerAddress,
		Label:       "SMTP Server Address",
		Description: "Host name of the outbound mail server.",
		Category:    CategoryEmail,
		Syntax:      SyntaxString,
		Pattern:     `^[A-Za-z0-9.-]+(:[0-9]{1,5})?$`,
		MaxLength:   255,
	},
	{
		Key:         KeyEmailServerCerts,
		Label:       "SMTP Server Certificates",
		Description: "Certificates trusted when connecting to the mail server.",
		Category:    CategoryEmail,
		Syntax:      SyntaxX509Cert,
	},
	{
		Key:      KeyEmailUseTLS,
		Label:    "Use TLS for SMTP",
		Category: CategoryEmail,
		Syntax:   SyntaxBoolean,
	},
	{
		Key:         KeyAuditSyslogHost,
		Label:       "Syslog Audit Server",
		Description: "Syslog server in the form protocol,host,port.",
		Category:    CategoryAudit,
		Syntax:      SyntaxString,
		Pattern:     `^(udp|tcp|tls),[^,]+,[0-9]{1,5}$`,
		MaxLength:   512,
	},
	{
		Key:         KeyAuditSyslogCerts,
		Label:       "Syslog Audit Server Certificates",
		Description: "Certificates trusted when forwarding audit events over TLS.",
		Category:    CategoryAudit,
		Syntax:      SyntaxX509Cert,
	},
	{
		Key:      KeyAuditSyslogEnable,
		Label:    "Enable Syslog Auditing",
		Category: CategoryAudit,
		Syntax:   SyntaxBoolean,
	},
}

var byKey = func() map[string]*Setting {
	m := make(map[string]*Setting, len(catalog))
	for i := range catalog {
		m[catalog[i].Key] = &catalog[i]
	}
	return m
}()

// Lookup returns a copy of the setting registered under key.
func Lookup(key string) (*Setting, error) {
	s, ok := byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	cp := *s
	return &cp, nil
}

// All returns every known setting ordered by key.
func All() []Setting {
	out := make([]Setting, len(catalog))
	copy(out, catalog)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ByCategory returns the settings in category ordered by key.
func ByCategory(category Category) []Setting {
	var out []Setting
	for _, s := range All() {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

// BySyntax returns the settings stored with syntax ordered by key.
func BySyntax(syntax Syntax) []Setting {
	var out []Setting
	for _, s := range All() {
		if s.Syntax == syntax {
			out = append(out, s)
		}
	}
	return out
}
