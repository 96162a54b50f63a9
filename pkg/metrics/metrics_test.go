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

package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsEnabled(t *testing.T) {
	if !IsEnabled() {
		t.Error("Expected metrics to be enabled by default")
	}

	Disable()
	if IsEnabled() {
		t.Error("Expected metrics to be disabled after Disable()")
	}

	Enable()
	if !IsEnabled() {
		t.Error("Expected metrics to be enabled after Enable()")
	}
}

func TestRecordOperation(t *testing.T) {
	Enable()
	OperationsTotal.Reset()
	OperationDuration.Reset()

	RecordOperation(OpSave, "file", StatusSuccess, 0.01)
	if got := testutil.ToFloat64(OperationsTotal.WithLabelValues(OpSave, "file", StatusSuccess)); got != 1 {
		t.Errorf("Expected 1 save recorded, got %v", got)
	}
	if count := testutil.CollectAndCount(OperationDuration); count != 1 {
		t.Errorf("Expected 1 histogram series, got %d", count)
	}

	RecordOperation(OpOpen, "memory", StatusError, 0.001)
	if count := testutil.CollectAndCount(OperationsTotal); count != 2 {
		t.Errorf("Expected 2 operation series, got %d", count)
	}
}

func TestRecordOperationWhenDisabled(t *testing.T) {
	Disable()
	defer Enable()

	OperationsTotal.Reset()
	RecordOperation(OpLoad, "memory", StatusSuccess, 0.1)
	if count := testutil.CollectAndCount(OperationsTotal); count != 0 {
		t.Errorf("Expected no operations recorded when disabled, got %d", count)
	}
}

func TestRecordError(t *testing.T) {
	Enable()
	ErrorsTotal.Reset()

	RecordError(OpOpen, "file", "not_found")
	RecordError(OpOpen, "file", "not_found")
	if got := testutil.ToFloat64(ErrorsTotal.WithLabelValues(OpOpen, "file", "not_found")); got != 2 {
		t.Errorf("Expected 2 errors, got %v", got)
	}
}

func TestCertificateCounters(t *testing.T) {
	Enable()
	CertificatesDropped.Reset()
	EncodeFailures.Reset()
	HashFailures.Reset()

	before := testutil.ToFloat64(CertificatesDecoded)
	RecordCertificateDecoded()
	RecordCertificateDecoded()
	if got := testutil.ToFloat64(CertificatesDecoded) - before; got != 2 {
		t.Errorf("Expected 2 decoded certificates, got %v", got)
	}

	RecordCertificateDropped(ReasonBase64)
	RecordCertificateDropped(ReasonCertificate)
	RecordCertificateDropped(ReasonCertificate)
	if got := testutil.ToFloat64(CertificatesDropped.WithLabelValues(ReasonCertificate)); got != 2 {
		t.Errorf("Expected 2 certificate drops, got %v", got)
	}
	if got := testutil.ToFloat64(CertificatesDropped.WithLabelValues(ReasonBase64)); got != 1 {
		t.Errorf("Expected 1 base64 drop, got %v", got)
	}

	RecordEncodeFailure("X509CERT")
	if got := testutil.ToFloat64(EncodeFailures.WithLabelValues("X509CERT")); got != 1 {
		t.Errorf("Expected 1 encode failure, got %v", got)
	}

	RecordHashFailure("SHA512")
	if got := testutil.ToFloat64(HashFailures.WithLabelValues("SHA512")); got != 1 {
		t.Errorf("Expected 1 hash failure, got %v", got)
	}
}

func TestCertificateCountersWhenDisabled(t *testing.T) {
	Disable()
	defer Enable()

	HashFailures.Reset()
	before := testutil.ToFloat64(CertificatesDecoded)

	RecordCertificateDecoded()
	RecordHashFailure("MD5")

	if got := testutil.ToFloat64(CertificatesDecoded); got != before {
		t.Errorf("Expected decoded counter unchanged, got %v want %v", got, before)
	}
	if count := testutil.CollectAndCount(HashFailures); count != 0 {
		t.Errorf("Expected no hash failures recorded, got %d", count)
	}
}

func TestSetSettingsTotal(t *testing.T) {
	Enable()
	SettingsTotal.Reset()

	SetSettingsTotal("default", 4)
	SetSettingsTotal("default", 3)
	if got := testutil.ToFloat64(SettingsTotal.WithLabelValues("default")); got != 3 {
		t.Errorf("Expected 3 settings, got %v", got)
	}
}

func TestTimer(t *testing.T) {
	Enable()
	OperationsTotal.Reset()

	NewTimer(OpWrite, "memory").Done(nil)
	NewTimer(OpWrite, "memory").Done(errors.New("boom"))

	if got := testutil.ToFloat64(OperationsTotal.WithLabelValues(OpWrite, "memory", StatusSuccess)); got != 1 {
		t.Errorf("Expected 1 successful write, got %v", got)
	}
	if got := testutil.ToFloat64(OperationsTotal.WithLabelValues(OpWrite, "memory", StatusError)); got != 1 {
		t.Errorf("Expected 1 failed write, got %v", got)
	}
}
