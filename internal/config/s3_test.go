package config

import (
	"strings"
	"testing"
)

func readyS3() S3Config {
	return S3Config{
		Endpoint:        "https://storage.yandexcloud.net",
		Region:          "ru-central1",
		Bucket:          "bucket",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	}
}

func TestS3ConfigIsConfigured(t *testing.T) {
	t.Run("empty config is not configured", func(t *testing.T) {
		if (S3Config{}).IsConfigured() {
			t.Fatal("expected IsConfigured=false for empty config")
		}
	})

	t.Run("required fields set is configured", func(t *testing.T) {
		if !readyS3().IsConfigured() {
			t.Fatal("expected IsConfigured=true when all required fields are set")
		}
	})
}

func TestS3ConfigMissingRequired(t *testing.T) {
	cfg := S3Config{
		Endpoint: "https://storage.yandexcloud.net",
		Bucket:   "bucket",
	}
	missing := cfg.MissingRequired()

	want := []string{"S3_REGION", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY"}
	if len(missing) != len(want) {
		t.Fatalf("expected %d missing fields, got %d (%v)", len(want), len(missing), missing)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Fatalf("expected missing[%d]=%s, got %s", i, want[i], missing[i])
		}
	}
}

func TestS3ConfigDiagnostics(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		level, code, _ := (S3Config{}).Diagnostics()
		if level != "INFO" || code != "s3_not_configured" {
			t.Fatalf("expected INFO/s3_not_configured, got %s/%s", level, code)
		}
	})

	t.Run("partial config", func(t *testing.T) {
		level, code, _ := (S3Config{Endpoint: "https://storage.yandexcloud.net"}).Diagnostics()
		if level != "WARN" || code != "s3_partial_config" {
			t.Fatalf("expected WARN/s3_partial_config, got %s/%s", level, code)
		}
	})

	t.Run("ready", func(t *testing.T) {
		level, code, _ := readyS3().Diagnostics()
		if level != "INFO" || code != "s3_ready" {
			t.Fatalf("expected INFO/s3_ready, got %s/%s", level, code)
		}
	})
}

func TestS3DiagnosticsSummaryHidesSecrets(t *testing.T) {
	summary := readyS3().DiagnosticsSummary()
	if strings.Contains(summary, "secret ") || strings.Contains(summary, "=key") {
		t.Fatalf("summary leaks credentials: %s", summary)
	}
	if !strings.Contains(summary, "secret_access_key=set") {
		t.Fatalf("expected masked secret indicator, got %s", summary)
	}
}
