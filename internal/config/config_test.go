package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "ENV", "PORT", "STORE_MODE", "SQLITE_PATH", "LEDGER_KEY", "LEDGER_TIMEZONE",
		"DAILY_CALORIE_GOAL", "CALENDAR_DAYS_BACK", "CALENDAR_DAYS_FORWARD", "AUTH_MODE",
		"AUTH_REQUIRED", "BLOB_MODE", "EXPORT_MAX_RANGE_DAYS", "DATABASE_URL",
		"DATABASE_URL_POOLED", "DATABASE_URL_DIRECT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Env != "local" || cfg.Port != 8080 {
		t.Fatalf("unexpected env/port %s/%d", cfg.Env, cfg.Port)
	}
	if cfg.Store.Mode != StoreModeAuto || cfg.Store.LedgerKey != "nutrition_ledger" {
		t.Fatalf("unexpected store config %+v", cfg.Store)
	}
	if cfg.Store.SQLitePath != "" {
		t.Fatalf("auto mode must not invent a sqlite path, got %q", cfg.Store.SQLitePath)
	}
	if cfg.Ledger.CalendarDaysBack != 7 || cfg.Ledger.CalendarDaysForward != 7 {
		t.Fatalf("unexpected calendar window %+v", cfg.Ledger)
	}
	if cfg.Ledger.ExportMaxRangeDays != 90 {
		t.Fatalf("expected export range 90, got %d", cfg.Ledger.ExportMaxRangeDays)
	}
	if cfg.AuthMode != AuthModeNone || cfg.AuthRequired {
		t.Fatalf("expected auth disabled, got mode=%s required=%t", cfg.AuthMode, cfg.AuthRequired)
	}
	if cfg.Blob.Mode != BlobModeLocal {
		t.Fatalf("expected blob mode local, got %s", cfg.Blob.Mode)
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		t.Fatal("expected localhost CORS origins in local env")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE_MODE", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/ledger.db")
	t.Setenv("LEDGER_TIMEZONE", "Europe/Berlin")
	t.Setenv("DAILY_CALORIE_GOAL", "1800")
	t.Setenv("CALENDAR_DAYS_BACK", "14")
	t.Setenv("AUTH_MODE", "dev")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("DATABASE_URL", "postgres://db")
	t.Setenv("DATABASE_URL_POOLED", "postgres://pooled")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg := Load()

	if cfg.Store.Mode != StoreModeSQLite || cfg.Store.SQLitePath != "/tmp/ledger.db" {
		t.Fatalf("unexpected store config %+v", cfg.Store)
	}
	if cfg.Ledger.Location.String() != "Europe/Berlin" {
		t.Fatalf("expected Europe/Berlin, got %s", cfg.Ledger.Location)
	}
	if cfg.Ledger.DailyCalorieGoal != 1800 || cfg.Ledger.CalendarDaysBack != 14 {
		t.Fatalf("unexpected ledger config %+v", cfg.Ledger)
	}
	if cfg.AuthMode != AuthModeDev || !cfg.AuthRequired {
		t.Fatalf("expected dev auth required, got %s/%t", cfg.AuthMode, cfg.AuthRequired)
	}
	if cfg.DatabaseURL != "postgres://pooled" {
		t.Fatalf("expected pooled url to win, got %s", cfg.DatabaseURL)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins outside local, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadRejectsUnknownModes(t *testing.T) {
	t.Setenv("STORE_MODE", "redis")
	t.Setenv("AUTH_MODE", "siwa")
	t.Setenv("LEDGER_TIMEZONE", "Mars/Olympus")

	cfg := Load()

	if cfg.Store.Mode != StoreModeAuto {
		t.Fatalf("expected fallback to auto, got %s", cfg.Store.Mode)
	}
	if cfg.AuthMode != AuthModeNone {
		t.Fatalf("expected fallback to none, got %s", cfg.AuthMode)
	}
	if cfg.Ledger.TimezoneName != "" {
		t.Fatalf("expected invalid timezone dropped, got %q", cfg.Ledger.TimezoneName)
	}
}
