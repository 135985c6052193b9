package dbmigrate

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/fdg312/nutrition-ledger/internal/config"
	"github.com/fdg312/nutrition-ledger/migrations"
)

func TestSelectDatabaseURL(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.Config
		strict     bool
		wantURL    string
		wantSource string
		wantWarn   bool
		wantErr    bool
	}{
		{
			name:       "direct wins",
			cfg:        config.Config{DatabaseURLDirect: "postgres://direct", DatabaseURLRaw: "postgres://url", DatabaseURLPooled: "postgres://pooled"},
			wantURL:    "postgres://direct",
			wantSource: "DATABASE_URL_DIRECT",
		},
		{
			name:       "falls back to DATABASE_URL",
			cfg:        config.Config{DatabaseURLRaw: "postgres://url", DatabaseURLPooled: "postgres://pooled"},
			wantURL:    "postgres://url",
			wantSource: "DATABASE_URL",
		},
		{
			name:       "pooled with warning",
			cfg:        config.Config{DatabaseURLPooled: "postgres://pooled"},
			wantURL:    "postgres://pooled",
			wantSource: "DATABASE_URL_POOLED",
			wantWarn:   true,
		},
		{
			name:    "strict requires direct",
			cfg:     config.Config{DatabaseURLRaw: "postgres://url"},
			strict:  true,
			wantErr: true,
		},
		{
			name:    "nothing configured",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := SelectDatabaseURL(&tt.cfg, tt.strict)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", sel)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sel.URL != tt.wantURL || sel.Source != tt.wantSource {
				t.Fatalf("got url=%q source=%q", sel.URL, sel.Source)
			}
			if (sel.Warning != "") != tt.wantWarn {
				t.Fatalf("unexpected warning %q", sel.Warning)
			}
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) < 1 {
		t.Fatal("expected embedded migrations")
	}

	raw, err := fs.ReadFile(migrations.FS, "00001_create_ledger_kv.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), "-- +goose Up") || !strings.Contains(string(raw), "ledger_kv") {
		t.Fatalf("unexpected migration content: %s", raw)
	}
}

func TestRunRequiresURL(t *testing.T) {
	if err := Run("up", ""); err == nil {
		t.Fatal("expected error for empty URL")
	}
}
