package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/nutrition-ledger/internal/config"
	"github.com/fdg312/nutrition-ledger/internal/dbmigrate"
	"github.com/fdg312/nutrition-ledger/internal/httpserver"
)

func main() {
	cfg := config.Load()

	printStartupBanner(cfg)

	if cfg.RunMigrationsOnStartup {
		sel, err := dbmigrate.SelectDatabaseURL(cfg, true)
		if err != nil {
			log.Fatalf("FATAL startup migrations: %v", err)
		}

		log.Printf("INFO startup migrations: command=up using=%s", sel.Source)
		if err := dbmigrate.Run("up", sel.URL); err != nil {
			log.Fatalf("FATAL startup migrations failed: %v", err)
		}
		log.Printf("INFO startup migrations: completed")
	}

	validateProductionConfig(cfg)

	server, err := httpserver.New(cfg)
	if err != nil {
		log.Fatalf("FATAL startup: %v", err)
	}
	defer server.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Printf("FATAL http: %v", err)
		}
	case <-ctx.Done():
		log.Println("INFO http: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("WARN http: shutdown: %v", err)
		}
	}
}

// printStartupBanner logs a one-time summary of the resolved configuration.
// Secrets are printed only as "set" / "not set".
func printStartupBanner(cfg *config.Config) {
	log.Println("========== Nutrition Ledger API ==========")
	log.Printf("  env              = %s", cfg.Env)
	log.Printf("  port             = %d", cfg.Port)
	log.Printf("  log_level        = %s", cfg.LogLevel)

	// ---- Store ----
	log.Println("---- store ----")
	log.Printf("  store_mode       = %s", cfg.Store.Mode)
	log.Printf("  ledger_key       = %s", cfg.Store.LedgerKey)
	log.Printf("  sqlite_path      = %s", nonEmptyOrDash(cfg.Store.SQLitePath))
	log.Printf("  runtime_url      = %s", describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled))
	log.Printf("  direct           = %s", setOrNot(cfg.DatabaseURLDirect))
	log.Printf("  migrations_on_startup = %t", cfg.RunMigrationsOnStartup)

	// ---- Ledger ----
	log.Println("---- ledger ----")
	log.Printf("  timezone         = %s", nonEmptyOrDash(cfg.Ledger.TimezoneName))
	log.Printf("  calorie_goal     = %d kcal", cfg.Ledger.DailyCalorieGoal)
	log.Printf("  calendar_window  = -%d/+%d days (max %d)", cfg.Ledger.CalendarDaysBack, cfg.Ledger.CalendarDaysForward, cfg.Ledger.CalendarMaxSpan)
	log.Printf("  export_max_range = %d days", cfg.Ledger.ExportMaxRangeDays)

	// ---- Auth ----
	log.Println("---- auth ----")
	log.Printf("  auth_mode        = %s", cfg.AuthMode)
	log.Printf("  auth_required    = %t", cfg.AuthRequired)
	log.Printf("  jwt_secret       = %s", secretStatus(cfg.JWTSecret, "change_me"))

	// ---- Blob / S3 ----
	log.Println("---- blob ----")
	log.Printf("  blob_mode        = %s", cfg.Blob.Mode)
	if cfg.Blob.Mode != config.BlobModeLocal || cfg.Store.Mode == config.StoreModeS3 {
		log.Printf("  s3: %s", cfg.Blob.S3.DiagnosticsSummary())
	}

	log.Println("==========================================")
}

// validateProductionConfig performs fatal checks that only matter in non-local envs.
func validateProductionConfig(cfg *config.Config) {
	isProd := cfg.Env == "production" || cfg.Env == "staging"

	needsS3 := cfg.Blob.Mode == config.BlobModeS3 || cfg.Store.Mode == config.StoreModeS3
	if needsS3 {
		if missing := cfg.Blob.S3.MissingRequired(); len(missing) > 0 {
			log.Fatalf("FATAL blob: S3 requested (BLOB_MODE or STORE_MODE) but config is incomplete, missing: %s", strings.Join(missing, ", "))
		}
	}

	if isProd && cfg.AuthMode == config.AuthModeDev && !cfg.AuthRequired {
		log.Printf("WARN auth: AUTH_MODE=dev without AUTH_REQUIRED in %s", cfg.Env)
	}

	// JWT_SECRET must not be default in production
	if isProd && cfg.AuthRequired && cfg.JWTSecret == "change_me" {
		log.Fatalf("FATAL auth: JWT_SECRET must not be 'change_me' in %s with AUTH_REQUIRED=1", cfg.Env)
	}

	// memory store is for local runs and tests only
	if isProd && cfg.Store.Mode == config.StoreModeMemory {
		log.Fatalf("FATAL store: STORE_MODE=memory is not allowed in %s", cfg.Env)
	}
}

// ---- helpers (no secrets) ----

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func nonEmptyOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func secretStatus(v, insecureDefault string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "not set"
	}
	if v == insecureDefault {
		return fmt.Sprintf("set (DEFAULT, insecure '%s')", insecureDefault)
	}
	return "set (custom)"
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}
