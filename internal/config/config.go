package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // LEDGER_TIMEZONE в контейнерах без zoneinfo
)

const (
	StoreModeAuto     = "auto"
	StoreModeMemory   = "memory"
	StoreModeSQLite   = "sqlite"
	StoreModePostgres = "postgres"
	StoreModeS3       = "s3"
)

const (
	AuthModeNone = "none"
	AuthModeDev  = "dev"
)

// StoreConfig выбирает backend для KV (ledger + targets)
type StoreConfig struct {
	Mode       string // auto|memory|sqlite|postgres|s3
	SQLitePath string
	LedgerKey  string
}

// LedgerConfig — доменные настройки дневника питания
type LedgerConfig struct {
	TimezoneName        string
	Location            *time.Location
	DailyCalorieGoal    int
	CalendarDaysBack    int
	CalendarDaysForward int
	CalendarMaxSpan     int
	ExportMaxRangeDays  int
}

// Config содержит конфигурацию приложения
type Config struct {
	Env      string // local | staging | production
	Port     int
	LogLevel string

	// Database
	DatabaseURL       string // runtime connection (resolved: pooled > url > direct)
	DatabaseURLRaw    string // DATABASE_URL as provided
	DatabaseURLPooled string // DATABASE_URL_POOLED as provided
	DatabaseURLDirect string // for migrations / DDL (may be empty)

	Store  StoreConfig
	Ledger LedgerConfig

	// CORS
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	// Rate Limiting
	RateLimitRPS   int
	RateLimitBurst int

	Blob BlobConfig

	// Authentication
	AuthMode      string // none | dev
	AuthRequired  bool
	JWTSecret     string
	JWTIssuer     string
	JWTTTLMinutes int

	// Migrations
	RunMigrationsOnStartup bool
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	// APP_ENV (fallback to ENV, default: local)
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = os.Getenv("ENV")
	}
	if env == "" {
		env = "local"
	}

	port := envInt("PORT", 8080)

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "debug"
	}

	// ---------- Database ----------
	// Priority: DATABASE_URL_POOLED > DATABASE_URL > DATABASE_URL_DIRECT
	dbPooled := strings.TrimSpace(os.Getenv("DATABASE_URL_POOLED"))
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	dbDirect := strings.TrimSpace(os.Getenv("DATABASE_URL_DIRECT"))

	runtimeDB := dbPooled
	if runtimeDB == "" {
		runtimeDB = dbURL
	}
	if runtimeDB == "" {
		runtimeDB = dbDirect
	}

	// ---------- Store ----------
	storeMode := parseChoice("STORE_MODE", StoreModeAuto,
		StoreModeAuto, StoreModeMemory, StoreModeSQLite, StoreModePostgres, StoreModeS3)

	sqlitePath := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if sqlitePath == "" && storeMode == StoreModeSQLite {
		sqlitePath = DefaultSQLitePath()
	}

	ledgerKey := strings.TrimSpace(os.Getenv("LEDGER_KEY"))
	if ledgerKey == "" {
		ledgerKey = "nutrition_ledger"
	}

	// ---------- Ledger ----------
	tzName := strings.TrimSpace(os.Getenv("LEDGER_TIMEZONE"))
	loc := time.Local
	if tzName != "" {
		l, err := time.LoadLocation(tzName)
		if err != nil {
			log.Printf("WARNING: unknown LEDGER_TIMEZONE=%q, fallback to local", tzName)
			tzName = ""
		} else {
			loc = l
		}
	}

	calorieGoal := envInt("DAILY_CALORIE_GOAL", 0)
	if calorieGoal < 0 {
		calorieGoal = 0
	}

	daysBack := envInt("CALENDAR_DAYS_BACK", 7)
	if daysBack < 0 {
		daysBack = 7
	}
	daysForward := envInt("CALENDAR_DAYS_FORWARD", 7)
	if daysForward < 0 {
		daysForward = 7
	}
	maxSpan := envInt("CALENDAR_MAX_SPAN", 93)
	if maxSpan <= 0 {
		maxSpan = 93
	}

	exportMaxRange := envInt("EXPORT_MAX_RANGE_DAYS", 90)
	if exportMaxRange <= 0 {
		exportMaxRange = 90
	}

	// ---------- Migrations ----------
	runMigrationsOnStartup := parseBoolEnv("RUN_MIGRATIONS_ON_STARTUP")

	// ---------- CORS ----------
	corsOrigins := parseCORSOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"), env)
	corsAllowCreds := parseBoolEnv("CORS_ALLOW_CREDENTIALS")

	// ---------- Rate Limiting ----------
	rateLimitRPS := envInt("RATE_LIMIT_RPS", 0)
	rateLimitBurst := envInt("RATE_LIMIT_BURST", 0)

	// ---------- Blob / S3 ----------
	blobMode := parseChoice("BLOB_MODE", BlobModeLocal, BlobModeLocal, BlobModeS3, BlobModeAuto)

	// S3_PRESIGN_TTL_SECONDS (default: 900, enforce > 0)
	s3PresignTTL := envInt("S3_PRESIGN_TTL_SECONDS", 900)
	if s3PresignTTL <= 0 {
		s3PresignTTL = 900
	}

	s3Prefix := strings.Trim(strings.TrimSpace(os.Getenv("S3_PREFIX")), "/")
	if s3Prefix == "" {
		s3Prefix = "nutrition-ledger"
	}

	s3Cfg := S3Config{
		Endpoint:          strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		Region:            strings.TrimSpace(os.Getenv("S3_REGION")),
		Bucket:            strings.TrimSpace(os.Getenv("S3_BUCKET")),
		AccessKeyID:       strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
		SecretAccessKey:   strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
		Prefix:            s3Prefix,
		PresignTTLSeconds: s3PresignTTL,
	}

	// ---------- Auth ----------
	authMode := parseChoice("AUTH_MODE", AuthModeNone, AuthModeNone, AuthModeDev)
	authRequired := authMode != AuthModeNone && parseBoolEnv("AUTH_REQUIRED")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "change_me"
	}
	if jwtSecret == "change_me" && env != "local" {
		log.Println("WARNING: JWT_SECRET is set to 'change_me' in non-local environment!")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "nutrition-ledger"
	}

	// JWT_TTL_MINUTES (default: 10080 = 7 days)
	jwtTTLMinutes := envInt("JWT_TTL_MINUTES", 10080)
	if jwtTTLMinutes <= 0 {
		jwtTTLMinutes = 10080
	}

	return &Config{
		Env:               env,
		Port:              port,
		LogLevel:          logLevel,
		DatabaseURL:       runtimeDB,
		DatabaseURLRaw:    dbURL,
		DatabaseURLPooled: dbPooled,
		DatabaseURLDirect: dbDirect,

		Store: StoreConfig{
			Mode:       storeMode,
			SQLitePath: sqlitePath,
			LedgerKey:  ledgerKey,
		},
		Ledger: LedgerConfig{
			TimezoneName:        tzName,
			Location:            loc,
			DailyCalorieGoal:    calorieGoal,
			CalendarDaysBack:    daysBack,
			CalendarDaysForward: daysForward,
			CalendarMaxSpan:     maxSpan,
			ExportMaxRangeDays:  exportMaxRange,
		},

		CORSAllowedOrigins:   corsOrigins,
		CORSAllowCredentials: corsAllowCreds,

		RateLimitRPS:   rateLimitRPS,
		RateLimitBurst: rateLimitBurst,

		Blob: BlobConfig{Mode: blobMode, S3: s3Cfg},

		AuthMode:      authMode,
		AuthRequired:  authRequired,
		JWTSecret:     jwtSecret,
		JWTIssuer:     jwtIssuer,
		JWTTTLMinutes: jwtTTLMinutes,

		RunMigrationsOnStartup: runMigrationsOnStartup,
	}
}

// DefaultSQLitePath — ~/.nutrition-ledger/ledger.db, или ./ledger.db без HOME
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "ledger.db"
	}
	return filepath.Join(home, ".nutrition-ledger", "ledger.db")
}

// parseCORSOrigins parses CORS_ALLOWED_ORIGINS env var.
// In local mode, defaults to localhost origins if empty.
func parseCORSOrigins(raw, env string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if env == "local" {
			return []string{"http://localhost:3000", "http://localhost:8081"}
		}
		return nil // prod: deny by default
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// parseChoice reads an enum env var; unknown values fall back to defaultVal.
func parseChoice(key, defaultVal string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	log.Printf("WARNING: unknown %s=%q, fallback to %s", key, v, defaultVal)
	return defaultVal
}

// envInt reads an int env var with a default value.
func envInt(key string, defaultVal int) int {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
