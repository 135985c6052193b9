package dbmigrate

import (
	"fmt"

	"github.com/fdg312/nutrition-ledger/internal/config"
)

// Selection — выбранный URL для DDL и откуда он взят
type Selection struct {
	URL     string
	Source  string
	Warning string
}

// SelectDatabaseURL picks the connection used for migrations.
// Priority: DATABASE_URL_DIRECT > DATABASE_URL > DATABASE_URL_POOLED (with warning).
// strict accepts DATABASE_URL_DIRECT only (startup migrations).
func SelectDatabaseURL(cfg *config.Config, strict bool) (Selection, error) {
	if cfg.DatabaseURLDirect != "" {
		return Selection{URL: cfg.DatabaseURLDirect, Source: "DATABASE_URL_DIRECT"}, nil
	}
	if strict {
		return Selection{}, fmt.Errorf("DATABASE_URL_DIRECT is required for DDL/migrations")
	}

	if cfg.DatabaseURLRaw != "" {
		return Selection{URL: cfg.DatabaseURLRaw, Source: "DATABASE_URL"}, nil
	}
	if cfg.DatabaseURLPooled != "" {
		return Selection{
			URL:     cfg.DatabaseURLPooled,
			Source:  "DATABASE_URL_POOLED",
			Warning: "using pooled connection for DDL is not recommended; set DATABASE_URL_DIRECT",
		}, nil
	}

	return Selection{}, fmt.Errorf("no database URL configured (set DATABASE_URL_DIRECT or DATABASE_URL)")
}
