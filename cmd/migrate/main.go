package main

import (
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/nutrition-ledger/internal/config"
	"github.com/fdg312/nutrition-ledger/internal/dbmigrate"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: go run ./cmd/migrate [up|status|down]")
	}

	command := os.Args[1]
	switch command {
	case "up", "status", "down":
	default:
		log.Fatalf("unsupported command %q (allowed: up, status, down)", command)
	}

	cfg := config.Load()
	sel, err := dbmigrate.SelectDatabaseURL(cfg, false)
	if err != nil {
		log.Fatal(err)
	}

	if sel.Warning != "" {
		log.Printf("WARN migrate: %s", sel.Warning)
	}
	log.Printf("INFO migrate: command=%s using=%s", command, sel.Source)

	if err := dbmigrate.Run(command, sel.URL); err != nil {
		log.Fatal(err)
	}

	log.Printf("INFO migrate: %s completed successfully", command)
}
