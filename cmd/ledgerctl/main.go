package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/fdg312/nutrition-ledger/internal/config"
	"github.com/fdg312/nutrition-ledger/internal/datekey"
	"github.com/fdg312/nutrition-ledger/internal/ledger"
	"github.com/fdg312/nutrition-ledger/internal/nutrition"
	"github.com/fdg312/nutrition-ledger/internal/storage/sqlite"
)

func main() {
	root, a := newRootCmd(config.Load())
	if err := execute(root, a); err != nil {
		os.Exit(1)
	}
}

// execute runs root and releases the database whether or not the command
// failed; cobra skips post-run hooks after a RunE error.
func execute(root *cobra.Command, a *app) error {
	err := root.Execute()
	if cerr := a.close(); cerr != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: close database: %v\n", cerr)
		if err == nil {
			err = cerr
		}
	}
	return err
}

// app holds what every subcommand opens from --db.
type app struct {
	cfg     *config.Config
	dbPath  string
	verbose bool
	now     func() time.Time

	kv        *sqlite.KVStore
	ledger    *ledger.Service
	nutrition *nutrition.Service
}

func newRootCmd(cfg *config.Config) (*cobra.Command, *app) {
	a := &app{cfg: cfg, now: time.Now}

	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Daily nutrition ledger on a local SQLite file",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", defaultDBPath(cfg), "database path")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log storage diagnostics to stderr")

	rootCmd.AddCommand(addCmd(a))
	rootCmd.AddCommand(removeCmd(a))
	rootCmd.AddCommand(showCmd(a))
	rootCmd.AddCommand(listCmd(a))
	rootCmd.AddCommand(calendarCmd(a))
	rootCmd.AddCommand(exportCmd(a))
	rootCmd.AddCommand(goalCmd(a))

	return rootCmd, a
}

func defaultDBPath(cfg *config.Config) string {
	if cfg != nil && cfg.Store.SQLitePath != "" {
		return cfg.Store.SQLitePath
	}
	return config.DefaultSQLitePath()
}

func (a *app) open(stderr io.Writer) error {
	kv, err := sqlite.Open(a.dbPath)
	if err != nil {
		return err
	}
	a.kv = kv

	logOut := io.Discard
	if a.verbose {
		logOut = stderr
	}
	logger := log.New(logOut, "", log.LstdFlags)

	a.ledger = ledger.NewService(ledger.NewStore(kv, a.cfg.Store.LedgerKey), logger).WithClock(a.now)
	a.nutrition = nutrition.NewService(kv, a.cfg.Ledger.DailyCalorieGoal)
	return nil
}

func (a *app) close() error {
	if a.kv == nil {
		return nil
	}
	err := a.kv.Close()
	a.kv = nil
	return err
}

func (a *app) location() *time.Location {
	if a.cfg.Ledger.Location != nil {
		return a.cfg.Ledger.Location
	}
	return time.Local
}

// dateArg resolves "", "today", "yesterday" or an explicit date.
func (a *app) dateArg(raw string) (datekey.Key, error) {
	today := datekey.Today(a.now(), a.location())
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDays(-1)
	}
	k, err := datekey.ParseLoose(raw)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: use DD.MM.YYYY or YYYY-MM-DD", raw)
	}
	return k, nil
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
