package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fdg312/nutrition-ledger/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Store: config.StoreConfig{LedgerKey: "nutrition_ledger"},
		Ledger: config.LedgerConfig{
			Location:            time.UTC,
			DailyCalorieGoal:    2000,
			CalendarDaysBack:    2,
			CalendarDaysForward: 1,
			ExportMaxRangeDays:  31,
		},
	}
}

// run executes one ledgerctl invocation against db and returns stdout.
func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	root, a := newRootCmd(testConfig())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db", db}, args...))
	err := execute(root, a)
	return out.String(), err
}

func TestFailingCommandClosesDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	root, a := newRootCmd(testConfig())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--db", db, "show", "not-a-date"})

	if err := execute(root, a); err == nil {
		t.Fatal("expected show with a bad date to fail")
	}
	if a.kv != nil {
		t.Fatal("database handle left open after a failed command")
	}
}

func TestCalendarRejectsHugeWindow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	out, err := run(t, db, "calendar", "--center", "05.03.2024", "--goal", "2000", "--back", "9223372036854775807", "--forward", "9223372036854775807")
	if err == nil || !strings.Contains(err.Error(), "date span too large") {
		t.Fatalf("expected span error, got err=%v out=%s", err, out)
	}
}

func TestAddShowRemove(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	out, err := run(t, db, "add", "--date", "05.03.2024", "--kcal", "200", "--protein", "10", "--size", "large", "--eaten", "half", "-q", "2", "Banana", "bread")
	if err != nil {
		t.Fatalf("add failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Banana bread") || !strings.Contains(out, "300 kcal") {
		t.Fatalf("unexpected add output:\n%s", out)
	}
	id := strings.TrimSpace(strings.TrimPrefix(strings.SplitN(out, "\n", 2)[0], "Added entry:"))

	if _, err := run(t, db, "add", "-d", "2024-03-05", "--kcal", "100", "--addon", "sauce=1", "Toast"); err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	out, err = run(t, db, "show", "05.03.2024")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "Total: 430 kcal") {
		t.Fatalf("expected 430 kcal total, got:\n%s", out)
	}

	out, err = run(t, db, "remove", "--date", "05.03.2024", id)
	if err != nil {
		t.Fatalf("remove failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "130 kcal (1 entries)") {
		t.Fatalf("unexpected remove output:\n%s", out)
	}

	if _, err := run(t, db, "remove", "--date", "05.03.2024", "no-such-id"); err == nil {
		t.Fatal("expected error for unknown id")
	}
}

func TestListAndExport(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	for _, d := range []string{"01.03.2024", "03.03.2024"} {
		if _, err := run(t, db, "add", "-d", d, "--kcal", "1950", "Meal"); err != nil {
			t.Fatalf("add %s failed: %v", d, err)
		}
	}

	out, err := run(t, db, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "03.03.2024") {
		t.Fatalf("expected newest day first, got:\n%s", out)
	}

	out, err = run(t, db, "export", "--from", "01.03.2024", "--to", "03.03.2024")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out, "2024-03-01,1950,") || !strings.Contains(out, "2024-03-02,0,") {
		t.Fatalf("unexpected CSV:\n%s", out)
	}
	if !strings.Contains(out, "normal") {
		t.Fatalf("expected normal status against a 2000 kcal goal:\n%s", out)
	}
}

func TestGoal(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	out, err := run(t, db, "goal")
	if err != nil || !strings.Contains(out, "2000 kcal") || !strings.Contains(out, "(default)") {
		t.Fatalf("unexpected default goal: %v\n%s", err, out)
	}

	if _, err := run(t, db, "goal", "--kcal", "1800"); err != nil {
		t.Fatalf("set goal failed: %v", err)
	}
	out, _ = run(t, db, "goal")
	if !strings.Contains(out, "1800 kcal") || strings.Contains(out, "(default)") {
		t.Fatalf("expected stored goal, got:\n%s", out)
	}

	if _, err := run(t, db, "goal", "--kcal", "100"); err == nil {
		t.Fatal("expected validation error for 100 kcal")
	}
}

func TestParseAddons(t *testing.T) {
	got, err := parseAddons(map[string]int{"Sauce": 2, "nuts": 1})
	if err != nil {
		t.Fatalf("parseAddons failed: %v", err)
	}
	if got.Sauce != 2 || got.Nuts != 1 {
		t.Fatalf("unexpected add-ons %+v", got)
	}

	if _, err := parseAddons(map[string]int{"ketchup": 1}); err == nil {
		t.Fatal("expected error for unknown add-on")
	}
	if _, err := parseAddons(map[string]int{"oil": -1}); err == nil {
		t.Fatal("expected error for negative count")
	}
}
