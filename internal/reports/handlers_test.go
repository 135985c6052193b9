package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/fdg312/nutrition-ledger/internal/blob"
	"github.com/fdg312/nutrition-ledger/internal/datekey"
	"github.com/fdg312/nutrition-ledger/internal/ledger"
	"github.com/fdg312/nutrition-ledger/internal/storage/memory"
)

type fixedGoal float64

func (g fixedGoal) CalorieGoal(ctx context.Context) (float64, error) {
	return float64(g), nil
}

type brokenGoal struct{}

func (brokenGoal) CalorieGoal(ctx context.Context) (float64, error) {
	return 0, errors.New("kv down")
}

func setupTestService(t *testing.T, store blob.Store) *Service {
	t.Helper()
	days := ledger.NewService(ledger.NewStore(memory.NewKV(), ""), log.New(io.Discard, "", 0))
	ctx := context.Background()

	add := func(date datekey.Key, kcal, protein float64) {
		if _, _, err := days.Append(ctx, date, ledger.AppendRequest{
			Product: ledger.ProductSnapshot{Name: "Meal", Calories: kcal, Protein: protein},
		}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	add("01.02.2026", 1200, 40)
	add("01.02.2026", 700, 20)
	add("03.02.2026", 2500, 90)

	return NewService(days, fixedGoal(2000), store, Config{MaxRangeDays: 31, PresignTTL: 600, Prefix: "nutrition-ledger", Location: time.UTC}).
		WithClock(func() time.Time { return testNow })
}

var testNow = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func TestRows(t *testing.T) {
	service := setupTestService(t, nil)

	rows, err := service.Rows(context.Background(), "01.02.2026", "04.02.2026")
	if err != nil {
		t.Fatalf("Rows failed: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}

	want := []struct {
		date    datekey.Key
		kcal    float64
		entries int
		status  string
	}{
		{"01.02.2026", 1900, 2, "normal"},
		{"02.02.2026", 0, 0, "empty"},
		{"03.02.2026", 2500, 1, "over"},
		{"04.02.2026", 0, 0, "empty"},
	}
	for i, w := range want {
		got := rows[i]
		if got.Date != w.date || got.Calories != w.kcal || got.EntryCount != w.entries || string(got.Status) != w.status {
			t.Errorf("row %d: got %+v, want %+v", i, got, w)
		}
		if got.Goal != 2000 {
			t.Errorf("row %d: expected goal 2000, got %v", i, got.Goal)
		}
	}
}

func TestRowsFutureDaysAreEmpty(t *testing.T) {
	service := setupTestService(t, nil)
	// 03.02.2026 holds 2500 kcal but is a future day for this clock
	service.WithClock(func() time.Time { return time.Date(2026, 2, 2, 23, 0, 0, 0, time.UTC) })

	rows, err := service.Rows(context.Background(), "01.02.2026", "03.02.2026")
	if err != nil {
		t.Fatalf("Rows failed: %v", err)
	}
	if rows[0].Calories != 1900 || rows[0].Status != "normal" {
		t.Errorf("past day must keep stored totals, got %+v", rows[0])
	}
	future := rows[2]
	if future.Calories != 0 || future.EntryCount != 0 || future.Status != "empty" {
		t.Errorf("future day must be empty, got %+v", future)
	}
}

func TestRowsRejectsHugeRangeBeforeExpanding(t *testing.T) {
	service := setupTestService(t, nil)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := service.Rows(context.Background(), "01.01.0001", "31.12.9999")
	runtime.ReadMemStats(&after)

	if !errors.Is(err, ErrRangeTooLarge) {
		t.Fatalf("expected ErrRangeTooLarge, got %v", err)
	}
	if grown := after.TotalAlloc - before.TotalAlloc; grown > 1<<20 {
		t.Fatalf("rejecting the range allocated %d bytes", grown)
	}
}

func TestRowsValidation(t *testing.T) {
	service := setupTestService(t, nil)
	ctx := context.Background()

	if _, err := service.Rows(ctx, "05.02.2026", "01.02.2026"); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}
	if _, err := service.Rows(ctx, "01.01.2026", "01.03.2026"); !errors.Is(err, ErrRangeTooLarge) {
		t.Errorf("expected ErrRangeTooLarge, got %v", err)
	}

	// 31 days inclusive is still allowed
	if _, err := service.Rows(ctx, "01.01.2026", "31.01.2026"); err != nil {
		t.Errorf("expected 31-day range to pass, got %v", err)
	}

	broken := NewService(ledger.NewService(ledger.NewStore(memory.NewKV(), ""), log.New(io.Discard, "", 0)), brokenGoal{}, nil, Config{})
	if _, err := broken.Rows(ctx, "01.01.2026", "02.01.2026"); !errors.Is(err, ErrGoalUnavailable) {
		t.Errorf("expected ErrGoalUnavailable, got %v", err)
	}
}

func TestHandleExport_CSV(t *testing.T) {
	handler := NewHandlers(setupTestService(t, nil))

	req := httptest.NewRequest("GET", "/v1/reports/export?from=2026-02-01&to=03.02.2026&format=csv", nil)
	w := httptest.NewRecorder()
	handler.HandleExport(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "nutrition_2026-02-01_2026-02-03.csv") {
		t.Errorf("unexpected Content-Disposition: %s", cd)
	}

	records, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(records))
	}
	if records[0][0] != "date" || records[0][1] != "calories_kcal" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[1][0] != "2026-02-01" || records[1][1] != "1900" || records[1][2] != "60" || records[1][8] != "2" || records[1][10] != "normal" {
		t.Errorf("unexpected first row: %v", records[1])
	}
	if records[3][10] != "over" {
		t.Errorf("expected last day over goal, got %v", records[3])
	}
}

func TestHandleExport_PDF(t *testing.T) {
	handler := NewHandlers(setupTestService(t, nil))

	req := httptest.NewRequest("GET", "/v1/reports/export?from=01.02.2026&to=07.02.2026&format=pdf", nil)
	w := httptest.NewRecorder()
	handler.HandleExport(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %s", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("expected PDF magic header")
	}
}

func TestHandleExport_Errors(t *testing.T) {
	handler := NewHandlers(setupTestService(t, nil))

	tests := []struct {
		name   string
		query  string
		status int
		code   string
	}{
		{"missing range", "?from=01.02.2026", http.StatusBadRequest, "missing_range"},
		{"bad format", "?from=01.02.2026&to=02.02.2026&format=xlsx", http.StatusBadRequest, "invalid_format"},
		{"bad date", "?from=32.02.2026&to=02.02.2026", http.StatusBadRequest, "invalid_date"},
		{"inverted range", "?from=10.02.2026&to=02.02.2026", http.StatusBadRequest, "invalid_range"},
		{"too long", "?from=01.01.2026&to=01.06.2026", http.StatusBadRequest, "range_too_large"},
		{"whole calendar", "?from=0001-01-01&to=9999-12-31", http.StatusBadRequest, "range_too_large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.HandleExport(w, httptest.NewRequest("GET", "/v1/reports/export"+tt.query, nil))

			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, w.Code)
			}
			var resp struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			json.NewDecoder(w.Body).Decode(&resp)
			if resp.Error.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, resp.Error.Code)
			}
		})
	}
}

func TestHandlePublish(t *testing.T) {
	store := blob.NewMemoryStore()
	handler := NewHandlers(setupTestService(t, store))

	body, _ := json.Marshal(ExportRequest{From: "01.02.2026", To: "03.02.2026", Format: FormatCSV})
	req := httptest.NewRequest("POST", "/v1/reports/publish", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandlePublish(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d. Body: %s", w.Code, w.Body.String())
	}

	var resp PublishResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.HasPrefix(resp.ObjectKey, "nutrition-ledger/exports/2026-02-01_2026-02-03_") || !strings.HasSuffix(resp.ObjectKey, ".csv") {
		t.Errorf("unexpected object key %s", resp.ObjectKey)
	}
	if resp.DownloadURL == "" || resp.ExpiresIn != 600 {
		t.Errorf("unexpected presign result %+v", resp)
	}

	data, err := store.GetObject(context.Background(), resp.ObjectKey)
	if err != nil {
		t.Fatalf("uploaded object missing: %v", err)
	}
	if int64(len(data)) != resp.SizeBytes {
		t.Errorf("size mismatch: stored %d, reported %d", len(data), resp.SizeBytes)
	}
	if ct := store.ContentType(resp.ObjectKey); ct != "text/csv" {
		t.Errorf("expected text/csv content type, got %s", ct)
	}
}

func TestHandlePublish_NoObjectStore(t *testing.T) {
	handler := NewHandlers(setupTestService(t, nil))

	body, _ := json.Marshal(ExportRequest{From: "01.02.2026", To: "03.02.2026"})
	w := httptest.NewRecorder()
	handler.HandlePublish(w, httptest.NewRequest("POST", "/v1/reports/publish", bytes.NewReader(body)))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
}

func TestCalculateSummary(t *testing.T) {
	service := setupTestService(t, nil)
	rows, _ := service.Rows(context.Background(), "01.02.2026", "04.02.2026")

	summary := calculateSummary(rows)
	if summary.LoggedDays != 2 {
		t.Fatalf("expected 2 logged days, got %d", summary.LoggedDays)
	}
	if summary.AvgCalories == nil || *summary.AvgCalories != 2200 {
		t.Fatalf("expected avg 2200 kcal, got %v", summary.AvgCalories)
	}
	if summary.ByStatus["empty"] != 2 || summary.ByStatus["over"] != 1 {
		t.Errorf("unexpected status counts %v", summary.ByStatus)
	}

	if s := calculateSummary(nil); s.AvgCalories != nil {
		t.Error("expected no average without rows")
	}
}
