package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/fdg312/nutrition-ledger/internal/auth"
	"github.com/fdg312/nutrition-ledger/internal/blob"
	"github.com/fdg312/nutrition-ledger/internal/calendar"
	"github.com/fdg312/nutrition-ledger/internal/config"
	"github.com/fdg312/nutrition-ledger/internal/ledger"
	"github.com/fdg312/nutrition-ledger/internal/nutrition"
	"github.com/fdg312/nutrition-ledger/internal/reports"
	"github.com/fdg312/nutrition-ledger/internal/snapshot"
	"github.com/fdg312/nutrition-ledger/internal/storage"
	"github.com/fdg312/nutrition-ledger/internal/storage/backend"
)

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	kv             storage.KV
	storeMode      string
	blobStore      blob.Store
	blobMode       string
	authMiddleware *auth.Middleware
	httpServer     *http.Server
}

// New создаёт новый HTTP сервер: открывает хранилище и регистрирует маршруты
func New(cfg *config.Config) (*Server, error) {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
	}

	if err := s.initStorage(); err != nil {
		return nil, err
	}

	store, mode, err := blob.NewBlobStore(cfg.Blob, log.Default())
	if err != nil {
		s.kv.Close()
		return nil, err
	}
	s.blobStore = store
	s.blobMode = mode

	s.routes()
	return s, nil
}

// initStorage выбирает KV-бэкенд по STORE_MODE
func (s *Server) initStorage() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	kv, mode, err := backend.Open(ctx, s.config, log.Default())
	if err != nil {
		return fmt.Errorf("storage init failed: %w", err)
	}
	s.kv = kv
	s.storeMode = mode
	return nil
}

// routes регистрирует маршруты
func (s *Server) routes() {
	// Health check (no auth required)
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	// Auth API (no auth required)
	authService := auth.NewService(s.config)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)

	// POST /v1/auth/dev - local dev token
	s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)

	// Ledger API
	ledgerService := ledger.NewService(ledger.NewStore(s.kv, s.config.Store.LedgerKey), log.Default())
	ledgerHandler := ledger.NewHandlers(ledgerService)

	// GET /v1/ledger/days - all days, newest first
	s.mux.HandleFunc("GET /v1/ledger/days", ledgerHandler.HandleListDays)

	// GET /v1/ledger/days/{date} - one day (empty if nothing recorded)
	s.mux.HandleFunc("GET /v1/ledger/days/{date}", ledgerHandler.HandleGetDay)

	// POST /v1/ledger/days/{date}/entries - append entry
	s.mux.HandleFunc("POST /v1/ledger/days/{date}/entries", ledgerHandler.HandleAppendEntry)

	// DELETE /v1/ledger/days/{date}/entries/{id} - remove entry
	s.mux.HandleFunc("DELETE /v1/ledger/days/{date}/entries/{id}", ledgerHandler.HandleRemoveEntry)

	// GET /v1/ledger/days/{date}/entries/{id}/snapshot - full product snapshot
	snapshotHandler := snapshot.NewHandler(ledgerService)
	s.mux.HandleFunc("GET /v1/ledger/days/{date}/entries/{id}/snapshot", snapshotHandler.HandleGetSnapshot)

	// Nutrition targets API
	nutritionService := nutrition.NewService(s.kv, s.config.Ledger.DailyCalorieGoal)
	nutritionHandler := nutrition.NewHandler(nutritionService)

	// GET /v1/nutrition/targets - get targets (or defaults)
	s.mux.HandleFunc("GET /v1/nutrition/targets", nutritionHandler.HandleGetTargets)

	// PUT /v1/nutrition/targets - upsert targets
	s.mux.HandleFunc("PUT /v1/nutrition/targets", nutritionHandler.HandleUpsertTargets)

	// Calendar API
	projector := calendar.NewProjector(ledgerService, s.config.Ledger.Location)
	calendarHandler := calendar.NewHandler(projector, nutritionService, calendar.WindowConfig{
		DaysBack:    s.config.Ledger.CalendarDaysBack,
		DaysForward: s.config.Ledger.CalendarDaysForward,
		MaxSpan:     s.config.Ledger.CalendarMaxSpan,
	})

	// GET /v1/calendar - per-day status around a center date
	s.mux.HandleFunc("GET /v1/calendar", calendarHandler.HandleCalendar)

	// Reports API
	reportsService := reports.NewService(ledgerService, nutritionService, s.blobStore, reports.Config{
		MaxRangeDays: s.config.Ledger.ExportMaxRangeDays,
		PresignTTL:   s.config.Blob.S3.PresignTTLSeconds,
		Prefix:       s.config.Blob.S3.Prefix,
		Location:     s.config.Ledger.Location,
	})
	reportsHandler := reports.NewHandlers(reportsService)

	// GET /v1/reports/export - CSV/PDF download
	s.mux.HandleFunc("GET /v1/reports/export", reportsHandler.HandleExport)

	// POST /v1/reports/publish - upload to object storage, return presigned URL
	s.mux.HandleFunc("POST /v1/reports/publish", reportsHandler.HandlePublish)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"store":  s.storeMode,
		"blob":   s.blobMode,
	})
}

// Handler returns the router wrapped in the middleware chain
// (outermost first): CORS → Rate Limit → Auth → Router
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	handler = s.authMiddleware.Handler(handler)
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// Start запускает сервер и блокируется до Shutdown
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("INFO http: listening addr=http://localhost%s store=%s blob=%s auth=%s", addr, s.storeMode, s.blobMode, s.config.AuthMode)
	log.Printf("INFO http: health check http://localhost%s/healthz", addr)

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown останавливает приём запросов и дожидается активных
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Close закрывает storage и освобождает ресурсы
func (s *Server) Close() error {
	if s.kv != nil {
		return s.kv.Close()
	}
	return nil
}
