package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/weightlab/wamm/internal/clock"
	"github.com/weightlab/wamm/internal/engine"
	"github.com/weightlab/wamm/internal/logger"
	"github.com/weightlab/wamm/internal/state"
	"github.com/weightlab/wamm/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

// EventSource serves recent events to the API. Both the in-memory ring and
// the database-backed store satisfy it.
type EventSource interface {
	Events(poolID types.PoolID, limit int) ([]types.Event, error)
}

// MemoryEventSource adapts a state.MemorySink to the EventSource interface.
type MemoryEventSource struct {
	Sink *state.MemorySink
}

func (s MemoryEventSource) Events(poolID types.PoolID, limit int) ([]types.Event, error) {
	return s.Sink.Recent(poolID, limit), nil
}

// DBEventSource reads events back from PostgreSQL.
type DBEventSource struct{}

func (DBEventSource) Events(poolID types.PoolID, limit int) ([]types.Event, error) {
	return state.ListEvents(poolID, limit)
}

// WebServer exposes a read-only HTTP view over the pool engine.
type WebServer struct {
	router *mux.Router
	port   string
	eng    *engine.Engine
	clk    clock.Clock
	events EventSource
	dbMode bool
}

// NewWebServer creates a new web server instance.
func NewWebServer(port string, eng *engine.Engine, clk clock.Clock, events EventSource, dbMode bool) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		port:   port,
		eng:    eng,
		clk:    clk,
		events: events,
		dbMode: dbMode,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/pools", ws.handleGetPools).Methods("GET")
	api.HandleFunc("/pools/{id}", ws.handleGetPool).Methods("GET")
	api.HandleFunc("/pools/{id}/positions/{addr}", ws.handleGetPosition).Methods("GET")
	api.HandleFunc("/events", ws.handleGetEvents).Methods("GET")
	api.HandleFunc("/emission", ws.handleGetEmission).Methods("GET")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	hasErrors := false
	dbHealthy := true
	if ws.dbMode {
		if err := state.TestDBConnection(); err != nil {
			dbHealthy = false
			hasErrors = true
		}
	}

	overallStatus := "OK"
	if hasErrors {
		overallStatus = "DEGRADED"
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
		},
		"component": map[string]interface{}{
			"name":    "wamm-weighted-pool-engine",
			"version": "1.0.0",
		},
		"engine_status": map[string]interface{}{
			"paused":           ws.eng.Paused(),
			"pool_count":       ws.eng.PoolCount(),
			"block_height":     ws.clk.Height(),
			"database_mode":    ws.dbMode,
			"database_healthy": dbHealthy,
		},
	}

	statusCode := http.StatusOK
	if hasErrors {
		statusCode = http.StatusServiceUnavailable
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetPools returns every pool
func (ws *WebServer) handleGetPools(w http.ResponseWriter, r *http.Request) {
	pools := ws.eng.ListPools()

	response := map[string]interface{}{
		"pools": pools,
		"count": len(pools),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetPool returns a specific pool by ID
func (ws *WebServer) handleGetPool(w http.ResponseWriter, r *http.Request) {
	poolID, ok := ws.parsePoolID(w, r)
	if !ok {
		return
	}

	pool, err := ws.eng.GetPool(poolID)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusNotFound, "Pool not found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, pool)
}

// handleGetPosition returns one holder's units and pending reward in a pool
func (ws *WebServer) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	poolID, ok := ws.parsePoolID(w, r)
	if !ok {
		return
	}
	addr := mux.Vars(r)["addr"]

	pending, err := ws.eng.PendingRewards(poolID, addr)
	if err != nil {
		if errors.Is(err, engine.ErrPoolNotFound) {
			ws.writeErrorResponse(w, http.StatusNotFound, "Pool not found")
			return
		}
		webLogger.Error().Err(err).Uint64("poolId", uint64(poolID)).Msg("Failed to project pending rewards")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve position")
		return
	}

	response := map[string]interface{}{
		"pool_id":        poolID,
		"owner":          addr,
		"shares":         ws.eng.UserShares(poolID, addr).String(),
		"pending_reward": pending.String(),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetEvents returns recent events, optionally filtered by pool
func (ws *WebServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 1000 {
			limit = parsedLimit
		}
	}

	var poolID types.PoolID
	if poolStr := r.URL.Query().Get("pool_id"); poolStr != "" {
		parsed, err := strconv.ParseUint(poolStr, 10, 64)
		if err != nil {
			ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid pool_id")
			return
		}
		poolID = types.PoolID(parsed)
	}

	events, err := ws.events.Events(poolID, limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent events")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve events")
		return
	}

	response := map[string]interface{}{
		"events": events,
		"count":  len(events),
		"limit":  limit,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetEmission returns the global emission configuration
func (ws *WebServer) handleGetEmission(w http.ResponseWriter, r *http.Request) {
	emission := ws.eng.Emission()

	response := map[string]interface{}{
		"reward_per_block":   emission.RewardPerBlock.String(),
		"total_alloc_points": emission.TotalAllocPoints,
		"block_height":       ws.clk.Height(),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

func (ws *WebServer) parsePoolID(w http.ResponseWriter, r *http.Request) (types.PoolID, bool) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid pool ID")
		return 0, false
	}
	return types.PoolID(id), true
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap the response writer to capture the status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
