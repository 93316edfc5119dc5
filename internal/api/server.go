// Package api exposes the HTTP control surface: pipeline start/stop,
// live configuration, recording and replay control, and the persisted
// configuration entities. The pipeline controller handle is injected;
// there is no package-level shared instance.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/mocap-data/motion.stream/internal/db"
	"github.com/mocap-data/motion.stream/internal/pipeline"
)

// ANSI escape codes for the request log.
const (
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// Server handles control requests against a single pipeline controller.
type Server struct {
	pipe *pipeline.Controller
	db   *db.DB
}

// NewServer returns a control server for the given controller and
// entity store.
func NewServer(pipe *pipeline.Controller, store *db.DB) *Server {
	return &Server{pipe: pipe, db: store}
}

// Routes returns the full control mux wrapped in request logging.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/pipeline/start", s.handlePipelineStart)
	mux.HandleFunc("POST /api/pipeline/stop", s.handlePipelineStop)
	mux.HandleFunc("GET /api/pipeline/status", s.handlePipelineStatus)
	mux.HandleFunc("PUT /api/pipeline/config", s.handleConfigUpdate)
	mux.HandleFunc("GET /api/pipeline/config", s.handleConfigGet)

	mux.HandleFunc("POST /api/record/start", s.handleRecordStart)
	mux.HandleFunc("POST /api/record/stop", s.handleRecordStop)
	mux.HandleFunc("POST /api/replay/start", s.handleReplayStart)
	mux.HandleFunc("POST /api/replay/stop", s.handleReplayStop)

	mux.HandleFunc("GET /api/cameras", s.handleListCameras)
	mux.HandleFunc("POST /api/cameras", s.handleCreateCamera)
	mux.HandleFunc("DELETE /api/cameras/{id}", s.handleDeleteCamera)
	mux.HandleFunc("GET /api/targets", s.handleListTargets)
	mux.HandleFunc("POST /api/targets", s.handleCreateTarget)
	mux.HandleFunc("DELETE /api/targets/{id}", s.handleDeleteTarget)
	mux.HandleFunc("GET /api/models", s.handleListModels)
	mux.HandleFunc("POST /api/models", s.handleCreateModel)
	mux.HandleFunc("GET /api/channel-maps", s.handleListChannelMaps)
	mux.HandleFunc("PUT /api/channel-maps", s.handleUpsertChannelMap)
	mux.HandleFunc("GET /api/recordings", s.handleListRecordings)

	return LoggingMiddleware(mux)
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf("[%s] %s %s %vms",
			statusCodeColor(lrw.statusCode), r.Method, r.URL.Path,
			time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
