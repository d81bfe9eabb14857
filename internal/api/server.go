package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rowetechinc/QRevPy/internal/discharge"
	"github.com/rowetechinc/QRevPy/internal/qrevdb"
	"github.com/rowetechinc/QRevPy/internal/units"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server exposes stored measurements over a read-only JSON API. Discharge
// values are stored in m³/s and converted to the display unit system on the
// way out.
type Server struct {
	store *qrevdb.MeasurementStore
	conv  units.Conversion
}

func NewServer(store *qrevdb.MeasurementStore, unitSystem string) *Server {
	return &Server{
		store: store,
		conv:  units.For(unitSystem),
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/measurements", s.listMeasurements)
	mux.HandleFunc("/api/measurements/", s.showMeasurement)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/healthz", s.health)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// convertMeasurement applies display-unit conversion to the discharge mean.
// COV is dimensionless and passes through untouched.
func (s *Server) convertMeasurement(m *qrevdb.StoredMeasurement) *qrevdb.StoredMeasurement {
	out := *m
	out.MeanTotalCms *= s.conv.Q
	return &out
}

func (s *Server) convertTransect(t discharge.TransectResult) discharge.TransectResult {
	t.Top *= s.conv.Q
	t.Middle *= s.conv.Q
	t.Bottom *= s.conv.Q
	t.Left *= s.conv.Q
	t.Right *= s.conv.Q
	t.Total *= s.conv.Q
	return t
}

func (s *Server) listMeasurements(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	measurements, err := s.store.List(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve measurements: %v", err))
		return
	}

	out := make([]*qrevdb.StoredMeasurement, len(measurements))
	for i, m := range measurements {
		out[i] = s.convertMeasurement(m)
	}

	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write measurements")
		return
	}
}

// measurementDetail is the measurement row joined with its transect
// breakdowns for the detail endpoint.
type measurementDetail struct {
	*qrevdb.StoredMeasurement
	Transects []discharge.TransectResult `json:"transects"`
}

func (s *Server) showMeasurement(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/measurements/")
	if id == "" || strings.Contains(id, "/") {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid measurement ID")
		return
	}

	m, err := s.store.Get(id)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve measurement: %v", err))
		return
	}
	if m == nil {
		s.writeJSONError(w, http.StatusNotFound, "Measurement not found")
		return
	}

	transects, err := s.store.Transects(id)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve transects: %v", err))
		return
	}
	for i := range transects {
		transects[i] = s.convertTransect(transects[i])
	}

	detail := measurementDetail{
		StoredMeasurement: s.convertMeasurement(m),
		Transects:         transects,
	}
	if err := json.NewEncoder(w).Encode(detail); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write measurement")
		return
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	config := map[string]interface{}{
		"units":           s.conv.ID,
		"discharge_label": s.conv.LabelQ,
	}
	if err := json.NewEncoder(w).Encode(config); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
		return
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
