package api

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rowetechinc/QRevPy/internal/discharge"
	"github.com/rowetechinc/QRevPy/internal/measurement"
	"github.com/rowetechinc/QRevPy/internal/qrevdb"
	"github.com/rowetechinc/QRevPy/internal/units"
)

func setupTestServer(t *testing.T, unitSystem string) (*Server, *qrevdb.MeasurementStore) {
	t.Helper()
	db, err := qrevdb.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := qrevdb.NewMeasurementStore(db, nil)
	return NewServer(store, unitSystem), store
}

func storeTestMeasurement(t *testing.T, store *qrevdb.MeasurementStore, id string, total float64) {
	t.Helper()
	m := &measurement.Measurement{
		ID:      id,
		Station: "Test Station",
		Result: discharge.MeasurementResult{
			Transects: []discharge.TransectResult{
				{
					Filename:     "transect_000.json",
					Top:          total * 0.1,
					Middle:       total * 0.8,
					Bottom:       total * 0.1,
					Total:        total,
					NavReference: "BT",
					Valid:        true,
				},
			},
			MeanTotal:      total,
			ValidTransects: 1,
			TotalTransects: 1,
		},
	}
	if err := store.Insert(m); err != nil {
		t.Fatalf("failed to store test measurement: %v", err)
	}
}

func TestListMeasurements(t *testing.T) {
	server, store := setupTestServer(t, units.SI)
	storeTestMeasurement(t, store, "m-001", 10.0)
	storeTestMeasurement(t, store, "m-002", 12.5)

	req := httptest.NewRequest(http.MethodGet, "/api/measurements", nil)
	w := httptest.NewRecorder()
	server.ServeMux().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("listMeasurements returned status %d, want %d", w.Code, http.StatusOK)
	}

	var got []*qrevdb.StoredMeasurement
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("listMeasurements returned %d measurements, want 2", len(got))
	}
}

func TestListMeasurementsInvalidLimit(t *testing.T) {
	server, _ := setupTestServer(t, units.SI)

	req := httptest.NewRequest(http.MethodGet, "/api/measurements?limit=bogus", nil)
	w := httptest.NewRecorder()
	server.ServeMux().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid limit returned status %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestListMeasurementsMethodNotAllowed(t *testing.T) {
	server, _ := setupTestServer(t, units.SI)

	req := httptest.NewRequest(http.MethodPost, "/api/measurements", nil)
	w := httptest.NewRecorder()
	server.ServeMux().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST returned status %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestShowMeasurement(t *testing.T) {
	server, store := setupTestServer(t, units.SI)
	storeTestMeasurement(t, store, "m-010", 10.0)

	req := httptest.NewRequest(http.MethodGet, "/api/measurements/m-010", nil)
	w := httptest.NewRecorder()
	server.ServeMux().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("showMeasurement returned status %d, want %d", w.Code, http.StatusOK)
	}

	var got struct {
		MeasurementID string                     `json:"measurement_id"`
		MeanTotalCms  float64                    `json:"mean_total_cms"`
		Transects     []discharge.TransectResult `json:"transects"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.MeasurementID != "m-010" {
		t.Errorf("measurement_id = %q, want %q", got.MeasurementID, "m-010")
	}
	if got.MeanTotalCms != 10.0 {
		t.Errorf("mean_total_cms = %f, want 10.0", got.MeanTotalCms)
	}
	if len(got.Transects) != 1 {
		t.Fatalf("detail carried %d transects, want 1", len(got.Transects))
	}
	if got.Transects[0].Total != 10.0 {
		t.Errorf("transect total = %f, want 10.0", got.Transects[0].Total)
	}
}

func TestShowMeasurementNotFound(t *testing.T) {
	server, _ := setupTestServer(t, units.SI)

	req := httptest.NewRequest(http.MethodGet, "/api/measurements/no-such-id", nil)
	w := httptest.NewRecorder()
	server.ServeMux().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("missing ID returned status %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestShowMeasurementEnglishUnits(t *testing.T) {
	server, store := setupTestServer(t, units.English)
	storeTestMeasurement(t, store, "m-eng", 10.0)

	req := httptest.NewRequest(http.MethodGet, "/api/measurements/m-eng", nil)
	w := httptest.NewRecorder()
	server.ServeMux().ServeHTTP(w, req)

	var got struct {
		MeanTotalCms float64 `json:"mean_total_cms"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	// 10 m³/s is about 353.15 ft³/s
	if math.Abs(got.MeanTotalCms-353.1466) > 0.01 {
		t.Errorf("mean total in ft³/s = %f, want ~353.15", got.MeanTotalCms)
	}
}

func TestShowConfig(t *testing.T) {
	server, _ := setupTestServer(t, units.English)

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	w := httptest.NewRecorder()
	server.ServeMux().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("showConfig returned status %d, want %d", w.Code, http.StatusOK)
	}

	var got map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got["units"] != units.English {
		t.Errorf("units = %q, want %q", got["units"], units.English)
	}
}

func TestHealth(t *testing.T) {
	server, _ := setupTestServer(t, units.SI)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	server.ServeMux().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("health returned status %d, want %d", w.Code, http.StatusOK)
	}
}
