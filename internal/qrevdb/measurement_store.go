package qrevdb

import (
	"database/sql"
	"fmt"

	"github.com/rowetechinc/QRevPy/internal/discharge"
	"github.com/rowetechinc/QRevPy/internal/measurement"
	"github.com/rowetechinc/QRevPy/internal/timeutil"
)

// StoredMeasurement is one row of the measurements table.
type StoredMeasurement struct {
	MeasurementID  string  `json:"measurement_id"`
	StationName    string  `json:"station_name"`
	MeanTotalCms   float64 `json:"mean_total_cms"`
	COV            float64 `json:"cov"`
	ValidTransects int     `json:"valid_transects"`
	TotalTransects int     `json:"total_transects"`
	CreatedAt      string  `json:"created_at"`
}

// MeasurementStore handles database operations for measurements and their
// transect breakdowns.
type MeasurementStore struct {
	db    *DB
	clock timeutil.Clock
}

// NewMeasurementStore creates a new MeasurementStore.
func NewMeasurementStore(db *DB, clock timeutil.Clock) *MeasurementStore {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &MeasurementStore{db: db, clock: clock}
}

// Insert persists a computed measurement and all of its transect rows in
// one transaction.
func (s *MeasurementStore) Insert(m *measurement.Measurement) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO measurements (
			measurement_id, station_name, mean_total_cms, cov,
			valid_transects, total_transects, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Station, m.Result.MeanTotal, m.Result.COV,
		m.Result.ValidTransects, m.Result.TotalTransects,
		s.clock.Now().UTC().Format("2006-01-02T15:04:05Z"),
	)
	if err != nil {
		return fmt.Errorf("failed to insert measurement: %w", err)
	}

	for _, t := range m.Result.Transects {
		_, err = tx.Exec(`
			INSERT INTO transects (
				measurement_id, filename, start_time, end_time,
				top_cms, middle_cms, bottom_cms, left_cms, right_cms, total_cms,
				pct_invalid_cells, pct_invalid_ens, nav_reference, valid, failure
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, m.ID, t.Filename, t.StartTime, t.EndTime,
			t.Top, t.Middle, t.Bottom, t.Left, t.Right, t.Total,
			t.PercentInvalidCells, t.PercentInvalidEnsembles,
			t.NavReference, t.Valid, t.Failure,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transect %s: %w", t.Filename, err)
		}
	}
	return tx.Commit()
}

// List retrieves stored measurements, newest first.
func (s *MeasurementStore) List(limit int) ([]*StoredMeasurement, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT measurement_id, station_name, mean_total_cms, cov,
			valid_transects, total_transects, created_at
		FROM measurements
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", err)
	}
	defer rows.Close()

	var out []*StoredMeasurement
	for rows.Next() {
		var m StoredMeasurement
		if err := rows.Scan(&m.MeasurementID, &m.StationName, &m.MeanTotalCms, &m.COV,
			&m.ValidTransects, &m.TotalTransects, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// Get retrieves one measurement by ID, or nil when absent.
func (s *MeasurementStore) Get(id string) (*StoredMeasurement, error) {
	var m StoredMeasurement
	err := s.db.QueryRow(`
		SELECT measurement_id, station_name, mean_total_cms, cov,
			valid_transects, total_transects, created_at
		FROM measurements
		WHERE measurement_id = ?
	`, id).Scan(&m.MeasurementID, &m.StationName, &m.MeanTotalCms, &m.COV,
		&m.ValidTransects, &m.TotalTransects, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get measurement: %w", err)
	}
	return &m, nil
}

// Transects retrieves the stored breakdown rows for one measurement, in
// insertion order.
func (s *MeasurementStore) Transects(measurementID string) ([]discharge.TransectResult, error) {
	rows, err := s.db.Query(`
		SELECT filename, start_time, end_time,
			top_cms, middle_cms, bottom_cms, left_cms, right_cms, total_cms,
			pct_invalid_cells, pct_invalid_ens, nav_reference, valid, failure
		FROM transects
		WHERE measurement_id = ?
		ORDER BY transect_id
	`, measurementID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transects: %w", err)
	}
	defer rows.Close()

	var out []discharge.TransectResult
	for rows.Next() {
		var t discharge.TransectResult
		if err := rows.Scan(&t.Filename, &t.StartTime, &t.EndTime,
			&t.Top, &t.Middle, &t.Bottom, &t.Left, &t.Right, &t.Total,
			&t.PercentInvalidCells, &t.PercentInvalidEnsembles,
			&t.NavReference, &t.Valid, &t.Failure); err != nil {
			return nil, fmt.Errorf("failed to scan transect: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
