// Command qrev computes river discharge from a moving-boat ADCP measurement
// archive, stores the per-transect breakdowns, and optionally serves the
// results over HTTP.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rowetechinc/QRevPy/internal/api"
	"github.com/rowetechinc/QRevPy/internal/archive"
	"github.com/rowetechinc/QRevPy/internal/config"
	"github.com/rowetechinc/QRevPy/internal/measurement"
	"github.com/rowetechinc/QRevPy/internal/qrevdb"
	"github.com/rowetechinc/QRevPy/internal/timeutil"
	"github.com/rowetechinc/QRevPy/internal/units"
)

var (
	archivePath   = flag.String("archive", "", "Path to a measurement archive JSON file")
	configPath    = flag.String("config", "", "Path to a processing settings JSON file (optional)")
	dbPath        = flag.String("db", "qrev.db", "Path to the measurement database")
	unitSystem    = flag.String("units", "", "Display unit system: SI or English (overrides config)")
	serve         = flag.Bool("serve", false, "Serve stored measurements over HTTP after processing")
	listen        = flag.String("listen", ":8080", "Listen address for the HTTP server")
	migrationsDir = flag.String("migrations", "", "Apply migrations from this directory before processing")
)

func main() {
	flag.Parse()

	settings := config.Empty()
	if *configPath != "" {
		var err error
		settings, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load settings: %v", err)
		}
	}
	if err := settings.Validate(); err != nil {
		log.Fatalf("invalid settings: %v", err)
	}

	displayUnits := settings.GetUnitSystem()
	if *unitSystem != "" {
		if !units.IsValid(*unitSystem) {
			log.Fatalf("invalid units %q (valid: %s)", *unitSystem, units.GetValidSystemsString())
		}
		displayUnits = *unitSystem
	}

	db, err := qrevdb.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if *migrationsDir != "" {
		if err := db.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("failed to apply migrations: %v", err)
		}
	}

	store := qrevdb.NewMeasurementStore(db, timeutil.RealClock{})

	if *archivePath != "" {
		if err := process(store, settings, *archivePath, displayUnits); err != nil {
			log.Fatalf("failed to process %s: %v", *archivePath, err)
		}
	}

	if *serve {
		runServer(store, displayUnits)
	} else if *archivePath == "" {
		log.Fatal("nothing to do: provide -archive, -serve, or both")
	}
}

// process computes one measurement, persists it, and prints a summary to
// stdout in display units.
func process(store *qrevdb.MeasurementStore, settings *config.Settings, path, displayUnits string) error {
	doc, err := archive.Load(path)
	if err != nil {
		return err
	}

	m, err := measurement.Compute(doc, settings)
	if err != nil {
		return err
	}

	if err := store.Insert(m); err != nil {
		return err
	}
	log.Printf("stored measurement %s (%d/%d valid transects)",
		m.ID, m.Result.ValidTransects, m.Result.TotalTransects)

	conv := units.For(displayUnits)
	summary := map[string]interface{}{
		"measurement_id":  m.ID,
		"station_name":    m.Station,
		"mean_total":      m.Result.MeanTotal * conv.Q,
		"discharge_units": conv.LabelQ,
		"cov":             m.Result.COV,
		"valid_transects": m.Result.ValidTransects,
		"total_transects": m.Result.TotalTransects,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// runServer blocks until SIGINT or SIGTERM, then shuts the server down
// gracefully.
func runServer(store *qrevdb.MeasurementStore, displayUnits string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := api.NewServer(store, displayUnits).ServeMux()
	server := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(mux),
	}

	go func() {
		log.Printf("listening on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}
