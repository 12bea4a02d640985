// Package sqlite persists weather and traffic observations in a single
// SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/weather-traffic-etl/internal/domain"
	"github.com/couchcryptid/weather-traffic-etl/internal/observability"
)

// Store owns the database handle and the two observation tables. It assumes
// a single writer: the ingestion pipeline is sequential by design, and
// concurrent writers would have to serialize externally to keep the
// replace-on-conflict upserts well defined.
type Store struct {
	db      *sql.DB
	metrics *observability.Metrics
	logger  *slog.Logger
}

// schemaStatements create the tables and their secondary indexes. Dates are
// stored as ISO-8601 text so BETWEEN and MIN/MAX order correctly.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS weather (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		location_code TEXT NOT NULL,
		location_name TEXT NOT NULL,
		date TEXT NOT NULL,
		avg_temp REAL,
		max_temp REAL,
		min_temp REAL,
		precipitation REAL,
		max_wind_speed REAL,
		sunshine_hours REAL,
		avg_humidity REAL,
		UNIQUE(location_code, date)
	)`,

	`CREATE TABLE IF NOT EXISTS traffic (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		location_code TEXT NOT NULL,
		location_name TEXT NOT NULL,
		prefecture TEXT NOT NULL,
		road_name TEXT NOT NULL,
		date TEXT NOT NULL,
		time_period TEXT NOT NULL,
		vehicle_count_large INTEGER,
		vehicle_count_small INTEGER,
		total_count INTEGER,
		travel_speed REAL,
		UNIQUE(location_code, date, time_period)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_weather_date ON weather(date)`,
	`CREATE INDEX IF NOT EXISTS idx_weather_location ON weather(location_name)`,
	`CREATE INDEX IF NOT EXISTS idx_traffic_date ON traffic(date)`,
	`CREATE INDEX IF NOT EXISTS idx_traffic_location ON traffic(location_name)`,
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists. The returned Store must be Closed by the caller; Close is
// safe on every exit path after a successful Open.
func Open(path string, metrics *observability.Metrics, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, metrics: metrics, logger: logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("database opened", "path", path)
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

const upsertWeatherSQL = `
	INSERT OR REPLACE INTO weather
	(location_code, location_name, date, avg_temp, max_temp,
	 min_temp, precipitation, max_wind_speed, sunshine_hours, avg_humidity)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const upsertTrafficSQL = `
	INSERT OR REPLACE INTO traffic
	(location_code, location_name, prefecture, road_name, date,
	 time_period, vehicle_count_large, vehicle_count_small, total_count, travel_speed)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// UpsertWeather inserts the records in one transaction, replacing any
// existing row with the same (location_code, date). Records failing
// validation are logged and skipped; the batch continues. Returns the
// number of records applied.
func (s *Store) UpsertWeather(ctx context.Context, records []domain.WeatherObservation) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	applied, err := s.upsertBatch(ctx, upsertWeatherSQL, "weather", len(records), func(i int) ([]any, error) {
		rec := records[i]
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		return []any{
			rec.LocationCode, rec.LocationName, rec.Date,
			rec.AvgTemp, rec.MaxTemp, rec.MinTemp, rec.Precipitation,
			rec.MaxWindSpeed, rec.SunshineHours, rec.AvgHumidity,
		}, nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("weather records upserted", "applied", applied, "received", len(records))
	return applied, nil
}

// UpsertTraffic is UpsertWeather for traffic hour-bucket rows, keyed on
// (location_code, date, time_period).
func (s *Store) UpsertTraffic(ctx context.Context, records []domain.TrafficObservation) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	applied, err := s.upsertBatch(ctx, upsertTrafficSQL, "traffic", len(records), func(i int) ([]any, error) {
		rec := records[i]
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		return []any{
			rec.LocationCode, rec.LocationName, rec.Prefecture, rec.RoadName,
			rec.Date, rec.TimePeriod, rec.VehicleCountLarge, rec.VehicleCountSmall,
			rec.TotalCount, rec.TravelSpeed,
		}, nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("traffic records upserted", "applied", applied, "received", len(records))
	return applied, nil
}

// upsertBatch runs one prepared replace-statement per record inside a
// transaction. argsFor returns the statement arguments for record i, or a
// validation error that skips just that record.
func (s *Store) upsertBatch(ctx context.Context, query, table string, n int, argsFor func(i int) ([]any, error)) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	applied := 0
	for i := 0; i < n; i++ {
		args, validationErr := argsFor(i)
		if validationErr != nil {
			s.logger.Warn("skipping invalid record", "table", table, "error", validationErr)
			s.metrics.RecordsSkipped.WithLabelValues(table).Inc()
			continue
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			s.logger.Error("insert failed, skipping record", "table", table, "error", err)
			s.metrics.RecordsSkipped.WithLabelValues(table).Inc()
			continue
		}
		applied++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}

	s.metrics.RecordsUpserted.WithLabelValues(table).Add(float64(applied))
	return applied, nil
}
