package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/couchcryptid/weather-traffic-etl/internal/domain"
)

// QueryWeatherRange returns weather rows with date in [start, end] ordered
// by date. An empty location matches all locations.
func (s *Store) QueryWeatherRange(ctx context.Context, start, end, location string) ([]domain.WeatherObservation, error) {
	query := `
		SELECT location_code, location_name, date, avg_temp, max_temp,
		       min_temp, precipitation, max_wind_speed, sunshine_hours, avg_humidity
		FROM weather
		WHERE date BETWEEN ? AND ?`
	args := []any{start, end}

	if location != "" {
		query += ` AND location_name = ?`
		args = append(args, location)
	}
	query += ` ORDER BY date`

	return s.queryWeather(ctx, query, args...)
}

// weatherConditionColumns are the measurement columns a conditional query
// may filter on. Column names are interpolated into SQL, so anything
// outside this set is rejected up front.
var weatherConditionColumns = map[string]struct{}{
	"avg_temp":       {},
	"max_temp":       {},
	"min_temp":       {},
	"precipitation":  {},
	"max_wind_speed": {},
	"sunshine_hours": {},
	"avg_humidity":   {},
}

var conditionOperators = map[string]struct{}{
	">=": {}, "<=": {}, "=": {}, ">": {}, "<": {},
}

// QueryWeatherWhere returns weather rows where column <operator> threshold,
// ordered by date. Unknown columns and operators are caller errors and are
// returned immediately rather than swallowed.
func (s *Store) QueryWeatherWhere(ctx context.Context, column, operator string, threshold float64) ([]domain.WeatherObservation, error) {
	if _, ok := weatherConditionColumns[column]; !ok {
		return nil, fmt.Errorf("invalid condition column %q", column)
	}
	if _, ok := conditionOperators[operator]; !ok {
		return nil, fmt.Errorf("invalid condition operator %q (use one of >=, <=, =, >, <)", operator)
	}

	query := fmt.Sprintf(`
		SELECT location_code, location_name, date, avg_temp, max_temp,
		       min_temp, precipitation, max_wind_speed, sunshine_hours, avg_humidity
		FROM weather
		WHERE %s %s ?
		ORDER BY date`, column, operator)

	return s.queryWeather(ctx, query, threshold)
}

func (s *Store) queryWeather(ctx context.Context, query string, args ...any) ([]domain.WeatherObservation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query weather: %w", err)
	}
	defer rows.Close()

	var records []domain.WeatherObservation
	for rows.Next() {
		var rec domain.WeatherObservation
		if err := rows.Scan(
			&rec.LocationCode, &rec.LocationName, &rec.Date,
			&rec.AvgTemp, &rec.MaxTemp, &rec.MinTemp, &rec.Precipitation,
			&rec.MaxWindSpeed, &rec.SunshineHours, &rec.AvgHumidity,
		); err != nil {
			return nil, fmt.Errorf("scan weather row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// QueryTrafficRange returns traffic rows with date in [start, end] ordered
// by date then time period.
func (s *Store) QueryTrafficRange(ctx context.Context, start, end string) ([]domain.TrafficObservation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT location_code, location_name, prefecture, road_name, date,
		       time_period, vehicle_count_large, vehicle_count_small, total_count, travel_speed
		FROM traffic
		WHERE date BETWEEN ? AND ?
		ORDER BY date, time_period`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query traffic: %w", err)
	}
	defer rows.Close()

	var records []domain.TrafficObservation
	for rows.Next() {
		var rec domain.TrafficObservation
		if err := rows.Scan(
			&rec.LocationCode, &rec.LocationName, &rec.Prefecture, &rec.RoadName,
			&rec.Date, &rec.TimePeriod, &rec.VehicleCountLarge, &rec.VehicleCountSmall,
			&rec.TotalCount, &rec.TravelSpeed,
		); err != nil {
			return nil, fmt.Errorf("scan traffic row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// AggregateTrafficDaily rolls every location's hour buckets up to one row
// per (date, location_name).
func (s *Store) AggregateTrafficDaily(ctx context.Context) ([]domain.DailyTrafficAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, location_name, prefecture,
		       SUM(total_count)  AS daily_total_count,
		       AVG(travel_speed) AS avg_travel_speed,
		       COUNT(*)          AS time_periods
		FROM traffic
		GROUP BY date, location_name
		ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("aggregate traffic: %w", err)
	}
	defer rows.Close()

	var aggs []domain.DailyTrafficAggregate
	for rows.Next() {
		var agg domain.DailyTrafficAggregate
		if err := rows.Scan(
			&agg.Date, &agg.LocationName, &agg.Prefecture,
			&agg.DailyTotalCount, &agg.AvgTravelSpeed, &agg.TimePeriods,
		); err != nil {
			return nil, fmt.Errorf("scan traffic aggregate: %w", err)
		}
		aggs = append(aggs, agg)
	}
	return aggs, rows.Err()
}

// JoinWeatherTraffic produces one reconciled row per weather day in
// [start, end], left-joined with that day's traffic aggregate for the same
// location. The aggregation runs as a subquery inside this single statement
// so the join and the rollup can never disagree, for this process or for
// any direct-SQL consumer of the file. Days without traffic buckets keep
// nil aggregates.
func (s *Store) JoinWeatherTraffic(ctx context.Context, start, end, location string) ([]domain.ReconciledDay, error) {
	query := `
		SELECT w.date, w.location_name, w.avg_temp, w.max_temp, w.min_temp,
		       w.precipitation, w.max_wind_speed, w.sunshine_hours, w.avg_humidity,
		       t.daily_total_count, t.avg_travel_speed
		FROM weather w
		LEFT JOIN (
			SELECT date, location_name,
			       SUM(total_count)  AS daily_total_count,
			       AVG(travel_speed) AS avg_travel_speed
			FROM traffic
			GROUP BY date, location_name
		) t ON t.date = w.date AND t.location_name = w.location_name
		WHERE w.date BETWEEN ? AND ?`
	args := []any{start, end}

	if location != "" {
		query += ` AND w.location_name = ?`
		args = append(args, location)
	}
	query += ` ORDER BY w.date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("join weather traffic: %w", err)
	}
	defer rows.Close()

	var days []domain.ReconciledDay
	for rows.Next() {
		var day domain.ReconciledDay
		if err := rows.Scan(
			&day.Date, &day.LocationName, &day.AvgTemp, &day.MaxTemp, &day.MinTemp,
			&day.Precipitation, &day.MaxWindSpeed, &day.SunshineHours, &day.AvgHumidity,
			&day.DailyTotalCount, &day.AvgTravelSpeed,
		); err != nil {
			return nil, fmt.Errorf("scan reconciled row: %w", err)
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

// Statistics reports row counts and date coverage for both tables.
func (s *Store) Statistics(ctx context.Context) (domain.Statistics, error) {
	var stats domain.Statistics

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM weather`).Scan(&stats.WeatherCount); err != nil {
		return stats, fmt.Errorf("count weather: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM traffic`).Scan(&stats.TrafficCount); err != nil {
		return stats, fmt.Errorf("count traffic: %w", err)
	}

	var err error
	if stats.WeatherDateRange, err = s.dateRange(ctx, "weather"); err != nil {
		return stats, err
	}
	if stats.TrafficDateRange, err = s.dateRange(ctx, "traffic"); err != nil {
		return stats, err
	}

	return stats, nil
}

func (s *Store) dateRange(ctx context.Context, table string) (domain.DateRange, error) {
	// table is one of the two fixed table names, never caller input.
	var minDate, maxDate sql.NullString
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT MIN(date), MAX(date) FROM %s`, table)).Scan(&minDate, &maxDate)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("date range for %s: %w", table, err)
	}
	return domain.DateRange{Min: minDate.String, Max: maxDate.String}, nil
}
