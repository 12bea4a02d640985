// Command report prints what the store holds: row counts and date
// coverage, reconciled weather-plus-traffic rows for a date range, and
// optional conditional weather lookups.
//
// Usage:
//
//	go run ./cmd/report -db data/weather_traffic.db \
//	  -start 2023-01-01 -end 2023-01-31 -location 東京
//
//	go run ./cmd/report -db data/weather_traffic.db \
//	  -start 2023-01-01 -end 2023-12-31 -where max_temp -op ">=" -threshold 30
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/weather-traffic-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/weather-traffic-etl/internal/domain"
	"github.com/couchcryptid/weather-traffic-etl/internal/observability"
)

func main() {
	var (
		dbPath    = flag.String("db", "data/weather_traffic.db", "path to the SQLite database")
		start     = flag.String("start", "", "start date, YYYY-MM-DD")
		end       = flag.String("end", "", "end date inclusive, YYYY-MM-DD")
		location  = flag.String("location", "", "restrict to one location name")
		column    = flag.String("where", "", "weather column for a conditional query")
		operator  = flag.String("op", ">=", "comparison operator for -where")
		threshold = flag.Float64("threshold", 0, "threshold value for -where")
	)
	flag.Parse()

	if code := run(*dbPath, *start, *end, *location, *column, *operator, *threshold); code != 0 {
		os.Exit(code)
	}
}

func run(dbPath, start, end, location, column, operator string, threshold float64) int {
	logger := observability.NewLogger("warn", "text")
	metrics := observability.NewMetrics()

	store, err := sqlite.Open(dbPath, metrics, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		return 1
	}
	defer store.Close()

	ctx := context.Background()

	stats, err := store.Statistics(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read statistics: %v\n", err)
		return 1
	}
	printStats(stats)

	if column != "" {
		records, err := store.QueryWeatherWhere(ctx, column, operator, threshold)
		if err != nil {
			fmt.Fprintf(os.Stderr, "conditional query: %v\n", err)
			return 1
		}
		printWeather(fmt.Sprintf("Weather where %s %s %g", column, operator, threshold), records)
	}

	if start != "" && end != "" {
		days, err := store.JoinWeatherTraffic(ctx, start, end, location)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reconcile: %v\n", err)
			return 1
		}
		printReconciled(start, end, days)
	}

	return 0
}

func printStats(stats domain.Statistics) {
	fmt.Println("=== Store Statistics ===")
	fmt.Printf("  weather: %d rows", stats.WeatherCount)
	if stats.WeatherDateRange.Min != "" {
		fmt.Printf("  (%s .. %s)", stats.WeatherDateRange.Min, stats.WeatherDateRange.Max)
	}
	fmt.Println()
	fmt.Printf("  traffic: %d rows", stats.TrafficCount)
	if stats.TrafficDateRange.Min != "" {
		fmt.Printf("  (%s .. %s)", stats.TrafficDateRange.Min, stats.TrafficDateRange.Max)
	}
	fmt.Println()
}

func printWeather(title string, records []domain.WeatherObservation) {
	fmt.Printf("\n=== %s (%d rows) ===\n", title, len(records))
	for _, rec := range records {
		fmt.Printf("  %s  %-8s avg=%s max=%s min=%s precip=%s\n",
			rec.Date, rec.LocationName,
			num(rec.AvgTemp), num(rec.MaxTemp), num(rec.MinTemp), num(rec.Precipitation))
	}
}

func printReconciled(start, end string, days []domain.ReconciledDay) {
	fmt.Printf("\n=== Reconciled %s .. %s (%d rows) ===\n", start, end, len(days))
	for _, day := range days {
		fmt.Printf("  %s  %-8s avg_temp=%s precip=%s traffic_total=%s avg_speed=%s\n",
			day.Date, day.LocationName,
			num(day.AvgTemp), num(day.Precipitation),
			count(day.DailyTotalCount), num(day.AvgTravelSpeed))
	}
}

func num(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

func count(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
