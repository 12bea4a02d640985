package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/weather-traffic-etl/internal/domain"
)

// ReadTrafficCSV parses a traffic census feed file into observations.
// Expected header columns: location_code, location_name, prefecture,
// road_name, date, time_period, vehicle_count_large, vehicle_count_small,
// total_count, travel_speed. Numeric cells go through the shared value
// parser, so missing markers stay nil rather than becoming zero. Records
// with missing required fields are kept here and rejected individually at
// upsert time.
func ReadTrafficCSV(path string) ([]domain.TrafficObservation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open traffic csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are handled per field below

	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read traffic csv: %w", err)
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("traffic csv %s has no data rows", path)
	}

	header := all[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]domain.TrafficObservation, 0, len(all)-1)
	for _, row := range all[1:] {
		records = append(records, domain.TrafficObservation{
			LocationCode:      field(row, "location_code"),
			LocationName:      field(row, "location_name"),
			Prefecture:        field(row, "prefecture"),
			RoadName:          field(row, "road_name"),
			Date:              field(row, "date"),
			TimePeriod:        field(row, "time_period"),
			VehicleCountLarge: domain.ParseCount(field(row, "vehicle_count_large")),
			VehicleCountSmall: domain.ParseCount(field(row, "vehicle_count_small")),
			TotalCount:        domain.ParseCount(field(row, "total_count")),
			TravelSpeed:       domain.ParseValue(field(row, "travel_speed")),
		})
	}

	return records, nil
}
