package domain

import (
	"errors"
	"fmt"
)

// WeatherObservation is one station-day of weather measurements.
// Identity is (LocationCode, Date); a re-insert under the same identity
// replaces the stored row. Nil measurement fields mean "not measured",
// which is distinct from zero.
type WeatherObservation struct {
	LocationCode  string   `json:"location_code"` // "<prec_no>-<block_no>"
	LocationName  string   `json:"location_name"`
	Date          string   `json:"date"` // YYYY-MM-DD
	AvgTemp       *float64 `json:"avg_temp,omitempty"`
	MaxTemp       *float64 `json:"max_temp,omitempty"`
	MinTemp       *float64 `json:"min_temp,omitempty"`
	Precipitation *float64 `json:"precipitation,omitempty"`
	MaxWindSpeed  *float64 `json:"max_wind_speed,omitempty"`
	SunshineHours *float64 `json:"sunshine_hours,omitempty"`
	AvgHumidity   *float64 `json:"avg_humidity,omitempty"`
}

// Validate reports the first missing required field, or nil.
func (o WeatherObservation) Validate() error {
	switch {
	case o.LocationCode == "":
		return errors.New("weather observation missing location_code")
	case o.LocationName == "":
		return errors.New("weather observation missing location_name")
	case o.Date == "":
		return errors.New("weather observation missing date")
	}
	return nil
}

// TrafficObservation is one hour-bucket of traffic counts at a survey point.
// Identity is (LocationCode, Date, TimePeriod): a day has multiple rows,
// one per time bucket.
type TrafficObservation struct {
	LocationCode      string   `json:"location_code"`
	LocationName      string   `json:"location_name"`
	Prefecture        string   `json:"prefecture"`
	RoadName          string   `json:"road_name"`
	Date              string   `json:"date"`        // YYYY-MM-DD
	TimePeriod        string   `json:"time_period"` // hour bucket label, e.g. "7-8"
	VehicleCountLarge *int64   `json:"vehicle_count_large,omitempty"`
	VehicleCountSmall *int64   `json:"vehicle_count_small,omitempty"`
	TotalCount        *int64   `json:"total_count,omitempty"`
	TravelSpeed       *float64 `json:"travel_speed,omitempty"`
}

// Validate reports the first missing required field, or nil.
func (o TrafficObservation) Validate() error {
	switch {
	case o.LocationCode == "":
		return errors.New("traffic observation missing location_code")
	case o.LocationName == "":
		return errors.New("traffic observation missing location_name")
	case o.Prefecture == "":
		return errors.New("traffic observation missing prefecture")
	case o.RoadName == "":
		return errors.New("traffic observation missing road_name")
	case o.Date == "":
		return errors.New("traffic observation missing date")
	case o.TimePeriod == "":
		return errors.New("traffic observation missing time_period")
	}
	return nil
}

// ReconciledDay is a weather day left-joined with that day's traffic
// aggregate. DailyTotalCount and AvgTravelSpeed are nil when the day has no
// traffic buckets at all; a day without data is not a day of zero traffic.
type ReconciledDay struct {
	Date            string   `json:"date"`
	LocationName    string   `json:"location_name"`
	AvgTemp         *float64 `json:"avg_temp,omitempty"`
	MaxTemp         *float64 `json:"max_temp,omitempty"`
	MinTemp         *float64 `json:"min_temp,omitempty"`
	Precipitation   *float64 `json:"precipitation,omitempty"`
	MaxWindSpeed    *float64 `json:"max_wind_speed,omitempty"`
	SunshineHours   *float64 `json:"sunshine_hours,omitempty"`
	AvgHumidity     *float64 `json:"avg_humidity,omitempty"`
	DailyTotalCount *int64   `json:"daily_total_count,omitempty"`
	AvgTravelSpeed  *float64 `json:"avg_travel_speed,omitempty"`
}

// DailyTrafficAggregate is the per-day rollup of one location's hour buckets.
type DailyTrafficAggregate struct {
	Date            string   `json:"date"`
	LocationName    string   `json:"location_name"`
	Prefecture      string   `json:"prefecture"`
	DailyTotalCount *int64   `json:"daily_total_count,omitempty"`
	AvgTravelSpeed  *float64 `json:"avg_travel_speed,omitempty"`
	TimePeriods     int      `json:"time_periods"`
}

// DateRange holds the inclusive min/max dates present in a table.
// Both fields are empty when the table has no rows.
type DateRange struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// Statistics summarizes store contents.
type Statistics struct {
	WeatherCount     int64     `json:"weather_records"`
	TrafficCount     int64     `json:"traffic_records"`
	WeatherDateRange DateRange `json:"weather_date_range"`
	TrafficDateRange DateRange `json:"traffic_date_range"`
}

// Float returns a pointer to v. Convenience for building observations.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int64) *int64 { return &v }

// DateString formats a calendar day as YYYY-MM-DD.
func DateString(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}
