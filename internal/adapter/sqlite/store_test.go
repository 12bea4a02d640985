package sqlite

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-traffic-etl/internal/domain"
	"github.com/couchcryptid/weather-traffic-etl/internal/observability"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(path, observability.NewMetricsForTesting(), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func weatherFixture(date string, avgTemp float64) domain.WeatherObservation {
	return domain.WeatherObservation{
		LocationCode: "44-47662",
		LocationName: "東京",
		Date:         date,
		AvgTemp:      domain.Float(avgTemp),
	}
}

func trafficFixture(date, period string, total int64) domain.TrafficObservation {
	return domain.TrafficObservation{
		LocationCode: "T-001",
		LocationName: "東京",
		Prefecture:   "東京都",
		RoadName:     "国道1号",
		Date:         date,
		TimePeriod:   period,
		TotalCount:   domain.Int(total),
		TravelSpeed:  domain.Float(32.5),
	}
}

func TestOpen_CreatesSchema(t *testing.T) {
	store := newTestStore(t)

	stats, err := store.Statistics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.WeatherCount)
	assert.Zero(t, stats.TrafficCount)
	assert.Empty(t, stats.WeatherDateRange.Min)
}

func TestUpsertWeather_EmptyBatch(t *testing.T) {
	store := newTestStore(t)

	applied, err := store.UpsertWeather(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestUpsertWeather_ReinsertReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	applied, err := store.UpsertWeather(ctx, []domain.WeatherObservation{weatherFixture("2023-01-15", 5.0)})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	// Same identity, new values: the stored row is replaced, not duplicated.
	applied, err = store.UpsertWeather(ctx, []domain.WeatherObservation{weatherFixture("2023-01-15", 6.5)})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	records, err := store.QueryWeatherRange(ctx, "2023-01-01", "2023-01-31", "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].AvgTemp)
	assert.InDelta(t, 6.5, *records[0].AvgTemp, 1e-9)
}

func TestUpsertWeather_InvalidRecordSkipped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch := []domain.WeatherObservation{
		weatherFixture("2023-02-01", 4.0),
		{LocationCode: "44-47662", LocationName: "東京"}, // no date
		weatherFixture("2023-02-02", 4.5),
	}

	applied, err := store.UpsertWeather(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	records, err := store.QueryWeatherRange(ctx, "2023-02-01", "2023-02-28", "")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestUpsertWeather_NilMeasurementsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := domain.WeatherObservation{
		LocationCode: "62-47772",
		LocationName: "大阪",
		Date:         "2023-03-01",
		MaxTemp:      domain.Float(12.3),
	}
	_, err := store.UpsertWeather(ctx, []domain.WeatherObservation{rec})
	require.NoError(t, err)

	records, err := store.QueryWeatherRange(ctx, "2023-03-01", "2023-03-01", "")
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Nil(t, records[0].AvgTemp)
	assert.Nil(t, records[0].Precipitation)
	require.NotNil(t, records[0].MaxTemp)
	assert.InDelta(t, 12.3, *records[0].MaxTemp, 1e-9)
}

func TestUpsertTraffic_ReinsertReplacesPerBucket(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch := []domain.TrafficObservation{
		trafficFixture("2023-01-01", "7-8", 100),
		trafficFixture("2023-01-01", "8-9", 150),
	}
	applied, err := store.UpsertTraffic(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	// Only the matching bucket is replaced.
	applied, err = store.UpsertTraffic(ctx, []domain.TrafficObservation{trafficFixture("2023-01-01", "7-8", 120)})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	records, err := store.QueryTrafficRange(ctx, "2023-01-01", "2023-01-01")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records[0].TotalCount)
	assert.Equal(t, int64(120), *records[0].TotalCount)
	require.NotNil(t, records[1].TotalCount)
	assert.Equal(t, int64(150), *records[1].TotalCount)
}

func TestUpsertTraffic_InvalidRecordSkipped(t *testing.T) {
	store := newTestStore(t)

	batch := []domain.TrafficObservation{
		trafficFixture("2023-01-02", "7-8", 90),
		{LocationCode: "T-002", Date: "2023-01-02"}, // missing name, prefecture, road, period
	}
	applied, err := store.UpsertTraffic(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
}
