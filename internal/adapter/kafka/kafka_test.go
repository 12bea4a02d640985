package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-traffic-etl/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	rec := domain.WeatherObservation{
		LocationCode: "44-47662",
		LocationName: "東京",
		Date:         "2023-01-15",
		AvgTemp:      domain.Float(5.2),
		MaxTemp:      domain.Float(9.8),
	}

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("44-47662|2023-01-15"), msg.Key)
	assert.Contains(t, string(msg.Value), `"avg_temp":5.2`)
	assert.Contains(t, string(msg.Value), `"date":"2023-01-15"`)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "location_name", msg.Headers[0].Key)
	assert.Equal(t, []byte("東京"), msg.Headers[0].Value)
}

func TestSerializeToMessage_MissingValuesOmitted(t *testing.T) {
	rec := domain.WeatherObservation{
		LocationCode: "62-47772",
		LocationName: "大阪",
		Date:         "2023-02-01",
	}

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)

	assert.NotContains(t, string(msg.Value), "avg_temp")
	assert.NotContains(t, string(msg.Value), "precipitation")
}
