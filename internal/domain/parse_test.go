package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue_MissingTokens(t *testing.T) {
	for _, token := range []string{"", "--", "×", "///", "  ", " -- ", "\t///\n"} {
		assert.Nil(t, ParseValue(token), "token %q should be missing", token)
	}
}

func TestParseValue_Numbers(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected float64
	}{
		{"plain", "12.5", 12.5},
		{"integer", "7", 7},
		{"negative", "-3.4", -3.4},
		{"zero is measured", "0.0", 0},
		{"surrounding whitespace", " 25.1 ", 25.1},
		{"incomplete-period flag", "4.5]", 4.5},
		{"quasi-normal flag", "18.2)", 18.2},
		{"estimate flag", "30.0#", 30.0},
		{"stacked flags", "6.1)#", 6.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseValue(tt.text)
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, *got)
		})
	}
}

func TestParseValue_Malformed(t *testing.T) {
	for _, text := range []string{"abc", "1.2.3", "12,5", "N/A", "欠測"} {
		assert.Nil(t, ParseValue(text), "text %q should parse as missing", text)
	}
}

func TestParseCount(t *testing.T) {
	got := ParseCount("1250")
	require.NotNil(t, got)
	assert.Equal(t, int64(1250), *got)

	assert.Nil(t, ParseCount("--"))
	assert.Nil(t, ParseCount("12.5"), "fractional counts are malformed")
	assert.Nil(t, ParseCount("many"))
}

func TestValidate_Weather(t *testing.T) {
	valid := WeatherObservation{LocationCode: "44-47662", LocationName: "東京", Date: "2023-01-01"}
	require.NoError(t, valid.Validate())

	missingCode := valid
	missingCode.LocationCode = ""
	assert.ErrorContains(t, missingCode.Validate(), "location_code")

	missingDate := valid
	missingDate.Date = ""
	assert.ErrorContains(t, missingDate.Validate(), "date")
}

func TestValidate_Traffic(t *testing.T) {
	valid := TrafficObservation{
		LocationCode: "T-001",
		LocationName: "国道1号 品川",
		Prefecture:   "東京都",
		RoadName:     "国道1号",
		Date:         "2023-01-01",
		TimePeriod:   "7-8",
	}
	require.NoError(t, valid.Validate())

	missingBucket := valid
	missingBucket.TimePeriod = ""
	assert.ErrorContains(t, missingBucket.Validate(), "time_period")
}

func TestDateString(t *testing.T) {
	assert.Equal(t, "2023-01-05", DateString(2023, 1, 5))
	assert.Equal(t, "2023-12-31", DateString(2023, 12, 31))
}
