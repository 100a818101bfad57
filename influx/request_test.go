package influx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeSeriesRequestValidate(t *testing.T) {
	base := TimeSeriesRequest{
		Measurement: "power",
		Fields:      []string{"value"},
		Start:       time.Unix(0, 0),
		End:         time.Unix(60, 0),
	}
	assert.NoError(t, base.Validate())

	missing := base
	missing.Measurement = ""
	assert.ErrorContains(t, missing.Validate(), "measurement")

	noFields := base
	noFields.Fields = []string{"", ""}
	assert.ErrorContains(t, noFields.Validate(), "field")

	noRange := base
	noRange.End = time.Time{}
	assert.ErrorContains(t, noRange.Validate(), "start and end")
}

func TestCleanFields(t *testing.T) {
	req := TimeSeriesRequest{Fields: []string{"a", "", "b"}}
	assert.Equal(t, []string{"a", "b"}, req.CleanFields())
}

func TestRequestBuilders(t *testing.T) {
	start := time.Unix(0, 0)
	end := time.Unix(3600, 0)
	req := TimeSeriesRequest{Measurement: "power", Fields: []string{"value"}}.
		WithRange(start, end).
		WithTags(map[string]string{"site": "a"}).
		WithAggregation(AggMax, "10m")
	assert.Equal(t, start, req.Start)
	assert.Equal(t, "a", req.Tags["site"])
	assert.Equal(t, AggMax, req.Aggregation)
	assert.Equal(t, "10m", req.Interval)
}

func TestLocation(t *testing.T) {
	loc, err := TimeSeriesRequest{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	loc, err = TimeSeriesRequest{Timezone: "Europe/Zurich"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Zurich", loc.String())

	_, err = TimeSeriesRequest{Timezone: "Not/AZone"}.Location()
	assert.ErrorContains(t, err, "unknown timezone")
}
