package influxv2

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"influxkit/influx"
)

func baseRequest() influx.TimeSeriesRequest {
	return influx.TimeSeriesRequest{
		Measurement: "power",
		Fields:      []string{"value"},
		Start:       time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuildQueryPlain(t *testing.T) {
	flux, err := BuildQuery("meteo", baseRequest())
	require.NoError(t, err)
	lines := strings.Split(flux, "\n")
	assert.Equal(t, `from(bucket: "meteo")`, lines[0])
	assert.Contains(t, flux, `range(start: 2023-01-01T00:00:00Z, stop: 2023-01-02T00:00:00Z)`)
	assert.Contains(t, flux, `r._measurement == "power"`)
	assert.Contains(t, flux, `r._field == "value"`)
	assert.Contains(t, flux, `yield(name: "result")`)
	assert.NotContains(t, flux, "aggregateWindow")
}

func TestBuildQueryMultipleFields(t *testing.T) {
	req := baseRequest()
	req.Fields = []string{"value", "quality"}
	flux, err := BuildQuery("meteo", req)
	require.NoError(t, err)
	assert.Contains(t, flux, `r._field == "value" or r._field == "quality"`)
}

func TestBuildQueryTagsSorted(t *testing.T) {
	req := baseRequest().WithTags(map[string]string{"zone": "z1", "site": "a"})
	flux, err := BuildQuery("meteo", req)
	require.NoError(t, err)
	siteIdx := strings.Index(flux, `r["site"] == "a"`)
	zoneIdx := strings.Index(flux, `r["zone"] == "z1"`)
	require.GreaterOrEqual(t, siteIdx, 0)
	require.GreaterOrEqual(t, zoneIdx, 0)
	assert.Less(t, siteIdx, zoneIdx)
}

func TestBuildQueryAggregated(t *testing.T) {
	req := baseRequest().WithAggregation(influx.AggMean, "1h")
	flux, err := BuildQuery("meteo", req)
	require.NoError(t, err)
	assert.Contains(t, flux, "aggregateWindow(every: 1h, fn: mean, createEmpty: false)")
}

func TestBuildQueryRequiresBucket(t *testing.T) {
	_, err := BuildQuery("", baseRequest())
	var validationErr *influx.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestBuildQueryValidates(t *testing.T) {
	req := baseRequest()
	req.Fields = nil
	_, err := BuildQuery("meteo", req)
	var validationErr *influx.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}
