package influxv1

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/influxdata/influxdb1-client/models"
	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"influxkit/influx"
)

func responseWith(series ...models.Row) *client.Response {
	return &client.Response{Results: []client.Result{{Series: series}}}
}

func TestNormalizeResponse(t *testing.T) {
	resp := responseWith(models.Row{
		Name:    "power",
		Columns: []string{"time", "value"},
		Values: [][]interface{}{
			{"2023-01-01T00:00:00Z", json.Number("1.5")},
			{"2023-01-01T01:00:00Z", json.Number("2.5")},
		},
	})
	frame, err := NormalizeResponse(resp, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "value"}, frame.Columns())
	require.Equal(t, 2, frame.Len())
	assert.Equal(t, 1.5, frame.Value("value", 0))
	assert.Equal(t, 2.5, frame.Value("value", 1))
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), frame.Time(0))
}

func TestNormalizeResponseSeriesTags(t *testing.T) {
	resp := responseWith(
		models.Row{
			Name:    "power",
			Tags:    map[string]string{"site": "a"},
			Columns: []string{"time", "value"},
			Values:  [][]interface{}{{"2023-01-01T00:00:00Z", json.Number("1")}},
		},
		models.Row{
			Name:    "power",
			Tags:    map[string]string{"site": "b"},
			Columns: []string{"time", "value"},
			Values:  [][]interface{}{{"2023-01-01T00:00:00Z", json.Number("2")}},
		},
	)
	frame, err := NormalizeResponse(resp, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "value", "site"}, frame.Columns())
	require.Equal(t, 2, frame.Len())
	assert.Equal(t, "a", frame.Value("site", 0))
	assert.Equal(t, "b", frame.Value("site", 1))
}

func TestNormalizeResponseEpochTimestamps(t *testing.T) {
	resp := responseWith(models.Row{
		Columns: []string{"time", "value"},
		Values:  [][]interface{}{{json.Number("1672531200000000000"), json.Number("1")}},
	})
	frame, err := NormalizeResponse(resp, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), frame.Time(0))
}

func TestNormalizeResponseTimezone(t *testing.T) {
	zurich, err := time.LoadLocation("Europe/Zurich")
	require.NoError(t, err)
	resp := responseWith(models.Row{
		Columns: []string{"time", "value"},
		Values:  [][]interface{}{{"2023-07-01T12:00:00Z", json.Number("1")}},
	})
	frame, err := NormalizeResponse(resp, zurich)
	require.NoError(t, err)
	assert.Equal(t, 14, frame.Time(0).Hour())
	assert.Equal(t, time.UTC, frame.Time(0).Location())
}

func TestNormalizeResponseRaggedColumns(t *testing.T) {
	resp := responseWith(
		models.Row{
			Columns: []string{"time", "value"},
			Values:  [][]interface{}{{"2023-01-01T00:00:00Z", json.Number("1")}},
		},
		models.Row{
			Columns: []string{"time", "other"},
			Values:  [][]interface{}{{"2023-01-01T01:00:00Z", json.Number("2")}},
		},
	)
	frame, err := NormalizeResponse(resp, time.UTC)
	require.NoError(t, err)
	assert.True(t, influx.IsNaN(frame.Value("other", 0)))
	assert.True(t, influx.IsNaN(frame.Value("value", 1)))
	assert.Equal(t, 2.0, frame.Value("other", 1))
}

func TestNormalizeResponseEmpty(t *testing.T) {
	frame, err := NormalizeResponse(&client.Response{}, time.UTC)
	require.NoError(t, err)
	assert.True(t, frame.Empty())
}

func TestNormalizeResponseBadTimestamp(t *testing.T) {
	resp := responseWith(models.Row{
		Columns: []string{"time", "value"},
		Values:  [][]interface{}{{"not a time", json.Number("1")}},
	})
	_, err := NormalizeResponse(resp, time.UTC)
	var queryErr *influx.QueryError
	assert.ErrorAs(t, err, &queryErr)
}
