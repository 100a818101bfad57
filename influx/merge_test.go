package influx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves pre-built frames keyed by series name and records the
// order of requests.
type fakeReader struct {
	frames   map[string]*Frame
	requests []TimeSeriesRequest
}

func (r *fakeReader) GetTimeseries(_ context.Context, req TimeSeriesRequest) (*Frame, error) {
	r.requests = append(r.requests, req)
	if f, ok := r.frames[SeriesName(req.Measurement, req.Tags)]; ok {
		return f, nil
	}
	return NewFrame(), nil
}

func frameAt(t *testing.T, seconds []int64, column string, values []interface{}) *Frame {
	t.Helper()
	f := NewFrame()
	times := make([]time.Time, len(seconds))
	for i, s := range seconds {
		times[i] = time.Unix(s, 0).UTC()
	}
	require.NoError(t, f.SetTimes(times))
	require.NoError(t, f.AddColumn(column, values))
	return f
}

func TestSeriesName(t *testing.T) {
	assert.Equal(t, "power", SeriesName("power", nil))
	assert.Equal(t, "power_a=1_b=2", SeriesName("power", map[string]string{"b": "2", "a": "1"}))
	// insertion order of the tag map must not matter
	assert.Equal(t,
		SeriesName("power", map[string]string{"a": "1", "b": "2"}),
		SeriesName("power", map[string]string{"b": "2", "a": "1"}))
}

func TestGetMultipleTimeseriesOuterJoin(t *testing.T) {
	reader := &fakeReader{frames: map[string]*Frame{
		"power_site=a": frameAt(t, []int64{0, 60}, "value", []interface{}{1.0, 2.0}),
		"power_site=b": frameAt(t, []int64{60, 120}, "value", []interface{}{10.0, 20.0}),
	}}
	req := MultiSeriesRequest{
		Queries: []SeriesQuery{
			{Measurement: "power", Tags: map[string]string{"site": "a"}},
			{Measurement: "power", Tags: map[string]string{"site": "b"}},
		},
		Start: time.Unix(0, 0).UTC(),
		End:   time.Unix(300, 0).UTC(),
	}
	frame, err := GetMultipleTimeseries(context.Background(), reader, req)
	require.NoError(t, err)

	assert.Equal(t, []string{"time", "power_site=a_value", "power_site=b_value"}, frame.Columns())
	require.Equal(t, 3, frame.Len())
	// union of timestamps, ascending
	assert.Equal(t, int64(0), frame.Time(0).Unix())
	assert.Equal(t, int64(60), frame.Time(1).Unix())
	assert.Equal(t, int64(120), frame.Time(2).Unix())
	// gaps are NaN, not zero
	assert.Equal(t, 1.0, frame.Value("power_site=a_value", 0))
	assert.True(t, IsNaN(frame.Value("power_site=a_value", 2)))
	assert.True(t, IsNaN(frame.Value("power_site=b_value", 0)))
	assert.Equal(t, 20.0, frame.Value("power_site=b_value", 2))
}

func TestGetMultipleTimeseriesEmptySeriesPlaceholder(t *testing.T) {
	reader := &fakeReader{frames: map[string]*Frame{
		"power_site=a": frameAt(t, []int64{0}, "value", []interface{}{1.0}),
	}}
	req := MultiSeriesRequest{
		Queries: []SeriesQuery{
			{Measurement: "power", Tags: map[string]string{"site": "a"}},
			{Measurement: "power", Tags: map[string]string{"site": "gone"}},
		},
		Start: time.Unix(0, 0).UTC(),
		End:   time.Unix(300, 0).UTC(),
	}
	frame, err := GetMultipleTimeseries(context.Background(), reader, req)
	require.NoError(t, err)

	assert.Contains(t, frame.Columns(), "power_site=gone_value")
	require.Equal(t, 1, frame.Len())
	assert.True(t, IsNaN(frame.Value("power_site=gone_value", 0)))
	assert.Equal(t, 1.0, frame.Value("power_site=a_value", 0))
}

// seqReader serves one frame per call, in order, to exercise requests that
// resolve to the same series name.
type seqReader struct {
	frames []*Frame
	calls  int
}

func (r *seqReader) GetTimeseries(context.Context, TimeSeriesRequest) (*Frame, error) {
	f := r.frames[r.calls]
	r.calls++
	return f, nil
}

func TestGetMultipleTimeseriesDuplicateSeriesKeepsData(t *testing.T) {
	reader := &seqReader{frames: []*Frame{
		frameAt(t, []int64{0}, "value", []interface{}{1.0}),
		NewFrame(),
	}}
	spec := SeriesQuery{Measurement: "power", Tags: map[string]string{"site": "a"}}
	req := MultiSeriesRequest{
		Queries: []SeriesQuery{spec, spec},
		Start:   time.Unix(0, 0).UTC(),
		End:     time.Unix(300, 0).UTC(),
	}
	frame, err := GetMultipleTimeseries(context.Background(), reader, req)
	require.NoError(t, err)

	// the empty duplicate must not shadow the first series' data
	assert.Equal(t, 1.0, frame.Value("power_site=a_value", 0))
	assert.Contains(t, frame.Columns(), "power_site=a_2_value")
	assert.True(t, IsNaN(frame.Value("power_site=a_2_value", 0)))
}

func TestGetMultipleTimeseriesDuplicateSeriesBothPresent(t *testing.T) {
	reader := &seqReader{frames: []*Frame{
		frameAt(t, []int64{0}, "value", []interface{}{1.0}),
		frameAt(t, []int64{0}, "value", []interface{}{2.0}),
	}}
	spec := SeriesQuery{Measurement: "power", Tags: map[string]string{"site": "a"}}
	req := MultiSeriesRequest{
		Queries: []SeriesQuery{spec, spec},
		Start:   time.Unix(0, 0).UTC(),
		End:     time.Unix(300, 0).UTC(),
	}
	frame, err := GetMultipleTimeseries(context.Background(), reader, req)
	require.NoError(t, err)

	assert.Equal(t, []string{"time", "power_site=a_value", "power_site=a_2_value"}, frame.Columns())
	assert.Equal(t, 1.0, frame.Value("power_site=a_value", 0))
	assert.Equal(t, 2.0, frame.Value("power_site=a_2_value", 0))
}

func TestGetMultipleTimeseriesSequentialOrder(t *testing.T) {
	reader := &fakeReader{frames: map[string]*Frame{}}
	req := MultiSeriesRequest{
		Queries: []SeriesQuery{
			{Measurement: "a"},
			{Measurement: "b"},
			{Measurement: "c"},
		},
		Start: time.Unix(0, 0).UTC(),
		End:   time.Unix(60, 0).UTC(),
	}
	_, err := GetMultipleTimeseries(context.Background(), reader, req)
	require.NoError(t, err)
	require.Len(t, reader.requests, 3)
	assert.Equal(t, "a", reader.requests[0].Measurement)
	assert.Equal(t, "b", reader.requests[1].Measurement)
	assert.Equal(t, "c", reader.requests[2].Measurement)
}

func TestGetMultipleTimeseriesDefaultsAndInheritance(t *testing.T) {
	reader := &fakeReader{frames: map[string]*Frame{}}
	req := MultiSeriesRequest{
		Queries:     []SeriesQuery{{Measurement: "power"}},
		Start:       time.Unix(0, 0).UTC(),
		End:         time.Unix(60, 0).UTC(),
		Interval:    "5m",
		Aggregation: AggMean,
	}
	_, err := GetMultipleTimeseries(context.Background(), reader, req)
	require.NoError(t, err)
	got := reader.requests[0]
	assert.Equal(t, []string{"value"}, got.Fields)
	assert.Equal(t, "5m", got.Interval)
	assert.Equal(t, AggMean, got.Aggregation)
}

func TestGetMultipleTimeseriesValidation(t *testing.T) {
	reader := &fakeReader{frames: map[string]*Frame{}}

	_, err := GetMultipleTimeseries(context.Background(), reader, MultiSeriesRequest{
		Queries: []SeriesQuery{{}},
		Start:   time.Unix(0, 0).UTC(),
		End:     time.Unix(60, 0).UTC(),
	})
	assert.ErrorContains(t, err, "measurement")

	_, err = GetMultipleTimeseries(context.Background(), reader, MultiSeriesRequest{
		Queries: []SeriesQuery{{Measurement: "power"}},
	})
	assert.ErrorContains(t, err, "start and end")
}
