package influx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePoints(n int) []Point {
	points := make([]Point, n)
	for i := range points {
		points[i] = Point{
			Time:   time.Unix(int64(i*60), 0),
			Fields: map[string]interface{}{"value": float64(i)},
		}
	}
	return points
}

func TestChunkPoints(t *testing.T) {
	chunks, err := ChunkPoints(makePoints(5), 2)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 2)
	assert.Len(t, chunks[2], 1)
}

func TestChunkPointsSingleBatch(t *testing.T) {
	chunks, err := ChunkPoints(makePoints(5), 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0], 5)
}

func TestChunkPointsNegative(t *testing.T) {
	_, err := ChunkPoints(makePoints(1), -1)
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestFramePoints(t *testing.T) {
	f := NewFrame()
	require.NoError(t, f.SetTimes([]time.Time{time.Unix(0, 0), time.Unix(60, 0)}))
	require.NoError(t, f.AddColumn("site", []interface{}{"a", "b"}))
	require.NoError(t, f.AddColumn("value", []interface{}{1.0, 2.0}))
	require.NoError(t, f.AddColumn("other", []interface{}{10.0, 20.0}))

	points, err := FramePoints(f, "power", []string{"site"}, nil, "")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "power", points[0].Measurement)
	assert.Equal(t, "a", points[0].Tags["site"])
	assert.Equal(t, 1.0, points[0].Fields["value"])
	assert.Equal(t, 10.0, points[0].Fields["other"])
	assert.NotContains(t, points[0].Fields, "site")
}

func TestFramePointsCustomTimeColumn(t *testing.T) {
	f := NewFrame()
	ts := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.AddColumn("recorded_at", []interface{}{ts}))
	require.NoError(t, f.AddColumn("value", []interface{}{1.0}))

	points, err := FramePoints(f, "power", nil, nil, "recorded_at")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, ts, points[0].Time)
	assert.NotContains(t, points[0].Fields, "recorded_at")
}

func TestFramePointsMissingTimeColumn(t *testing.T) {
	f := NewFrame()
	require.NoError(t, f.AddColumn("value", []interface{}{1.0}))
	_, err := FramePoints(f, "power", nil, nil, "")
	assert.ErrorContains(t, err, "time column")
}

func TestEnsureWritesAllowed(t *testing.T) {
	assert.NoError(t, EnsureWritesAllowed(true, "write_points"))

	err := EnsureWritesAllowed(false, "write_points")
	var unsafeErr *UnsafeOperationError
	require.ErrorAs(t, err, &unsafeErr)
	assert.Equal(t, "write_points", unsafeErr.Op)
	assert.Contains(t, err.Error(), "INFLUXDB_ALLOW_WRITE")
}

func TestAdminDisabled(t *testing.T) {
	err := AdminDisabled("create_user")
	var unsupportedErr *UnsupportedOperationError
	require.ErrorAs(t, err, &unsupportedErr)
	assert.Equal(t, "create_user", unsupportedErr.Op)
}
