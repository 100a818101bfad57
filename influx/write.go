package influx

import (
	"fmt"
	"time"
)

// Point is one record to write: measurement, timestamp, indexed tags and
// field values.
type Point struct {
	Measurement string
	Time        time.Time
	Tags        map[string]string
	Fields      map[string]interface{}
}

// WriteDetails accounts for one write call.
type WriteDetails struct {
	Points    int `json:"points"`
	Batches   int `json:"batches"`
	BatchSize int `json:"batch_size"`
}

// WriteResult is produced once per write call and not persisted.
type WriteResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Details WriteDetails `json:"details"`
}

// ChunkPoints splits points into sequential batches of at most batchSize.
// A batchSize of zero means one single batch; negative sizes are rejected.
// Batches are sent one at a time by the caller and a failing batch aborts
// the rest, so batching is best effort, not a transaction.
func ChunkPoints(points []Point, batchSize int) ([][]Point, error) {
	if batchSize < 0 {
		return nil, &ValidationError{Message: "batch size must be greater than zero"}
	}
	if batchSize == 0 || len(points) == 0 {
		return [][]Point{points}, nil
	}
	chunks := make([][]Point, 0, (len(points)+batchSize-1)/batchSize)
	for i := 0; i < len(points); i += batchSize {
		end := i + batchSize
		if end > len(points) {
			end = len(points)
		}
		chunks = append(chunks, points[i:end])
	}
	return chunks, nil
}

// FramePoints converts a frame into write points. fieldColumns defaults to
// every column that is neither the time column nor a tag column.
func FramePoints(frame *Frame, measurement string, tagColumns, fieldColumns []string, timeColumn string) ([]Point, error) {
	if timeColumn == "" {
		timeColumn = TimeColumn
	}
	if !frame.HasColumn(timeColumn) {
		return nil, &ValidationError{Message: fmt.Sprintf("time column %q must exist in frame", timeColumn)}
	}
	isTag := map[string]bool{}
	for _, c := range tagColumns {
		isTag[c] = true
	}
	if len(fieldColumns) == 0 {
		for _, c := range frame.Columns() {
			if c == timeColumn || isTag[c] {
				continue
			}
			fieldColumns = append(fieldColumns, c)
		}
	}
	points := make([]Point, 0, frame.Len())
	for i := 0; i < frame.Len(); i++ {
		ts, err := rowTime(frame, timeColumn, i)
		if err != nil {
			return nil, err
		}
		fields := make(map[string]interface{}, len(fieldColumns))
		for _, c := range fieldColumns {
			if c == timeColumn {
				continue
			}
			fields[c] = frame.Value(c, i)
		}
		var tags map[string]string
		if len(tagColumns) > 0 {
			tags = make(map[string]string, len(tagColumns))
			for _, c := range tagColumns {
				tags[c] = fmt.Sprintf("%v", frame.Value(c, i))
			}
		}
		points = append(points, Point{
			Measurement: measurement,
			Time:        ts,
			Tags:        tags,
			Fields:      fields,
		})
	}
	return points, nil
}

func rowTime(frame *Frame, timeColumn string, i int) (time.Time, error) {
	if timeColumn == TimeColumn {
		return frame.Time(i), nil
	}
	ts, ok := frame.Value(timeColumn, i).(time.Time)
	if !ok {
		return time.Time{}, &ValidationError{
			Message: fmt.Sprintf("time column %q must hold time values", timeColumn),
		}
	}
	return ts, nil
}

// EnsureWritesAllowed is the first gate of every mutating operation. It runs
// before any backend interaction.
func EnsureWritesAllowed(allowWrite bool, op string) error {
	if !allowWrite {
		return &UnsafeOperationError{Op: op}
	}
	return nil
}

// AdminDisabled is the second gate: administrative mutations stay disabled
// even when the write gate is open.
func AdminDisabled(op string) error {
	return &UnsupportedOperationError{Op: op, Message: "admin operations are disabled"}
}
