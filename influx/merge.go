package influx

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// TimeseriesReader is the single-series fetch capability the merge engine
// builds on. Both client versions satisfy it.
type TimeseriesReader interface {
	GetTimeseries(ctx context.Context, req TimeSeriesRequest) (*Frame, error)
}

// SeriesName derives the deterministic column prefix for one series:
// measurement, then _key=value pairs sorted by tag key.
func SeriesName(measurement string, tags map[string]string) string {
	if len(tags) == 0 {
		return measurement
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+tags[k])
	}
	return measurement + "_" + strings.Join(parts, "_")
}

// GetMultipleTimeseries fetches each series in request order, strictly
// sequentially, and outer-joins the results on the time column. An empty
// result keeps its place in the output as one NaN column per requested
// field, leaving the row set untouched. Repeated series specs get a numeric
// suffix so no request can shadow another's columns.
func GetMultipleTimeseries(ctx context.Context, reader TimeseriesReader, req MultiSeriesRequest) (*Frame, error) {
	merged := NewFrame()
	_ = merged.SetTimes(nil)
	used := map[string]int{}
	for _, q := range req.Queries {
		resolved, err := req.resolve(q)
		if err != nil {
			return nil, err
		}
		frame, err := reader.GetTimeseries(ctx, resolved)
		if err != nil {
			return nil, err
		}
		name := SeriesName(resolved.Measurement, resolved.Tags)
		used[name]++
		if n := used[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		if frame.Empty() {
			for _, field := range resolved.CleanFields() {
				merged.AddNaNColumn(name + "_" + field)
			}
			continue
		}
		frame.PrefixColumns(name + "_")
		merged = mergeOnTime(merged, frame)
	}
	return merged, nil
}

// mergeOnTime outer-joins two frames on their time columns. The result rows
// are the union of all timestamps, ascending, with NaN filling gaps.
func mergeOnTime(left, right *Frame) *Frame {
	if left.Len() == 0 && len(left.columns) == 0 {
		right.SortByTime()
		return right
	}
	seen := make(map[int64]int)
	var union []int64
	for _, t := range left.times {
		key := t.UnixNano()
		if _, ok := seen[key]; !ok {
			seen[key] = 0
			union = append(union, key)
		}
	}
	for _, t := range right.times {
		key := t.UnixNano()
		if _, ok := seen[key]; !ok {
			seen[key] = 0
			union = append(union, key)
		}
	}
	sort.Slice(union, func(a, b int) bool { return union[a] < union[b] })
	for i, key := range union {
		seen[key] = i
	}

	out := NewFrame()
	times := make([]time.Time, len(union))
	for key, i := range seen {
		times[i] = time.Unix(0, key).UTC()
	}
	_ = out.SetTimes(times)
	appendFrame(out, left, seen)
	appendFrame(out, right, seen)
	return out
}

func appendFrame(out, in *Frame, rowIndex map[int64]int) {
	for _, name := range in.columns {
		col := make([]interface{}, out.Len())
		for i := range col {
			col[i] = math.NaN()
		}
		src := in.data[name]
		for i, t := range in.times {
			col[rowIndex[t.UnixNano()]] = src[i]
		}
		_ = out.AddColumn(name, col)
	}
}
