package influxv2

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"influxkit/influx"
)

// BuildQuery translates a version-agnostic request into a Flux pipeline.
//
// Field selection is one filter stage OR-combining the requested field
// names; tag filters are AND-chained as separate equality stages. The
// aggregateWindow stage is only emitted when both aggregation and interval
// are set.
func BuildQuery(bucket string, req influx.TimeSeriesRequest) (string, error) {
	if bucket == "" {
		return "", &influx.ValidationError{Message: "bucket is required for v2 queries"}
	}
	if err := req.Validate(); err != nil {
		return "", err
	}
	fields := req.CleanFields()
	fieldFilters := make([]string, len(fields))
	for i, f := range fields {
		fieldFilters[i] = fmt.Sprintf("r._field == %q", f)
	}
	lines := []string{
		fmt.Sprintf("from(bucket: %q)", bucket),
		fmt.Sprintf("  |> range(start: %s, stop: %s)", FormatTime(req.Start), FormatTime(req.End)),
		fmt.Sprintf("  |> filter(fn: (r) => r._measurement == %q)", req.Measurement),
		fmt.Sprintf("  |> filter(fn: (r) => %s)", strings.Join(fieldFilters, " or ")),
	}
	for _, k := range sortedKeys(req.Tags) {
		lines = append(lines, fmt.Sprintf("  |> filter(fn: (r) => r[%q] == %q)", k, req.Tags[k]))
	}
	if req.Aggregation != "" && req.Interval != "" {
		lines = append(lines, fmt.Sprintf("  |> aggregateWindow(every: %s, fn: %s, createEmpty: false)", req.Interval, req.Aggregation))
	}
	lines = append(lines, `  |> yield(name: "result")`)
	return strings.Join(lines, "\n"), nil
}

// FormatTime renders an RFC3339 timestamp with an explicit Z suffix for
// instants without a zone offset.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
