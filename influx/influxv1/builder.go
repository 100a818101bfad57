package influxv1

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"influxkit/influx"
)

// BuildQuery translates a version-agnostic request into InfluxQL text.
//
// The time range is inclusive-start, exclusive-end (time >= start AND
// time < end). Tag values are interpolated without quote escaping; callers
// must not pass untrusted tag values. GROUP BY is only emitted when both
// aggregation and interval are set.
func BuildQuery(req influx.TimeSeriesRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(fieldExprs(req.CleanFields(), req.Aggregation), ", "))
	sb.WriteString(fmt.Sprintf(" FROM %q WHERE ", req.Measurement))
	sb.WriteString(timeCondition(req.Start, req.End))
	if len(req.Tags) > 0 {
		sb.WriteString(" AND ")
		sb.WriteString(tagsCondition(req.Tags))
	}
	if req.Aggregation != "" && req.Interval != "" {
		sb.WriteString(fmt.Sprintf(" GROUP BY time(%s)", req.Interval))
	}
	tz := req.Timezone
	if tz == "" {
		tz = "UTC"
	}
	sb.WriteString(fmt.Sprintf(" TZ('%s')", tz))
	return sb.String(), nil
}

func fieldExprs(fields []string, aggregation string) []string {
	exprs := make([]string, len(fields))
	for i, f := range fields {
		if aggregation == "" {
			exprs[i] = fmt.Sprintf("%q", f)
		} else {
			exprs[i] = fmt.Sprintf("%s(%q)", aggregation, f)
		}
	}
	return exprs
}

func timeCondition(start, end time.Time) string {
	return fmt.Sprintf("time >= '%s' AND time < '%s'", formatTime(start), formatTime(end))
}

func tagsCondition(tags map[string]string) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	conds := make([]string, len(keys))
	for i, k := range keys {
		conds[i] = fmt.Sprintf("%q = '%s'", k, tags[k])
	}
	return strings.Join(conds, " AND ")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
