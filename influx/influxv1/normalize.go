package influxv1

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"

	"influxkit/influx"
)

// NormalizeResponse reshapes an InfluxQL response into the canonical wide
// frame. Each series row becomes one record merging column values with that
// series' tag values, concatenated across series in response order. The time
// column is parsed as UTC, converted into loc and stripped of zone info.
func NormalizeResponse(resp *client.Response, loc *time.Location) (*influx.Frame, error) {
	var columns []string
	seen := map[string]bool{}
	var rows []map[string]interface{}
	var times []time.Time
	hasTime := false

	for _, result := range resp.Results {
		for _, series := range result.Series {
			tagCols := sortedTagKeys(series.Tags)
			for _, name := range series.Columns {
				if name == influx.TimeColumn {
					hasTime = true
					continue
				}
				if !seen[name] {
					seen[name] = true
					columns = append(columns, name)
				}
			}
			for _, name := range tagCols {
				if !seen[name] {
					seen[name] = true
					columns = append(columns, name)
				}
			}
			for _, values := range series.Values {
				row := make(map[string]interface{}, len(series.Columns)+len(tagCols))
				var ts time.Time
				for i, name := range series.Columns {
					if i >= len(values) {
						break
					}
					if name == influx.TimeColumn {
						t, err := parseTimestamp(values[i])
						if err != nil {
							return nil, err
						}
						ts = t
						continue
					}
					row[name] = normalizeValue(values[i])
				}
				for _, name := range tagCols {
					row[name] = series.Tags[name]
				}
				rows = append(rows, row)
				if hasTime {
					times = append(times, ts)
				}
			}
		}
	}

	if len(rows) == 0 {
		return influx.NewFrame(), nil
	}

	frame := influx.NewFrame()
	if hasTime {
		if err := frame.SetTimes(times); err != nil {
			return nil, err
		}
	}
	for _, name := range columns {
		col := make([]interface{}, len(rows))
		for i, row := range rows {
			if v, ok := row[name]; ok {
				col[i] = v
			} else {
				col[i] = math.NaN()
			}
		}
		if err := frame.AddColumn(name, col); err != nil {
			return nil, err
		}
	}
	frame.ConvertZone(loc)
	return frame, nil
}

// parseTimestamp accepts the two timestamp encodings the v1 driver produces:
// RFC3339 strings at default precision and epoch numbers when a precision
// is requested.
func parseTimestamp(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, &influx.QueryError{Message: "unparseable timestamp " + t}
		}
		return parsed.UTC(), nil
	case json.Number:
		ns, err := t.Int64()
		if err != nil {
			f, ferr := t.Float64()
			if ferr != nil {
				return time.Time{}, &influx.QueryError{Message: "unparseable timestamp " + t.String()}
			}
			ns = int64(f)
		}
		return time.Unix(0, ns).UTC(), nil
	case float64:
		return time.Unix(0, int64(t)).UTC(), nil
	default:
		return time.Time{}, &influx.QueryError{Message: "unsupported timestamp type"}
	}
}

func normalizeValue(v interface{}) interface{} {
	if n, ok := v.(json.Number); ok {
		if f, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return f
		}
		return n.String()
	}
	return v
}

func sortedTagKeys(tags map[string]string) []string {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
