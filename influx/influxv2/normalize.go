package influxv2

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/emirpasic/gods/sets/hashset"
	"github.com/influxdata/influxdb-client-go/v2/api/query"

	"influxkit/influx"
)

// NormalizeRecords pivots flat Flux records into a wide frame. Records are
// grouped by _time, each distinct _field becomes a column and the first value
// seen for a (time, field) pair wins. Rows come out sorted by time ascending
// and timestamps carry the wall clock of loc with the zone stripped.
func NormalizeRecords(records []*query.FluxRecord, loc *time.Location) (*influx.Frame, error) {
	fields := make([]string, 0, 4)
	fieldSeen := make(map[string]bool)
	rows := make(map[int64]map[string]interface{})
	stamps := make(map[int64]time.Time)
	order := make([]int64, 0, len(records))

	for _, rec := range records {
		ts := rec.Time()
		if ts.IsZero() {
			continue
		}
		field := rec.Field()
		if field == "" {
			continue
		}
		if !fieldSeen[field] {
			fieldSeen[field] = true
			fields = append(fields, field)
		}
		key := ts.UnixNano()
		row, ok := rows[key]
		if !ok {
			row = make(map[string]interface{}, 4)
			rows[key] = row
			stamps[key] = ts
			order = append(order, key)
		}
		if _, ok := row[field]; !ok {
			row[field] = normalizeFluxValue(rec.Value())
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	frame := influx.NewFrame()
	if len(order) == 0 {
		return frame, nil
	}

	times := make([]time.Time, len(order))
	for i, key := range order {
		times[i] = stamps[key]
	}
	if err := frame.SetTimes(times); err != nil {
		return nil, err
	}
	for _, field := range fields {
		values := make([]interface{}, len(order))
		for i, key := range order {
			if v, ok := rows[key][field]; ok {
				values[i] = v
			} else {
				values[i] = math.NaN()
			}
		}
		if err := frame.AddColumn(field, values); err != nil {
			return nil, err
		}
	}
	frame.ConvertZone(loc)
	return frame, nil
}

// NormalizeCompat reshapes an InfluxQL compatibility response into a frame,
// the same way the v1 path does: series rows are concatenated, series tags
// become constant columns and missing cells are filled with NaN.
func NormalizeCompat(resp *CompatResponse, loc *time.Location) (*influx.Frame, error) {
	if resp == nil {
		return influx.NewFrame(), nil
	}
	if msg := resp.Error(); msg != "" {
		return nil, &influx.QueryError{Message: msg}
	}

	columns := make([]string, 0, 8)
	columnSeen := make(map[string]bool)
	addColumn := func(name string) {
		if name == "" || name == influx.TimeColumn || columnSeen[name] {
			return
		}
		columnSeen[name] = true
		columns = append(columns, name)
	}

	type compatRow struct {
		ts     time.Time
		values map[string]interface{}
	}
	parsed := make([]compatRow, 0, 16)
	hasTime := false

	for _, result := range resp.Results {
		if result.Err != "" {
			return nil, &influx.QueryError{Message: result.Err}
		}
		for _, series := range result.Series {
			timeIdx := -1
			for i, col := range series.Columns {
				if col == influx.TimeColumn {
					timeIdx = i
					continue
				}
				addColumn(col)
			}
			tagKeys := sortedKeys(series.Tags)
			for _, k := range tagKeys {
				addColumn(k)
			}
			for _, raw := range series.Values {
				row := compatRow{values: make(map[string]interface{}, len(raw)+len(tagKeys))}
				for i, cell := range raw {
					if i >= len(series.Columns) {
						break
					}
					if i == timeIdx {
						ts, err := parseCompatTimestamp(cell)
						if err != nil {
							return nil, err
						}
						row.ts = ts
						hasTime = true
						continue
					}
					row.values[series.Columns[i]] = normalizeFluxValue(cell)
				}
				for _, k := range tagKeys {
					row.values[k] = series.Tags[k]
				}
				parsed = append(parsed, row)
			}
		}
	}

	frame := influx.NewFrame()
	if len(parsed) == 0 {
		return frame, nil
	}
	if hasTime {
		times := make([]time.Time, len(parsed))
		for i, row := range parsed {
			times[i] = row.ts
		}
		if err := frame.SetTimes(times); err != nil {
			return nil, err
		}
	}
	for _, col := range columns {
		values := make([]interface{}, len(parsed))
		for i, row := range parsed {
			if v, ok := row.values[col]; ok {
				values[i] = v
			} else {
				values[i] = math.NaN()
			}
		}
		if err := frame.AddColumn(col, values); err != nil {
			return nil, err
		}
	}
	if hasTime {
		frame.SortByTime()
		frame.ConvertZone(loc)
	}
	return frame, nil
}

func parseCompatTimestamp(cell interface{}) (time.Time, error) {
	switch v := cell.(type) {
	case string:
		ts, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, &influx.QueryError{Message: fmt.Sprintf("cannot parse timestamp %q", v)}
		}
		return ts, nil
	case json.Number:
		ns, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return time.Time{}, &influx.QueryError{Message: fmt.Sprintf("cannot parse timestamp %q", v.String())}
			}
			ns = int64(f)
		}
		return time.Unix(0, ns).UTC(), nil
	case float64:
		return time.Unix(0, int64(v)).UTC(), nil
	default:
		return time.Time{}, &influx.QueryError{Message: fmt.Sprintf("unexpected timestamp type %T", cell)}
	}
}

func normalizeFluxValue(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	case nil:
		return math.NaN()
	default:
		return v
	}
}

// valueStrings collects the distinct string values of the _value column from
// flat Flux records, sorted ascending. Used by the schema queries, which yield
// one value per record.
func valueStrings(records []*query.FluxRecord) []string {
	set := hashset.New()
	for _, rec := range records {
		if s, ok := rec.Value().(string); ok {
			set.Add(s)
		}
	}
	out := make([]string, 0, set.Size())
	for _, v := range set.Values() {
		out = append(out, v.(string))
	}
	sort.Strings(out)
	return out
}
