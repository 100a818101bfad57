package influx

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// TimeColumn is the name of the leading timestamp column of every canonical
// result.
const TimeColumn = "time"

// Frame is the canonical wide result shape shared by both client versions:
// a time column first, one value column per field or per named series. Time
// values are zone-naive wall-clock instants in the requested timezone,
// encoded with the UTC location. Gaps and empty-series placeholders are NaN.
type Frame struct {
	columns []string
	times   []time.Time
	hasTime bool
	data    map[string][]interface{}
}

func NewFrame() *Frame {
	return &Frame{data: map[string][]interface{}{}}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f.hasTime {
		return len(f.times)
	}
	if len(f.columns) == 0 {
		return 0
	}
	return len(f.data[f.columns[0]])
}

func (f *Frame) Empty() bool {
	return f.Len() == 0
}

// Columns returns the column names in order, time first when present.
func (f *Frame) Columns() []string {
	if !f.hasTime {
		cols := make([]string, len(f.columns))
		copy(cols, f.columns)
		return cols
	}
	cols := make([]string, 0, len(f.columns)+1)
	cols = append(cols, TimeColumn)
	cols = append(cols, f.columns...)
	return cols
}

func (f *Frame) HasColumn(name string) bool {
	if name == TimeColumn {
		return f.hasTime
	}
	_, ok := f.data[name]
	return ok
}

// SetTimes sets the time column. Row count for value columns added
// afterwards must match.
func (f *Frame) SetTimes(times []time.Time) error {
	if len(f.columns) > 0 && len(times) != f.Len() {
		return fmt.Errorf("time column length %d does not match row count %d", len(times), f.Len())
	}
	f.times = times
	f.hasTime = true
	return nil
}

func (f *Frame) Times() []time.Time {
	return f.times
}

func (f *Frame) Time(i int) time.Time {
	return f.times[i]
}

// AddColumn appends a value column; its length must match the row count of
// any existing column.
func (f *Frame) AddColumn(name string, values []interface{}) error {
	if name == TimeColumn {
		return fmt.Errorf("column name %q is reserved", TimeColumn)
	}
	if _, ok := f.data[name]; ok {
		return fmt.Errorf("duplicate column %q", name)
	}
	if (f.hasTime || len(f.columns) > 0) && len(values) != f.Len() {
		return fmt.Errorf("column %q length %d does not match row count %d", name, len(values), f.Len())
	}
	f.columns = append(f.columns, name)
	f.data[name] = values
	return nil
}

// AddNaNColumn appends a placeholder column filled with NaN for every
// existing row. An existing column under the same name is left untouched;
// a placeholder never replaces data.
func (f *Frame) AddNaNColumn(name string) {
	if _, ok := f.data[name]; ok {
		return
	}
	values := make([]interface{}, f.Len())
	for i := range values {
		values[i] = math.NaN()
	}
	f.columns = append(f.columns, name)
	f.data[name] = values
}

func (f *Frame) Column(name string) []interface{} {
	return f.data[name]
}

func (f *Frame) Value(name string, i int) interface{} {
	col, ok := f.data[name]
	if !ok {
		return nil
	}
	return col[i]
}

// PrefixColumns renames every non-time column to prefix+name.
func (f *Frame) PrefixColumns(prefix string) {
	renamed := make(map[string][]interface{}, len(f.data))
	for i, name := range f.columns {
		f.columns[i] = prefix + name
		renamed[prefix+name] = f.data[name]
	}
	f.data = renamed
}

// SortByTime orders rows by ascending timestamp. Sorting is stable so ties
// keep backend order.
func (f *Frame) SortByTime() {
	if !f.hasTime || len(f.times) < 2 {
		return
	}
	idx := make([]int, len(f.times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return f.times[idx[a]].Before(f.times[idx[b]])
	})
	times := make([]time.Time, len(f.times))
	for i, j := range idx {
		times[i] = f.times[j]
	}
	f.times = times
	for name, col := range f.data {
		out := make([]interface{}, len(col))
		for i, j := range idx {
			out[i] = col[j]
		}
		f.data[name] = out
	}
}

// ConvertZone applies the canonical timezone contract: timestamps are moved
// into loc, then the zone information is stripped so the value is plain
// wall-clock time in that zone.
func (f *Frame) ConvertZone(loc *time.Location) {
	if !f.hasTime || loc == nil {
		return
	}
	for i, t := range f.times {
		f.times[i] = StripZone(t, loc)
	}
}

// Records flattens the frame into one map per row, with the time column
// included under "time". Intended for JSON and CSV rendering.
func (f *Frame) Records() []map[string]interface{} {
	records := make([]map[string]interface{}, f.Len())
	for i := range records {
		row := make(map[string]interface{}, len(f.columns)+1)
		if f.hasTime {
			row[TimeColumn] = f.times[i]
		}
		for _, name := range f.columns {
			row[name] = f.data[name][i]
		}
		records[i] = row
	}
	return records
}

// StripZone converts t into loc and re-encodes the resulting wall-clock
// instant with the UTC location, i.e. the Go rendition of a zone-naive value.
func StripZone(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), time.UTC)
}

// IsNaN reports whether a frame cell holds the NaN placeholder.
func IsNaN(v interface{}) bool {
	fv, ok := v.(float64)
	return ok && math.IsNaN(fv)
}
