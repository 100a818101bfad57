package influx

import (
	"time"
)

// Aggregation functions accepted by both query builders.
const (
	AggMean   = "mean"
	AggMedian = "median"
	AggMin    = "min"
	AggMax    = "max"
	AggSum    = "sum"
	AggCount  = "count"
)

// TimeSeriesRequest is a version-agnostic single-series query. The matching
// builder translates it into InfluxQL or Flux text.
type TimeSeriesRequest struct {
	Measurement string
	Fields      []string
	Tags        map[string]string
	Start       time.Time
	End         time.Time
	Interval    string
	Aggregation string
	Timezone    string
}

func (r TimeSeriesRequest) WithTags(tags map[string]string) TimeSeriesRequest {
	r.Tags = tags
	return r
}

func (r TimeSeriesRequest) WithRange(start, end time.Time) TimeSeriesRequest {
	r.Start = start
	r.End = end
	return r
}

func (r TimeSeriesRequest) WithAggregation(aggregation, interval string) TimeSeriesRequest {
	r.Aggregation = aggregation
	r.Interval = interval
	return r
}

// CleanFields returns the field list with empty entries dropped.
func (r TimeSeriesRequest) CleanFields() []string {
	fields := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		if f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// Validate rejects requests the builders cannot translate.
func (r TimeSeriesRequest) Validate() error {
	if r.Measurement == "" {
		return &ValidationError{Message: "measurement is required"}
	}
	if len(r.CleanFields()) == 0 {
		return &ValidationError{Message: "fields must contain at least one field name"}
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return &ValidationError{Message: "start and end are required"}
	}
	return nil
}

// Location resolves the requested timezone, defaulting to UTC.
func (r TimeSeriesRequest) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, &ValidationError{Message: "unknown timezone " + r.Timezone}
	}
	return loc, nil
}

// SeriesQuery is one entry of a MultiSeriesRequest. Zero-valued settings
// inherit the request-level defaults.
type SeriesQuery struct {
	Measurement string
	Fields      []string
	FieldKey    string
	Tags        map[string]string
	Start       time.Time
	End         time.Time
	Interval    string
	Aggregation string
}

// MultiSeriesRequest fetches several independently specified series and
// merges them into one table keyed on time.
type MultiSeriesRequest struct {
	Queries     []SeriesQuery
	Start       time.Time
	End         time.Time
	Interval    string
	Aggregation string
	Timezone    string
}

// resolve folds the request-level defaults into one entry, failing fast on a
// missing measurement or an unresolved time range.
func (m MultiSeriesRequest) resolve(q SeriesQuery) (TimeSeriesRequest, error) {
	if q.Measurement == "" {
		return TimeSeriesRequest{}, &ValidationError{Message: "measurement is required in each query"}
	}
	fields := q.Fields
	if len(fields) == 0 {
		key := q.FieldKey
		if key == "" {
			key = "value"
		}
		fields = []string{key}
	}
	start, end := q.Start, q.End
	if start.IsZero() {
		start = m.Start
	}
	if end.IsZero() {
		end = m.End
	}
	if start.IsZero() || end.IsZero() {
		return TimeSeriesRequest{}, &ValidationError{Message: "start and end are required for multi-series queries"}
	}
	interval := q.Interval
	if interval == "" {
		interval = m.Interval
	}
	aggregation := q.Aggregation
	if aggregation == "" {
		aggregation = m.Aggregation
	}
	return TimeSeriesRequest{
		Measurement: q.Measurement,
		Fields:      fields,
		Tags:        q.Tags,
		Start:       start,
		End:         end,
		Interval:    interval,
		Aggregation: aggregation,
		Timezone:    m.Timezone,
	}, nil
}
