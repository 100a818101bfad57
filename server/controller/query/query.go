package query

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"influxkit"
	"influxkit/influx"
	"influxkit/infrastructure/log"
	"influxkit/infrastructure/web"
)

var logger = log.NewLogger("query")

// Query exposes read-only access to the configured backends. Connection
// profiles force the write gate shut, so nothing behind these routes can
// mutate data.
type Query struct {
	web.BaseController
	registry influx.ProfileRegistry
}

// New builds the controller around a profile registry composed at startup.
// A nil registry falls back to the built-in profiles.
func New(registry influx.ProfileRegistry) *Query {
	if registry == nil {
		registry = influx.BuiltinProfiles()
	}
	return &Query{registry: registry}
}

func (ctl *Query) Init(router gin.IRouter) {
	api := router.Group("/api/v1")
	api.GET("/profiles", ctl.profiles)
	api.POST("/timeseries", ctl.timeseries)
	api.POST("/query", ctl.raw)
	api.GET("/schema/:profile/measurements", ctl.measurements)
	api.GET("/schema/:profile/measurements/:measurement", ctl.measurementSchema)
}

type seriesBody struct {
	Measurement string            `json:"measurement"`
	FieldKey    string            `json:"field_key"`
	Tags        map[string]string `json:"tags"`
	Aggregation string            `json:"aggregation"`
	Interval    string            `json:"interval"`
}

type timeseriesBody struct {
	Profile     string       `json:"profile"`
	Queries     []seriesBody `json:"queries"`
	Start       string       `json:"start"`
	End         string       `json:"end"`
	Interval    string       `json:"interval"`
	Aggregation string       `json:"aggregation"`
	Timezone    string       `json:"timezone"`
}

type rawBody struct {
	Profile  string `json:"profile"`
	Query    string `json:"query"`
	Timezone string `json:"timezone"`
}

type frameResponse struct {
	Columns []string                 `json:"columns"`
	Rows    int                      `json:"rows"`
	Records []map[string]interface{} `json:"records"`
}

func (ctl *Query) profiles(c *gin.Context) {
	ctl.SuccessResponse(c, gin.H{"profiles": ctl.registry.Names()})
}

func (ctl *Query) timeseries(c *gin.Context) {
	var body timeseriesBody
	if err := c.BindJSON(&body); err != nil {
		ctl.BadRequestResponse(c, err.Error())
		return
	}
	start, err := parseTime(body.Start)
	if err != nil {
		ctl.BadRequestResponse(c, "invalid start: "+body.Start)
		return
	}
	end, err := parseTime(body.End)
	if err != nil {
		ctl.BadRequestResponse(c, "invalid end: "+body.End)
		return
	}
	req := influx.MultiSeriesRequest{
		Start:       start,
		End:         end,
		Interval:    body.Interval,
		Aggregation: body.Aggregation,
		Timezone:    body.Timezone,
	}
	for _, q := range body.Queries {
		req.Queries = append(req.Queries, influx.SeriesQuery{
			Measurement: q.Measurement,
			FieldKey:    q.FieldKey,
			Tags:        q.Tags,
			Aggregation: q.Aggregation,
			Interval:    q.Interval,
		})
	}
	ctl.withProfile(c, body.Profile, func(client influx.Client) error {
		frame, err := client.GetMultipleTimeseries(c.Request.Context(), req)
		if err != nil {
			return err
		}
		ctl.SuccessResponse(c, newFrameResponse(frame))
		return nil
	})
}

func (ctl *Query) raw(c *gin.Context) {
	var body rawBody
	if err := c.BindJSON(&body); err != nil {
		ctl.BadRequestResponse(c, err.Error())
		return
	}
	if body.Query == "" {
		ctl.BadRequestResponse(c, "query is required")
		return
	}
	ctl.withProfile(c, body.Profile, func(client influx.Client) error {
		frame, err := client.QueryRaw(c.Request.Context(), body.Query, body.Timezone)
		if err != nil {
			return err
		}
		ctl.SuccessResponse(c, newFrameResponse(frame))
		return nil
	})
}

func (ctl *Query) measurements(c *gin.Context) {
	ctl.withProfile(c, c.Param("profile"), func(client influx.Client) error {
		names, err := client.ListMeasurements(c.Request.Context(), "")
		if err != nil {
			return err
		}
		ctl.SuccessResponse(c, gin.H{"measurements": names})
		return nil
	})
}

func (ctl *Query) measurementSchema(c *gin.Context) {
	ctl.withProfile(c, c.Param("profile"), func(client influx.Client) error {
		schema, err := client.GetMeasurementSchema(c.Request.Context(), c.Param("measurement"), "")
		if err != nil {
			return err
		}
		ctl.SuccessResponse(c, schema)
		return nil
	})
}

// withProfile opens the named profile for the duration of one handler and
// maps failures onto HTTP status codes.
func (ctl *Query) withProfile(c *gin.Context, profile string, fn func(influx.Client) error) {
	if profile == "" {
		ctl.BadRequestResponse(c, "profile is required")
		return
	}
	client, err := influxkit.OpenFrom(c.Request.Context(), ctl.registry, profile)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	defer client.Close()
	if err := fn(client); err != nil {
		ctl.respondError(c, err)
	}
}

func (ctl *Query) respondError(c *gin.Context, err error) {
	var validationErr *influx.ValidationError
	var configErr *influx.ConfigError
	var unsupportedErr *influx.UnsupportedOperationError
	switch {
	case errors.As(err, &validationErr), errors.As(err, &configErr), errors.As(err, &unsupportedErr):
		ctl.BadRequestResponse(c, err.Error())
	default:
		logger.WithError(err).Error("request failed")
		ctl.InternalErrorResponse(c, err)
	}
}

// newFrameResponse flattens a frame for JSON. NaN placeholders become nulls
// since JSON has no NaN literal.
func newFrameResponse(frame *influx.Frame) frameResponse {
	records := frame.Records()
	for _, row := range records {
		for k, v := range row {
			if influx.IsNaN(v) {
				row[k] = nil
			}
		}
	}
	return frameResponse{
		Columns: frame.Columns(),
		Rows:    frame.Len(),
		Records: records,
	}
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}
