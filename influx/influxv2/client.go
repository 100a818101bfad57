package influxv2

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sirupsen/logrus"

	"influxkit/influx"
	"influxkit/infrastructure/log"
)

// Client talks to InfluxDB 2.x through Flux, with an InfluxQL escape hatch
// via the v1-compatibility endpoint.
type Client struct {
	cfg       influx.V2Config
	driver    Driver
	connected bool
	logger    logrus.FieldLogger
}

type Option func(*Client)

// WithDriver substitutes the backend driver, mainly for tests.
func WithDriver(d Driver) Option {
	return func(c *Client) { c.driver = d }
}

func NewClient(cfg influx.V2Config, opts ...Option) (*Client, error) {
	if cfg.URL == "" {
		return nil, &influx.ConfigError{Message: "v2 config requires a url"}
	}
	if cfg.Token == "" || cfg.Org == "" {
		return nil, &influx.ConfigError{Message: "v2 config requires token and org"}
	}
	c := &Client{cfg: cfg, logger: log.NewLogger("influxv2")}
	for _, opt := range opts {
		opt(c)
	}
	if c.driver == nil {
		c.driver = newSDKDriver(cfg)
	}
	return c, nil
}

func (c *Client) Version() int { return 2 }

func (c *Client) Connect(ctx context.Context) error {
	if !c.Ping(ctx) {
		c.connected = false
		return &influx.ConnectionError{Message: "ping failed for " + c.cfg.URL}
	}
	c.connected = true
	return nil
}

func (c *Client) Close() error {
	c.connected = false
	c.driver.Close()
	return nil
}

func (c *Client) Ping(ctx context.Context) bool {
	ok, err := c.driver.Ping(ctx)
	return ok && err == nil
}

func (c *Client) GetTimeseries(ctx context.Context, req influx.TimeSeriesRequest) (*influx.Frame, error) {
	flux, err := BuildQuery(c.cfg.Bucket, req)
	if err != nil {
		return nil, err
	}
	loc, err := req.Location()
	if err != nil {
		return nil, err
	}
	c.logger.WithField("query", flux).Debug("executing Flux")
	records, err := c.driver.QueryFlux(ctx, flux)
	if err != nil {
		return nil, influx.WrapQueryError(flux, err)
	}
	return NormalizeRecords(records, loc)
}

func (c *Client) GetMultipleTimeseries(ctx context.Context, req influx.MultiSeriesRequest) (*influx.Frame, error) {
	return influx.GetMultipleTimeseries(ctx, c, req)
}

// QueryRaw inspects the leading keyword of the query text: InfluxQL goes to
// the compatibility endpoint, everything else is treated as Flux.
func (c *Client) QueryRaw(ctx context.Context, query, timezone string) (*influx.Frame, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, &influx.ValidationError{Message: "unknown timezone " + timezone}
	}
	if influx.IsInfluxQL(query) {
		command := fmt.Sprintf("%s tz('%s')", query, timezone)
		c.logger.WithField("query", command).Debug("executing InfluxQL via compatibility endpoint")
		resp, err := c.driver.QueryInfluxQL(ctx, command)
		if err != nil {
			return nil, influx.WrapQueryError(command, err)
		}
		return NormalizeCompat(resp, loc)
	}
	c.logger.WithField("query", query).Debug("executing Flux")
	records, err := c.driver.QueryFlux(ctx, query)
	if err != nil {
		return nil, influx.WrapQueryError(query, err)
	}
	return NormalizeRecords(records, loc)
}

func (c *Client) ListMeasurements(ctx context.Context, database string) ([]string, error) {
	flux := fmt.Sprintf("import \"influxdata/influxdb/schema\"\nschema.measurements(bucket: %q)", c.bucket(database))
	return c.schemaValues(ctx, flux, false)
}

func (c *Client) GetTags(ctx context.Context, measurement, database string) ([]string, error) {
	flux := fmt.Sprintf("import \"influxdata/influxdb/schema\"\nschema.measurementTagKeys(bucket: %q, measurement: %q)",
		c.bucket(database), measurement)
	return c.schemaValues(ctx, flux, true)
}

func (c *Client) GetTagValues(ctx context.Context, measurement, tagKey, database string) ([]string, error) {
	flux := fmt.Sprintf("import \"influxdata/influxdb/schema\"\nschema.measurementTagValues(bucket: %q, measurement: %q, tag: %q)",
		c.bucket(database), measurement, tagKey)
	return c.schemaValues(ctx, flux, false)
}

// GetFields lists field keys. Flux schema helpers do not expose field types,
// so every key maps to an empty type.
func (c *Client) GetFields(ctx context.Context, measurement, database string) (map[string]string, error) {
	flux := fmt.Sprintf("import \"influxdata/influxdb/schema\"\nschema.measurementFieldKeys(bucket: %q, measurement: %q)",
		c.bucket(database), measurement)
	keys, err := c.schemaValues(ctx, flux, false)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(keys))
	for _, k := range keys {
		fields[k] = ""
	}
	return fields, nil
}

func (c *Client) GetMeasurementSchema(ctx context.Context, measurement, database string) (*influx.MeasurementSchema, error) {
	tags, err := c.GetTags(ctx, measurement, database)
	if err != nil {
		return nil, err
	}
	fields, err := c.GetFields(ctx, measurement, database)
	if err != nil {
		return nil, err
	}
	return &influx.MeasurementSchema{
		Measurement: measurement,
		Tags:        tags,
		Fields:      fields,
		Database:    c.bucket(database),
	}, nil
}

func (c *Client) ListDatabases(context.Context) ([]string, error) {
	return nil, &influx.UnsupportedOperationError{Op: "list_databases", Message: "only supported for InfluxDB v1"}
}

func (c *Client) ListBuckets(ctx context.Context) ([]string, error) {
	names, err := c.driver.Buckets(ctx)
	if err != nil {
		return nil, influx.WrapQueryError("buckets", err)
	}
	sort.Strings(names)
	return names, nil
}

func (c *Client) WritePoints(ctx context.Context, points []influx.Point, measurement string, batchSize int) (*influx.WriteResult, error) {
	if err := influx.EnsureWritesAllowed(c.cfg.AllowWrite, "write_points"); err != nil {
		return nil, err
	}
	chunks, err := influx.ChunkPoints(points, batchSize)
	if err != nil {
		return nil, err
	}
	for _, chunk := range chunks {
		batch := make([]*write.Point, 0, len(chunk))
		for _, p := range chunk {
			name := p.Measurement
			if name == "" {
				name = measurement
			}
			batch = append(batch, write.NewPoint(name, p.Tags, p.Fields, p.Time))
		}
		if err := c.driver.WritePoints(ctx, batch); err != nil {
			return nil, influx.WrapQueryError("write", err)
		}
	}
	return &influx.WriteResult{
		Success: true,
		Details: influx.WriteDetails{Points: len(points), Batches: len(chunks), BatchSize: batchSize},
	}, nil
}

func (c *Client) WriteFrame(ctx context.Context, frame *influx.Frame, measurement string, tagColumns, fieldColumns []string, timeColumn string, batchSize int) (*influx.WriteResult, error) {
	if err := influx.EnsureWritesAllowed(c.cfg.AllowWrite, "write_frame"); err != nil {
		return nil, err
	}
	points, err := influx.FramePoints(frame, measurement, tagColumns, fieldColumns, timeColumn)
	if err != nil {
		return nil, err
	}
	return c.WritePoints(ctx, points, measurement, batchSize)
}

func (c *Client) DeleteRange(ctx context.Context, measurement string, start, end time.Time, tags map[string]string) error {
	if err := influx.EnsureWritesAllowed(c.cfg.AllowWrite, "delete_range"); err != nil {
		return err
	}
	if measurement == "" {
		return &influx.ValidationError{Message: "measurement is required"}
	}
	predicate := fmt.Sprintf("_measurement=%q", measurement)
	for _, k := range sortedKeys(tags) {
		predicate += fmt.Sprintf(" AND %s=%q", k, tags[k])
	}
	if err := c.driver.DeleteRange(ctx, start, end, predicate); err != nil {
		return influx.WrapQueryError(predicate, err)
	}
	return nil
}

func (c *Client) CreateDatabase(_ context.Context, name string) error {
	if err := influx.EnsureWritesAllowed(c.cfg.AllowWrite, "create_database"); err != nil {
		return err
	}
	return influx.AdminDisabled("create_database")
}

func (c *Client) DeleteDatabase(_ context.Context, name string) error {
	if err := influx.EnsureWritesAllowed(c.cfg.AllowWrite, "delete_database"); err != nil {
		return err
	}
	return influx.AdminDisabled("delete_database")
}

func (c *Client) CreateBucket(_ context.Context, name, retention string) error {
	if err := influx.EnsureWritesAllowed(c.cfg.AllowWrite, "create_bucket"); err != nil {
		return err
	}
	return influx.AdminDisabled("create_bucket")
}

func (c *Client) CreateUser(_ context.Context, username, password string) error {
	if err := influx.EnsureWritesAllowed(c.cfg.AllowWrite, "create_user"); err != nil {
		return err
	}
	return influx.AdminDisabled("create_user")
}

func (c *Client) DeleteUser(_ context.Context, username string) error {
	if err := influx.EnsureWritesAllowed(c.cfg.AllowWrite, "delete_user"); err != nil {
		return err
	}
	return influx.AdminDisabled("delete_user")
}

func (c *Client) GrantPrivileges(_ context.Context, user, database string) error {
	if err := influx.EnsureWritesAllowed(c.cfg.AllowWrite, "grant_privileges"); err != nil {
		return err
	}
	return influx.AdminDisabled("grant_privileges")
}

func (c *Client) bucket(database string) string {
	if database != "" {
		return database
	}
	return c.cfg.Bucket
}

// schemaValues runs a schema query yielding one string per record. Internal
// columns with a leading underscore are dropped when skipInternal is set.
func (c *Client) schemaValues(ctx context.Context, flux string, skipInternal bool) ([]string, error) {
	c.logger.WithField("query", flux).Debug("executing Flux")
	records, err := c.driver.QueryFlux(ctx, flux)
	if err != nil {
		return nil, influx.WrapQueryError(flux, err)
	}
	values := valueStrings(records)
	if !skipInternal {
		return values, nil
	}
	out := values[:0]
	for _, v := range values {
		if strings.HasPrefix(v, "_") {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

var _ influx.Client = (*Client)(nil)
