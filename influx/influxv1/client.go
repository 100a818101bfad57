package influxv1

import (
	"context"
	"fmt"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/sirupsen/logrus"

	"influxkit/influx"
	"influxkit/infrastructure/log"
)

const pingTimeout = 5 * time.Second

// Driver is the narrow surface the client needs from the v1 SDK. The SDK's
// HTTP client satisfies it; tests substitute a stub.
type Driver interface {
	Ping(timeout time.Duration) (time.Duration, string, error)
	Query(q client.Query) (*client.Response, error)
	Write(bp client.BatchPoints) error
	Close() error
}

// Client talks to InfluxDB 1.x through InfluxQL.
type Client struct {
	cfg       influx.V1Config
	driver    Driver
	connected bool
	logger    logrus.FieldLogger
}

type Option func(*Client)

// WithDriver substitutes the backend driver, mainly for tests.
func WithDriver(d Driver) Option {
	return func(c *Client) { c.driver = d }
}

func NewClient(cfg influx.V1Config, opts ...Option) (*Client, error) {
	c := &Client{cfg: cfg, logger: log.NewLogger("influxv1")}
	for _, opt := range opts {
		opt(c)
	}
	if c.driver == nil {
		httpClient, err := client.NewHTTPClient(client.HTTPConfig{
			Addr:               cfg.Addr(),
			Username:           cfg.Username,
			Password:           cfg.Password,
			InsecureSkipVerify: cfg.SSL && !cfg.VerifySSL,
		})
		if err != nil {
			return nil, &influx.ConfigError{Message: fmt.Sprintf("cannot create v1 client: %s", err)}
		}
		c.driver = httpClient
	}
	return c, nil
}

func (c *Client) Version() int { return 1 }

func (c *Client) Connect(ctx context.Context) error {
	if !c.Ping(ctx) {
		c.connected = false
		return &influx.ConnectionError{Message: "ping failed for " + c.cfg.Addr()}
	}
	c.connected = true
	return nil
}

func (c *Client) Close() error {
	c.connected = false
	return c.driver.Close()
}

func (c *Client) Ping(_ context.Context) bool {
	_, _, err := c.driver.Ping(pingTimeout)
	return err == nil
}

// execute runs one InfluxQL statement and converts every failure, including
// backend-reported query errors, into a QueryError.
func (c *Client) execute(command, database string) (*client.Response, error) {
	c.logger.WithField("query", command).Debug("executing InfluxQL")
	resp, err := c.driver.Query(client.Query{Command: command, Database: database})
	if err != nil {
		return nil, influx.WrapQueryError(command, err)
	}
	if err := resp.Error(); err != nil {
		return nil, influx.WrapQueryError(command, err)
	}
	return resp, nil
}

func (c *Client) GetTimeseries(ctx context.Context, req influx.TimeSeriesRequest) (*influx.Frame, error) {
	query, err := BuildQuery(req)
	if err != nil {
		return nil, err
	}
	loc, err := req.Location()
	if err != nil {
		return nil, err
	}
	resp, err := c.execute(query, c.cfg.Database)
	if err != nil {
		return nil, err
	}
	return NormalizeResponse(resp, loc)
}

func (c *Client) GetMultipleTimeseries(ctx context.Context, req influx.MultiSeriesRequest) (*influx.Frame, error) {
	return influx.GetMultipleTimeseries(ctx, c, req)
}

func (c *Client) QueryRaw(_ context.Context, query, timezone string) (*influx.Frame, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, &influx.ValidationError{Message: "unknown timezone " + timezone}
	}
	resp, err := c.execute(fmt.Sprintf("%s tz('%s')", query, timezone), c.cfg.Database)
	if err != nil {
		return nil, err
	}
	return NormalizeResponse(resp, loc)
}

func (c *Client) ListMeasurements(_ context.Context, database string) ([]string, error) {
	command := "SHOW MEASUREMENTS"
	if database != "" {
		command += fmt.Sprintf(" ON %q", database)
	}
	resp, err := c.execute(command, c.database(database))
	if err != nil {
		return nil, err
	}
	return stringColumn(resp, "name"), nil
}

func (c *Client) GetTags(_ context.Context, measurement, database string) ([]string, error) {
	command := "SHOW TAG KEYS"
	if database != "" {
		command += fmt.Sprintf(" ON %q", database)
	}
	command += fmt.Sprintf(" FROM %q", measurement)
	resp, err := c.execute(command, c.database(database))
	if err != nil {
		return nil, err
	}
	return stringColumn(resp, "tagKey"), nil
}

func (c *Client) GetTagValues(_ context.Context, measurement, tagKey, database string) ([]string, error) {
	command := "SHOW TAG VALUES"
	if database != "" {
		command += fmt.Sprintf(" ON %q", database)
	}
	command += fmt.Sprintf(" FROM %q WITH KEY = %q", measurement, tagKey)
	resp, err := c.execute(command, c.database(database))
	if err != nil {
		return nil, err
	}
	return stringColumn(resp, "value"), nil
}

func (c *Client) GetFields(_ context.Context, measurement, database string) (map[string]string, error) {
	command := "SHOW FIELD KEYS"
	if database != "" {
		command += fmt.Sprintf(" ON %q", database)
	}
	command += fmt.Sprintf(" FROM %q", measurement)
	resp, err := c.execute(command, c.database(database))
	if err != nil {
		return nil, err
	}
	fields := map[string]string{}
	forEachRow(resp, func(columns []string, values []interface{}) {
		var key, typ string
		for i, col := range columns {
			if i >= len(values) {
				break
			}
			s, _ := values[i].(string)
			switch col {
			case "fieldKey":
				key = s
			case "fieldType":
				typ = s
			}
		}
		if key != "" {
			fields[key] = typ
		}
	})
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
		Database:    c.database(database),
	}, nil
}

func (c *Client) ListDatabases(_ context.Context) ([]string, error) {
	resp, err := c.execute("SHOW DATABASES", "")
	if err != nil {
		return nil, err
	}
	return stringColumn(resp, "name"), nil
}

func (c *Client) ListBuckets(context.Context) ([]string, error) {
	return nil, &influx.UnsupportedOperationError{Op: "list_buckets", Message: "only supported for InfluxDB v2"}
}

func (c *Client) WritePoints(_ context.Context, points []influx.Point, measurement string, batchSize int) (*influx.WriteResult, error) {
	if err := influx.EnsureWritesAllowed(c.cfg.AllowWrite, "write_points"); err != nil {
		return nil, err
	}
	chunks, err := influx.ChunkPoints(points, batchSize)
	if err != nil {
		return nil, err
	}
	for _, chunk := range chunks {
		bp, err := client.NewBatchPoints(client.BatchPointsConfig{Database: c.cfg.Database})
		if err != nil {
			return nil, influx.WrapQueryError("write", err)
		}
		for _, p := range chunk {
			name := p.Measurement
			if name == "" {
				name = measurement
			}
			pt, err := client.NewPoint(name, p.Tags, p.Fields, p.Time)
			if err != nil {
				return nil, &influx.ValidationError{Message: fmt.Sprintf("invalid point: %s", err)}
			}
			bp.AddPoint(pt)
		}
		if err := c.driver.Write(bp); err != nil {
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

func (c *Client) DeleteRange(_ context.Context, measurement string, start, end time.Time, tags map[string]string) error {
	if err := influx.EnsureWritesAllowed(c.cfg.AllowWrite, "delete_range"); err != nil {
		return err
	}
	return &influx.UnsupportedOperationError{Op: "delete_range", Message: "not implemented for InfluxDB v1"}
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

func (c *Client) database(database string) string {
	if database != "" {
		return database
	}
	return c.cfg.Database
}

func stringColumn(resp *client.Response, column string) []string {
	var out []string
	forEachRow(resp, func(columns []string, values []interface{}) {
		for i, col := range columns {
			if col == column && i < len(values) {
				if s, ok := values[i].(string); ok {
					out = append(out, s)
				}
			}
		}
	})
	return out
}

func forEachRow(resp *client.Response, fn func(columns []string, values []interface{})) {
	for _, result := range resp.Results {
		for _, series := range result.Series {
			for _, values := range series.Values {
				fn(series.Columns, values)
			}
		}
	}
}

var _ influx.Client = (*Client)(nil)
