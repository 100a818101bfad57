package influx

import (
	"context"
	"time"
)

// Client is the capability contract shared by the v1 and v2 implementations.
// Every blocking operation takes a context; every mutating operation is
// gated by the allow-write flag fixed at construction time.
type Client interface {
	// Connect verifies liveness via Ping and marks the client connected.
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) bool
	Version() int

	GetTimeseries(ctx context.Context, req TimeSeriesRequest) (*Frame, error)
	GetMultipleTimeseries(ctx context.Context, req MultiSeriesRequest) (*Frame, error)
	// QueryRaw executes caller-supplied dialect text. The v2 client routes
	// InfluxQL-looking text to the compatibility endpoint.
	QueryRaw(ctx context.Context, query, timezone string) (*Frame, error)

	ListMeasurements(ctx context.Context, database string) ([]string, error)
	GetTags(ctx context.Context, measurement, database string) ([]string, error)
	GetTagValues(ctx context.Context, measurement, tagKey, database string) ([]string, error)
	GetFields(ctx context.Context, measurement, database string) (map[string]string, error)
	GetMeasurementSchema(ctx context.Context, measurement, database string) (*MeasurementSchema, error)
	ListDatabases(ctx context.Context) ([]string, error)
	ListBuckets(ctx context.Context) ([]string, error)

	WritePoints(ctx context.Context, points []Point, measurement string, batchSize int) (*WriteResult, error)
	WriteFrame(ctx context.Context, frame *Frame, measurement string, tagColumns, fieldColumns []string, timeColumn string, batchSize int) (*WriteResult, error)
	DeleteRange(ctx context.Context, measurement string, start, end time.Time, tags map[string]string) error

	CreateDatabase(ctx context.Context, name string) error
	DeleteDatabase(ctx context.Context, name string) error
	CreateBucket(ctx context.Context, name, retention string) error
	CreateUser(ctx context.Context, username, password string) error
	DeleteUser(ctx context.Context, username string) error
	GrantPrivileges(ctx context.Context, user, database string) error
}
