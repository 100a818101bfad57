package influxv2

import (
	"context"
	"net/http"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/query"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"influxkit/influx"
)

// Driver is the narrow surface the client needs from the v2 backend. The
// production implementation wraps the official SDK plus one hand-rolled
// call to the v1-compatibility HTTP endpoint; tests substitute a stub.
type Driver interface {
	QueryFlux(ctx context.Context, flux string) ([]*query.FluxRecord, error)
	QueryInfluxQL(ctx context.Context, command string) (*CompatResponse, error)
	WritePoints(ctx context.Context, points []*write.Point) error
	DeleteRange(ctx context.Context, start, stop time.Time, predicate string) error
	Buckets(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) (bool, error)
	Close()
}

type sdkDriver struct {
	cfg        influx.V2Config
	client     influxdb2.Client
	queryAPI   api.QueryAPI
	writeAPI   api.WriteAPIBlocking
	deleteAPI  api.DeleteAPI
	bucketsAPI api.BucketsAPI
	httpClient *http.Client
}

func newSDKDriver(cfg influx.V2Config) *sdkDriver {
	c := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &sdkDriver{
		cfg:        cfg,
		client:     c,
		queryAPI:   c.QueryAPI(cfg.Org),
		writeAPI:   c.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		deleteAPI:  c.DeleteAPI(),
		bucketsAPI: c.BucketsAPI(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (d *sdkDriver) QueryFlux(ctx context.Context, flux string) ([]*query.FluxRecord, error) {
	result, err := d.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, err
	}
	defer result.Close()
	var records []*query.FluxRecord
	for result.Next() {
		records = append(records, result.Record())
	}
	if result.Err() != nil {
		return nil, result.Err()
	}
	return records, nil
}

func (d *sdkDriver) WritePoints(ctx context.Context, points []*write.Point) error {
	return d.writeAPI.WritePoint(ctx, points...)
}

func (d *sdkDriver) DeleteRange(ctx context.Context, start, stop time.Time, predicate string) error {
	return d.deleteAPI.DeleteWithName(ctx, d.cfg.Org, d.cfg.Bucket, start, stop, predicate)
}

func (d *sdkDriver) Buckets(ctx context.Context) ([]string, error) {
	buckets, err := d.bucketsAPI.GetBuckets(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	if buckets != nil {
		for _, b := range *buckets {
			names = append(names, b.Name)
		}
	}
	return names, nil
}

func (d *sdkDriver) Ping(ctx context.Context) (bool, error) {
	return d.client.Ping(ctx)
}

func (d *sdkDriver) Close() {
	d.client.Close()
}
