package influxv2

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"influxkit/infrastructure/json"
)

// CompatResponse is the nested JSON payload of the v1-compatibility /query
// endpoint: results[].series[], each series carrying columns, optional tags
// and row values.
type CompatResponse struct {
	Results []CompatResult `json:"results"`
}

type CompatResult struct {
	Series []CompatSeries `json:"series"`
	Err    string         `json:"error"`
}

type CompatSeries struct {
	Name    string            `json:"name"`
	Tags    map[string]string `json:"tags"`
	Columns []string          `json:"columns"`
	Values  [][]interface{}   `json:"values"`
}

// Error returns the backend-reported query error, if any.
func (r *CompatResponse) Error() string {
	if len(r.Results) > 0 && r.Results[0].Err != "" {
		return r.Results[0].Err
	}
	return ""
}

// QueryInfluxQL executes InfluxQL text against the compatibility endpoint.
// The SDK has no surface for it, so this is a plain authenticated GET.
func (d *sdkDriver) QueryInfluxQL(ctx context.Context, command string) (*CompatResponse, error) {
	endpoint := strings.TrimRight(d.cfg.URL, "/") + "/query"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("q", command)
	params.Set("db", d.cfg.Bucket)
	req.URL.RawQuery = params.Encode()
	req.Header.Set("Authorization", "Token "+d.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("InfluxQL query failed: %d - %s", resp.StatusCode, string(body))
	}
	var payload CompatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
