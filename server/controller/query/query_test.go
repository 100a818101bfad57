package query

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"influxkit/influx"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	New(nil).Init(router)
	return router
}

func TestProfilesEndpointUsesInjectedRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	registry := influx.BuiltinProfiles().Merge(influx.ProfileRegistry{
		"v1_custom": {Version: 1, Host: "example", Database: "db"},
	})
	New(registry).Init(router)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "v1_custom")
	assert.Contains(t, w.Body.String(), "v1_meteo")
}

func TestProfilesEndpoint(t *testing.T) {
	router := newTestRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "v1_meteo")
}

func TestTimeseriesRejectsMissingProfile(t *testing.T) {
	router := newTestRouter()
	w := httptest.NewRecorder()
	body := `{"queries":[{"measurement":"power"}],"start":"2023-01-01T00:00:00Z","end":"2023-01-02T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/timeseries", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimeseriesRejectsBadTimes(t *testing.T) {
	router := newTestRouter()
	w := httptest.NewRecorder()
	body := `{"profile":"v1_meteo","queries":[{"measurement":"power"}],"start":"yesterday","end":"2023-01-02T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/timeseries", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid start")
}

func TestRawRejectsUnknownProfile(t *testing.T) {
	router := newTestRouter()
	w := httptest.NewRecorder()
	body := `{"profile":"does_not_exist","query":"SELECT * FROM power"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFrameResponseReplacesNaN(t *testing.T) {
	f := influx.NewFrame()
	require.NoError(t, f.SetTimes([]time.Time{time.Unix(0, 0).UTC()}))
	require.NoError(t, f.AddColumn("value", []interface{}{math.NaN()}))
	resp := newFrameResponse(f)
	require.Len(t, resp.Records, 1)
	assert.Nil(t, resp.Records[0]["value"])
	assert.Equal(t, 1, resp.Rows)
}

func TestRawRejectsEmptyQuery(t *testing.T) {
	router := newTestRouter()
	w := httptest.NewRecorder()
	body := `{"profile":"v1_meteo","query":""}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "query is required")
}
