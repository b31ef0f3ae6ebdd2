package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/iwpnd/s2cell"
)

func newTestApp(t *testing.T, union *s2cell.UnionSource) *fiber.App {
	t.Helper()
	cache, err := s2cell.NewRistrettoCache(s2cell.WithMaxCost(1 << 16))
	require.NoError(t, err)
	s := &server{
		coverer:       s2cell.NewCachedCoverer(cache),
		union:         union,
		maxCellsLimit: 100,
	}
	t.Cleanup(s.coverer.Close)
	return s.newApp(prometheus.NewRegistry())
}

func doGet(t *testing.T, app *fiber.App, target string) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, body
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)
	resp, body := doGet(t, app, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestHandleCellAt(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)

	resp, body := doGet(t, app, "/v1/cells?lat=37.4249518&lng=-122.082506&level=16")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var info cellInfo
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, "808fb9f81", info.Token)
	assert.Equal(t, 16, info.Level)
	assert.Equal(t, 4, info.Face)
	assert.Len(t, info.Children, 4)
	assert.Len(t, info.Neighbors, 4)
	assert.NotEmpty(t, info.Parent)
	assert.InDelta(t, 37.4249518, info.Center.Lat, 0.01)
	assert.InDelta(t, -122.082506, info.Center.Lng, 0.01)
	assert.Greater(t, info.AreaM2, 0.0)
	assert.True(t, strings.HasSuffix(info.Area, " m²"), info.Area)

	// leaf by default
	resp, body = doGet(t, app, "/v1/cells?lat=37.4249518&lng=-122.082506")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var leaf cellInfo
	require.NoError(t, json.Unmarshal(body, &leaf))
	assert.Equal(t, s2cell.MaxLevel, leaf.Level)
	assert.Empty(t, leaf.Children)
	assert.NotEmpty(t, leaf.Parent)

	for _, target := range []string{
		"/v1/cells",
		"/v1/cells?lat=abc&lng=1",
		"/v1/cells?lat=91&lng=0",
		"/v1/cells?lat=NaN&lng=0",
		"/v1/cells?lat=0&lng=-Inf",
		"/v1/cells?lat=1&lng=1&level=31",
		"/v1/cells?lat=1&lng=1&level=x",
	} {
		resp, body := doGet(t, app, target)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
		var e errorResponse
		require.NoError(t, json.Unmarshal(body, &e))
		assert.NotEmpty(t, e.Error, target)
		assert.NotEmpty(t, e.RequestID, target)
	}
}

func TestHandleCell(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)

	resp, body := doGet(t, app, "/v1/cells/89c25")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var info cellInfo
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, "89c25", info.Token)
	assert.Equal(t, 8, info.Level)
	assert.Equal(t, "89c24", info.Parent)

	resp, body = doGet(t, app, "/v1/cells/3")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var face cellInfo
	require.NoError(t, json.Unmarshal(body, &face))
	assert.Equal(t, 1, face.Face)
	assert.Equal(t, 0, face.Level)
	assert.Empty(t, face.Parent)
	assert.Len(t, face.Children, 4)

	for _, tok := range []string{"X", "0", "zz"} {
		resp, _ := doGet(t, app, "/v1/cells/"+tok)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, tok)
	}
}

func TestHandleCover(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)
	target := "/v1/cover?lat=40.7580&lng=-73.9855&radius=2000&max_cells=12&max_level=16"

	resp, body := doGet(t, app, target)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var cr coverResponse
	require.NoError(t, json.Unmarshal(body, &cr))
	assert.False(t, cr.Cached)
	assert.False(t, cr.Interior)
	assert.Equal(t, len(cr.Tokens), cr.Cells)
	assert.LessOrEqual(t, cr.Cells, 12)
	assert.Equal(t, s2cell.CoverOptions{MaxCells: 12, MinLevel: 0, MaxLevel: 16, LevelMod: 1}, cr.Options)

	// the same request again is served from the cache
	resp, body = doGet(t, app, target)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var again coverResponse
	require.NoError(t, json.Unmarshal(body, &again))
	assert.True(t, again.Cached)
	assert.Equal(t, cr.Tokens, again.Tokens)

	resp, body = doGet(t, app, target+"&interior=true")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var inner coverResponse
	require.NoError(t, json.Unmarshal(body, &inner))
	assert.True(t, inner.Interior)
	assert.NotEmpty(t, inner.Tokens)

	resp, body = doGet(t, app, target+"&format=geojson")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get(fiber.HeaderContentType))
	var fc geojson.FeatureCollection
	require.NoError(t, json.Unmarshal(body, &fc))
	require.Len(t, fc.Features, cr.Cells)
	for i, f := range fc.Features {
		assert.Equal(t, cr.Tokens[i], f.ID)
		require.NotNil(t, f.Geometry)
		assert.Len(t, f.Geometry.FlatCoords(), 10, "closed ring of four vertices")
	}

	for _, bad := range []string{
		"/v1/cover?lat=40&lng=-73",
		"/v1/cover?lat=40&lng=-73&radius=-1",
		"/v1/cover?lat=40&lng=-73&radius=NaN",
		"/v1/cover?lat=40&lng=-73&radius=Inf",
		"/v1/cover?lat=NaN&lng=-73&radius=10",
		"/v1/cover?lat=40&lng=-73&radius=10&max_cells=101",
		"/v1/cover?lat=40&lng=-73&radius=10&min_level=10&max_level=5",
		"/v1/cover?lat=40&lng=-73&radius=10&level_mod=9",
		"/v1/cover?lat=40&lng=-73&radius=10&format=kml",
	} {
		resp, _ := doGet(t, app, bad)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad)
	}
}

func TestHandleUnionContains(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)
	resp, _ := doGet(t, app, "/v1/union/contains?lat=40.7580&lng=-73.9855")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	id, err := s2cell.CellIDFromToken("89c25")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "union.bin")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, s2cell.CellUnion{id}.EncodeCompressed(f, s2cell.CompressionGZIP))
	require.NoError(t, f.Close())

	union, err := s2cell.NewUnionSource(t.Context(), path)
	require.NoError(t, err)
	app = newTestApp(t, union)

	tests := []struct {
		name   string
		target string
		want   bool
	}{
		{name: "times square", target: "/v1/union/contains?lat=40.7580&lng=-73.9855", want: true},
		{name: "sydney", target: "/v1/union/contains?lat=-33.8688&lng=151.2093", want: false},
	}
	for _, tc := range tests {
		resp, body := doGet(t, app, tc.target)
		require.Equal(t, http.StatusOK, resp.StatusCode, tc.name)
		var cr containsResponse
		require.NoError(t, json.Unmarshal(body, &cr))
		assert.Equal(t, tc.want, cr.Contains, tc.name)
		assert.Equal(t, union.Etag(), cr.Etag)
		assert.Equal(t, union.Etag(), resp.Header.Get(fiber.HeaderETag))
		assert.Len(t, cr.Cell, 16, "leaf tokens have 16 digits")
	}

	resp, _ = doGet(t, app, "/v1/union/contains?lat=100&lng=0")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)
	resp, _ := doGet(t, app, "/v1/cover?lat=1&lng=1&radius=100")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doGet(t, app, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	text := string(body)
	assert.Contains(t, text, "s2celld_covering_cells")
	assert.Contains(t, text, `s2celld_covering_cache_lookups_total{result="miss"} 1`)
	assert.Contains(t, text, "http_requests_total")
}
