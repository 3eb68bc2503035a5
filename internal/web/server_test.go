package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudguard/internal/artifact"
	"fraudguard/internal/service"
	"fraudguard/internal/storage"
)

func newTestServer(t *testing.T) (*Server, storage.PredictionStore) {
	t.Helper()
	bundle, err := artifact.NewLoader(artifact.Options{Dir: filepath.Join("..", "artifact", "testdata")}, zerolog.Nop()).Load()
	require.NoError(t, err)

	store, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "fraud_project.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	return newServerOver(t, bundle, store), store
}

func newServerOver(t *testing.T, bundle *artifact.Bundle, store storage.PredictionStore) *Server {
	t.Helper()
	svc := service.New(bundle, store, nil, zerolog.Nop())
	return NewServer(svc, Options{Mode: gin.TestMode, RecentLimit: 2}, zerolog.Nop())
}

type unreadableStore struct {
	storage.PredictionStore
}

func (unreadableStore) FetchAll(context.Context) ([]storage.Record, error) {
	return nil, errors.New("database is locked")
}

func (unreadableStore) FetchRecent(context.Context, int) ([]storage.Record, error) {
	return nil, errors.New("database is locked")
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDPropagates(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestAnalyzePersists(t *testing.T) {
	s, store := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/analyze", `{"amount": 250, "hour": 2, "v12": 0, "v14": -12, "v17": -8}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var analysis service.Analysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analysis))
	assert.True(t, analysis.Result.Fraud)
	assert.True(t, analysis.IsNight)

	all, err := store.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, analysis.Record.ID, all[0].ID)
}

func TestAnalyzeValidation(t *testing.T) {
	s, store := newTestServer(t)

	cases := []string{
		`{"hour": 2}`,
		`{"amount": -1, "hour": 2}`,
		`{"amount": 30000, "hour": 2}`,
		`{"amount": 10, "hour": 25}`,
		`{"amount": 10, "hour": 2, "v14": -21}`,
		`not json`,
	}
	for _, body := range cases {
		w := do(t, s, http.MethodPost, "/api/analyze", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	w := do(t, s, http.MethodPost, "/api/analyze", `{"amount": 0, "hour": 0}`)
	assert.Equal(t, http.StatusCreated, w.Code, "zero amount and hour are valid inputs")

	all, err := store.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSimulateAndDashboard(t *testing.T) {
	s, _ := newTestServer(t)

	for _, name := range []string{"normal", "stolen_card", "odd_hour"} {
		w := do(t, s, http.MethodPost, "/api/simulate/"+name, "")
		require.Equal(t, http.StatusCreated, w.Code, name)
	}
	w := do(t, s, http.MethodPost, "/api/simulate/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st statsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.EqualValues(t, 3, st.Total)
	assert.EqualValues(t, 2, st.Fraud)
	assert.Equal(t, "%66.67", st.FraudRateDisplay)

	w = do(t, s, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)
	var dash struct {
		Recent        []storage.Record  `json:"recent"`
		HourBuckets   []json.RawMessage `json:"hour_buckets"`
		AmountBuckets []json.RawMessage `json:"amount_buckets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	assert.Len(t, dash.Recent, 2, "recent list honours the configured limit")
	assert.Len(t, dash.HourBuckets, 25)
	assert.Len(t, dash.AmountBuckets, 8)
}

func TestPredictionsLimitAndClear(t *testing.T) {
	s, _ := newTestServer(t)
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/simulate/manual", "").Code)
	}

	var body struct {
		Count int `json:"count"`
	}
	w := do(t, s, http.MethodGet, "/api/predictions", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)

	w = do(t, s, http.MethodGet, "/api/predictions?limit=0", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Count)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/predictions?limit=x", "").Code)

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/predictions", "").Code)
	w = do(t, s, http.MethodGet, "/api/predictions?limit=0", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Zero(t, body.Count)
}

func TestCharts(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/charts/hour", "")
	assert.Equal(t, http.StatusNotFound, w.Code, "empty history has nothing to plot")

	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/simulate/stolen_card", "").Code)

	w = do(t, s, http.MethodGet, "/api/charts/daily", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = do(t, s, http.MethodGet, "/api/charts/pie", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown_chart", errorCode(t, w))
}

func TestChartWithoutDataIsNoData(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/api/charts/amount", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no_data", errorCode(t, w))
}

func TestPredictionsUnreadableStore(t *testing.T) {
	base, store := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, base, http.MethodPost, "/api/simulate/normal", "").Code)

	bundle, err := artifact.NewLoader(artifact.Options{Dir: filepath.Join("..", "artifact", "testdata")}, zerolog.Nop()).Load()
	require.NoError(t, err)
	s := newServerOver(t, bundle, unreadableStore{PredictionStore: store})

	for _, target := range []string{"/api/predictions", "/api/predictions?limit=0"} {
		w := do(t, s, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, w.Code, target)

		var body struct {
			Predictions []json.RawMessage `json:"predictions"`
			Count       int               `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Zero(t, body.Count, target)
		assert.NotNil(t, body.Predictions, "%s should encode an empty list, not null", target)
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestMetricsRoute(t *testing.T) {
	s, _ := newTestServer(t)
	do(t, s, http.MethodGet, "/healthz", "")
	w := do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fraudguard_http_requests_total")
}
