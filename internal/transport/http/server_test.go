package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"sibyl/internal/pkg/circuit"
	"sibyl/internal/store/model"
	"sibyl/internal/strategy"
)

type fakeExecSource struct {
	rows []model.ExecutionLogModel
}

func (f *fakeExecSource) RecentExecutions(ctx context.Context, limit int) ([]model.ExecutionLogModel, error) {
	if limit < len(f.rows) {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

func newTestServer(t *testing.T) (*Server, *strategy.Manager, *circuit.Breaker) {
	t.Helper()
	catalog, err := strategy.NewCatalog("", false)
	require.NoError(t, err)
	manager := strategy.NewManager(catalog, nil, nil, nil, nil, "1h", 200)
	t.Cleanup(manager.Shutdown)
	breaker := circuit.NewBreaker("orders", 5, time.Minute)
	execs := &fakeExecSource{rows: []model.ExecutionLogModel{
		{BatchID: "batch-1", Asset: "BTC", Accepted: true, OrderID: "oid-1"},
	}}
	return NewServer(":0", manager, breaker, execs), manager, breaker
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusReportsBreakerAndStrategies(t *testing.T) {
	srv, manager, breaker := newTestServer(t)
	require.NoError(t, manager.Activate(context.Background(), "BTC/USDT", "rsi", nil))
	breaker.Trip()

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Equal(t, "OPEN", gjson.Get(body, "breaker").String())
	assert.Equal(t, "rsi", gjson.Get(body, "strategies.0.strategy").String())
}

func TestBreakerResetEndpoint(t *testing.T) {
	srv, _, breaker := newTestServer(t)
	breaker.Trip()
	require.Equal(t, circuit.StateOpen, breaker.State())

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/breaker/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, circuit.StateClosed, breaker.State())
	assert.Equal(t, "CLOSED", gjson.Get(rec.Body.String(), "breaker").String())
}

func TestExecutionsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/executions?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "batch-1", gjson.Get(rec.Body.String(), "executions.0.batch_id").String())
}

func TestStrategyStopEndpoint(t *testing.T) {
	srv, manager, _ := newTestServer(t)
	require.NoError(t, manager.Activate(context.Background(), "BTC/USDT", "rsi", nil))

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/strategies/BTCUSDT/stop", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, manager.Status())

	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/strategies/BTCUSDT/stop", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
