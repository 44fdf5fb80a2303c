package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexc24/tictactoe/internal/api"
	"github.com/lexc24/tictactoe/internal/factory"
	"github.com/lexc24/tictactoe/internal/model"
	"github.com/lexc24/tictactoe/internal/testutil"
)

// testServer wires the router against the in-memory stack
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T, rateLimit float64, rateBurst int) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Store.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:     testutil.NopLogger(),
		Controller: app.Controller,
		WSHandler:  app.WSHandler,
		RateLimit:  rateLimit,
		RateBurst:  rateBurst,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Accept", "application/json")

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, 0, 0)

	rr := ts.request(http.MethodGet, "/api/v1/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestQueueEmpty(t *testing.T) {
	ts := newTestServer(t, 0, 0)

	rr := ts.request(http.MethodGet, "/api/v1/queue")
	require.Equal(t, http.StatusOK, rr.Code)

	var snapshot model.QueueSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snapshot))
	assert.Empty(t, snapshot.Participants)
}

func TestQueueReflectsParticipants(t *testing.T) {
	ts := newTestServer(t, 0, 0)
	ctx := context.Background()

	_, err := ts.app.Controller.OnAdmit(ctx, "p1")
	require.NoError(t, err)
	_, _, err = ts.app.Controller.OnQueueRequest(ctx, "p1")
	require.NoError(t, err)

	rr := ts.request(http.MethodGet, "/api/v1/queue")
	require.Equal(t, http.StatusOK, rr.Code)

	var snapshot model.QueueSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snapshot))
	require.Len(t, snapshot.Participants, 1)
	assert.Equal(t, model.ParticipantID("p1"), snapshot.Participants[0].ID)
	assert.Equal(t, model.StatusActive, snapshot.Participants[0].Status)
	assert.Equal(t, model.MarkerA, snapshot.Participants[0].Marker)
}

func TestUnknownRouteReturns404(t *testing.T) {
	ts := newTestServer(t, 0, 0)

	rr := ts.request(http.MethodGet, "/api/v1/bogus")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRateLimitRejectsBursts(t *testing.T) {
	ts := newTestServer(t, 1, 2)

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		rr := ts.request(http.MethodGet, "/api/v1/health")
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Contains(t, codes, http.StatusTooManyRequests)
}
