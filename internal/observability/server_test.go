// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package observability

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec, rec.Body.String()
}

func TestServer_MetricsEndpoint(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil, nil)
	server.Metrics().RecordAccessDecision("allow")
	server.Metrics().RecordLogin("login", "success")

	rec, body := get(t, server.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "go_")
	assert.Contains(t, body, "process_")
	assert.Contains(t, body, `ttsfeed_access_decisions_total{decision="allow"} 1`)
	assert.Contains(t, body, `ttsfeed_login_attempts_total{intent="login",outcome="success"} 1`)
	assert.Contains(t, body, "ttsfeed_sessions_created_total 1")
}

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordAccessDecision("forbidden")
	m.RecordAccessDecision("forbidden")
	m.RecordLogin("signup", "invalid")

	assert.InDelta(t, 2, testutil.ToFloat64(m.AccessDecisions.WithLabelValues("forbidden")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Logins.WithLabelValues("signup", "invalid")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.SessionsCreated), 0)
}

func TestServer_Probes(t *testing.T) {
	tests := []struct {
		name      string
		readiness ReadinessChecker
		path      string
		want      int
		wantBody  string
	}{
		{name: "liveness", path: "/healthz/liveness", want: http.StatusOK, wantBody: "ok\n"},
		{name: "readiness without checker", path: "/healthz/readiness", want: http.StatusOK, wantBody: "ok\n"},
		{
			name:      "ready",
			readiness: func(context.Context) error { return nil },
			path:      "/healthz/readiness",
			want:      http.StatusOK,
			wantBody:  "ok\n",
		},
		{
			name:      "store down",
			readiness: func(context.Context) error { return errors.New("redis: connection refused") },
			path:      "/healthz/readiness",
			want:      http.StatusServiceUnavailable,
			wantBody:  "not ready\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := NewServer("127.0.0.1:0", tt.readiness, nil)
			rec, body := get(t, server.Handler(), tt.path)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestServer_ReadinessHasDeadline(t *testing.T) {
	var hadDeadline bool
	server := NewServer("127.0.0.1:0", func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		return nil
	}, nil)

	get(t, server.Handler(), "/healthz/readiness")
	assert.True(t, hadDeadline)
}

func TestServer_StartStop(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil, nil)
	assert.Empty(t, server.Addr())

	errCh, err := server.Start()
	require.NoError(t, err)

	resp, err := http.Get("http://" + server.Addr() + "/healthz/liveness")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "ok\n", string(body))

	_, err = server.Start()
	assert.Error(t, err, "second start should fail")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))
	require.NoError(t, server.Stop(ctx), "stop is idempotent")

	select {
	case err, ok := <-errCh:
		assert.False(t, ok, "channel should close without an error, got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("error channel not closed after stop")
	}

	http.DefaultClient.CloseIdleConnections()
}

func TestServer_StartFailsOnBusyPort(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	server := NewServer(l.Addr().String(), nil, nil)
	_, err = server.Start()
	require.Error(t, err)

	// A failed start leaves the server startable.
	assert.NoError(t, server.Stop(context.Background()))
}
