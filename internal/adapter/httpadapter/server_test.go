package httpadapter_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daytrace/pipeline/internal/adapter/httpadapter"
)

type fakeReadiness struct {
	err error
}

func (f fakeReadiness) CheckReadiness(context.Context) error {
	return f.err
}

func TestServer_Healthz(t *testing.T) {
	srv := httpadapter.NewServer(":0", fakeReadiness{}, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Readyz_Ready(t *testing.T) {
	srv := httpadapter.NewServer(":0", fakeReadiness{}, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Readyz_NotReady(t *testing.T) {
	srv := httpadapter.NewServer(":0", fakeReadiness{err: errors.New("not ready yet")}, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	srv := httpadapter.NewServer(":0", fakeReadiness{}, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_StartAndShutdown(t *testing.T) {
	srv := httpadapter.NewServer("127.0.0.1:0", fakeReadiness{}, slog.Default())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	require.NoError(t, srv.Shutdown(context.Background()))
	err := <-errCh
	assert.ErrorIs(t, err, http.ErrServerClosed)
}
