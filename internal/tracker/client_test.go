package tracker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_BatchUpdate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var payload batchUpdateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Updates, 2)
		assert.Equal(t, "device-1", payload.Updates[0].DeviceID)
		assert.Equal(t, [2]float64{139.767, 35.681}, payload.Updates[0].Position)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "my-tracker", 5*time.Second, discardLogger())
	err := c.BatchUpdate(context.Background(), []Update{
		{DeviceID: "device-1", Lat: 35.681, Lon: 139.767, SampleTime: time.Unix(0, 0)},
		{DeviceID: "device-1", Lat: 35.69, Lon: 139.77, SampleTime: time.Unix(60, 0)},
	})
	require.NoError(t, err)
}

func TestClient_BatchUpdate_EmptyIsNoop(t *testing.T) {
	c := NewClient("http://unused.invalid", "my-tracker", 5*time.Second, discardLogger())
	err := c.BatchUpdate(context.Background(), nil)
	require.NoError(t, err)
}

func TestClient_BatchUpdate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "my-tracker", 5*time.Second, discardLogger())
	err := c.BatchUpdate(context.Background(), []Update{{DeviceID: "d", Lat: 1, Lon: 1, SampleTime: time.Unix(0, 0)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_BatchUpdate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "my-tracker", 50*time.Millisecond, discardLogger())
	err := c.BatchUpdate(context.Background(), []Update{{DeviceID: "d", Lat: 1, Lon: 1, SampleTime: time.Unix(0, 0)}})
	require.Error(t, err)
}
