package router

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

func TestClient_CalculateRoute_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("IncludeLegGeometry"))
		assert.NotEmpty(t, r.URL.Query().Get("DeparturePosition"))
		assert.NotEmpty(t, r.URL.Query().Get("DestinationPosition"))

		resp := routeResponse{}
		resp.Summary.Distance = 12.5
		resp.Legs = []struct {
			Geometry struct {
				LineString [][2]float64 `json:"LineString"`
			} `json:"Geometry"`
		}{
			{Geometry: struct {
				LineString [][2]float64 `json:"LineString"`
			}{LineString: [][2]float64{{139.767, 35.681}, {139.77, 35.69}}}},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "my-calculator", 5*time.Second, discardLogger())
	result, err := c.CalculateRoute(context.Background(), 35.681, 139.767, 35.69, 139.77)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotNil(t, result.DistanceKm)
	assert.Equal(t, 12.5, *result.DistanceKm)
	assert.Equal(t, [][2]float64{{139.767, 35.681}, {139.77, 35.69}}, result.Coordinates)
}

func TestClient_CalculateRoute_NoLegs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(routeResponse{}))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "my-calculator", 5*time.Second, discardLogger())
	result, err := c.CalculateRoute(context.Background(), 0, 0, 1, 1)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestClient_CalculateRoute_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad request"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "my-calculator", 5*time.Second, discardLogger())
	_, err := c.CalculateRoute(context.Background(), 0, 0, 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestClient_CalculateRoute_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "my-calculator", 50*time.Millisecond, discardLogger())
	_, err := c.CalculateRoute(context.Background(), 0, 0, 1, 1)
	require.Error(t, err)
}
