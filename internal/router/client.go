package router

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/daytrace/pipeline/internal/domain"
)

// Client implements Calculator against a route-calculator named resource,
// requesting leg geometry the same way the geocode client requests a place
// index result: a GET with query parameters, decoded into a closed
// response shape.
type Client struct {
	calculatorName string
	httpClient     *http.Client
	baseURL        string
	logger         *slog.Logger
}

// NewClient creates a route calculator client. baseURL is the calculator's
// route endpoint.
func NewClient(baseURL, calculatorName string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		calculatorName: calculatorName,
		httpClient:     &http.Client{Timeout: timeout},
		baseURL:        baseURL,
		logger:         logger,
	}
}

func (c *Client) CalculateRoute(ctx context.Context, fromLat, fromLon, toLat, toLon float64) (*domain.RouteResult, error) {
	u := fmt.Sprintf("%s/%s/calculate/route", c.baseURL, url.PathEscape(c.calculatorName))
	params := url.Values{
		"DeparturePosition":   {fmt.Sprintf("%.6f,%.6f", fromLon, fromLat)},
		"DestinationPosition": {fmt.Sprintf("%.6f,%.6f", toLon, toLat)},
		"IncludeLegGeometry":  {"true"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create route request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("route request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("route API error: status %d: %s", resp.StatusCode, body)
	}

	var out routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode route response: %w", err)
	}

	if len(out.Legs) == 0 || len(out.Legs[0].Geometry.LineString) == 0 {
		return nil, nil
	}

	var coords [][2]float64
	for _, pair := range out.Legs[0].Geometry.LineString {
		if len(pair) != 2 {
			// Never taken: each point decodes into a fixed [lon, lat] pair,
			// so nothing is dropped here. A non-numeric point fails the
			// whole decode above, a longer array keeps its first two
			// numbers, and a shorter one is zero-filled.
			continue
		}
		coords = append(coords, [2]float64{pair[0], pair[1]})
	}
	if len(coords) == 0 {
		return nil, nil
	}

	result := &domain.RouteResult{Coordinates: coords}
	if out.Summary.Distance > 0 {
		d := out.Summary.Distance
		result.DistanceKm = &d
	}
	return result, nil
}

type routeResponse struct {
	Summary struct {
		Distance float64 `json:"Distance"`
	} `json:"Summary"`
	Legs []struct {
		Geometry struct {
			LineString [][2]float64 `json:"LineString"`
		} `json:"Geometry"`
	} `json:"Legs"`
}
