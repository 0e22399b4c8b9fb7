package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Client implements Tracker against a named tracking resource, mirroring
// the same request/response idiom as the geocode and router HTTP
// clients: one named resource per deployment, a bounded timeout, and a
// closed response shape.
type Client struct {
	trackerName string
	httpClient  *http.Client
	baseURL     string
	logger      *slog.Logger
}

// NewClient creates a tracker client. baseURL is the tracker service's
// base endpoint (e.g. https://tracking.geo.<region>.amazonaws.com/tracking/v0/trackers).
func NewClient(baseURL, trackerName string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		trackerName: trackerName,
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		logger:      logger,
	}
}

func (c *Client) BatchUpdate(ctx context.Context, updates []Update) error {
	if len(updates) == 0 {
		return nil
	}

	payload := batchUpdateRequest{Updates: make([]positionUpdate, 0, len(updates))}
	for _, u := range updates {
		payload.Updates = append(payload.Updates, positionUpdate{
			DeviceID:   u.DeviceID,
			Position:   [2]float64{u.Lon, u.Lat},
			SampleTime: u.SampleTime.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal tracker batch: %w", err)
	}

	u := fmt.Sprintf("%s/%s/positions", c.baseURL, url.PathEscape(c.trackerName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create tracker request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tracker request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("tracker API error: status %d: %s", resp.StatusCode, errBody)
	}
	return nil
}

type batchUpdateRequest struct {
	Updates []positionUpdate `json:"Updates"`
}

type positionUpdate struct {
	DeviceID   string     `json:"DeviceId"`
	Position   [2]float64 `json:"Position"`
	SampleTime string     `json:"SampleTime"`
}
