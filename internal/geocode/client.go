package geocode

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

// Client implements Geocoder against an Amazon Location Service-shaped
// place index: Position is [lon, lat], MaxResults is always sent as 1
// (Config.GeocodeMaxResults is not passed to the client), and Language
// selects the label locale. Adapted from the same
// request/response/error-handling idiom as this codebase's Mapbox
// geocoding client, restructured around the closed placeInfo key set
// instead of Mapbox's feature shape.
type Client struct {
	indexName  string
	language   string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a reverse-geocoding client against a named place
// index. baseURL is the place-index search endpoint
// (e.g. https://places.geo.<region>.amazonaws.com/places/v0/indexes).
func NewClient(baseURL, indexName, language string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		indexName:  indexName,
		language:   language,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (*Result, error) {
	u := fmt.Sprintf("%s/%s/search/position", c.baseURL, url.PathEscape(c.indexName))
	params := url.Values{
		"Position":   {fmt.Sprintf("%.6f,%.6f", lon, lat)},
		"MaxResults": {"1"},
		"Language":   {c.language},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create reverse-geocode request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse-geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("reverse-geocode API error: status %d: %s", resp.StatusCode, body)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode reverse-geocode response: %w", err)
	}

	if len(out.Results) == 0 {
		return nil, nil
	}

	place := out.Results[0].Place
	result := &Result{
		Label: place.Label,
		PlaceInfo: domainPlaceInfo(place),
	}
	return result, nil
}

type searchResponse struct {
	Results []struct {
		Place place `json:"Place"`
	} `json:"Results"`
}

type place struct {
	Label        string `json:"Label"`
	Country      string `json:"Country"`
	Region       string `json:"Region"`
	SubRegion    string `json:"SubRegion"`
	Municipality string `json:"Municipality"`
	Neighborhood string `json:"Neighborhood"`
	PostalCode   string `json:"PostalCode"`
	Street       string `json:"Street"`
	Name         string `json:"Name"`
}

func domainPlaceInfo(p place) domain.PlaceInfo {
	return domain.PlaceInfo{
		Country:      p.Country,
		Region:       p.Region,
		Subregion:    p.SubRegion,
		Municipality: p.Municipality,
		Neighborhood: p.Neighborhood,
		PostalCode:   p.PostalCode,
		Street:       p.Street,
		Name:         p.Name,
	}
}
