// Package weatherapi adapts WeatherAPI.com current conditions onto the
// pipeline's metric model.
package weatherapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"GeoTradeAI/internal/domain"
	"GeoTradeAI/internal/ports"
)

// Client fetches current weather for a location.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ ports.WeatherSource = (*Client)(nil)

// NewClient builds the adapter.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type currentResponse struct {
	Location struct {
		Name string `json:"name"`
	} `json:"location"`
	Current struct {
		Condition struct {
			Text string `json:"text"`
		} `json:"condition"`
		TempC    float64 `json:"temp_c"`
		WindKPH  float64 `json:"wind_kph"`
		GustKPH  float64 `json:"gust_kph"`
		PrecipMM float64 `json:"precip_mm"`
		VisKM    float64 `json:"vis_km"`
	} `json:"current"`
}

// Fetch returns current metrics for the location. Wind speeds arrive in km/h
// and are converted to m/s for the evaluator thresholds.
func (c *Client) Fetch(ctx context.Context, location string) (domain.WeatherMetrics, error) {
	if c.apiKey == "" {
		return domain.WeatherMetrics{}, fmt.Errorf("%w: weather api key not configured", domain.ErrProviderUnavailable)
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", location)
	params.Set("aqi", "no")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.WeatherMetrics{}, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.WeatherMetrics{}, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.WeatherMetrics{}, fmt.Errorf("%w: unexpected status %s", domain.ErrProviderUnavailable, resp.Status)
	}

	var payload currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.WeatherMetrics{}, fmt.Errorf("decode response: %w", err)
	}

	return domain.WeatherMetrics{
		Location:      payload.Location.Name,
		Condition:     payload.Current.Condition.Text,
		WindSpeed:     payload.Current.WindKPH / 3.6,
		WindGust:      payload.Current.GustKPH / 3.6,
		Precipitation: payload.Current.PrecipMM,
		Temperature:   payload.Current.TempC,
		Visibility:    payload.Current.VisKM,
	}, nil
}
