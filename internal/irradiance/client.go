package irradiance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
)

// FetchTimeout bounds one forecast request.
var FetchTimeout = 10 * time.Second

// Sample is one hour of irradiance components, W/m², clamped to >= 0.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	GHI       float64   `json:"ghi"`
	DHI       float64   `json:"dhi"`
	DNI       float64   `json:"dni"`
}

// Client fetches hourly irradiance forecasts from an Open-Meteo-compatible
// endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the given forecast endpoint.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: FetchTimeout},
	}
}

// hourlyPayload mirrors the provider's hourly response arrays.
type hourlyPayload struct {
	Hourly struct {
		Time                   []string  `json:"time"`
		ShortwaveRadiation     []float64 `json:"shortwave_radiation"`
		DiffuseRadiation       []float64 `json:"diffuse_radiation"`
		DirectNormalIrradiance []float64 `json:"direct_normal_irradiance"`
	} `json:"hourly"`
}

// Fetch retrieves the hourly irradiance triplets for a window and location.
// Transport errors and 5xx responses are retried with a short backoff; any
// remaining failure is returned as an error so callers can distinguish a
// fetch failure from a legitimately empty forecast.
func (c *Client) Fetch(ctx context.Context, lat, lon float64, start, end time.Time) ([]Sample, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", lat))
	params.Set("longitude", fmt.Sprintf("%.4f", lon))
	params.Set("hourly", "shortwave_radiation,diffuse_radiation,direct_normal_irradiance")
	params.Set("start_date", start.Format("2006-01-02"))
	params.Set("end_date", end.Format("2006-01-02"))
	params.Set("timezone", "UTC")

	reqURL := c.baseURL + "?" + params.Encode()

	var body []byte
	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("forecast request: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("forecast returned status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("forecast returned status %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("read forecast body: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return decodeHourly(body)
}

func decodeHourly(body []byte) ([]Sample, error) {
	var payload hourlyPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}

	h := payload.Hourly
	out := make([]Sample, 0, len(h.Time))
	for i, raw := range h.Time {
		ts, err := time.Parse("2006-01-02T15:04", raw)
		if err != nil {
			continue
		}
		s := Sample{Timestamp: ts.UTC()}
		if i < len(h.ShortwaveRadiation) {
			s.GHI = clampNonNegative(h.ShortwaveRadiation[i])
		}
		if i < len(h.DiffuseRadiation) {
			s.DHI = clampNonNegative(h.DiffuseRadiation[i])
		}
		if i < len(h.DirectNormalIrradiance) {
			s.DNI = clampNonNegative(h.DirectNormalIrradiance[i])
		}
		out = append(out, s)
	}
	return out, nil
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
