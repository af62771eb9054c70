package meteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

const defaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// hourlyFields is the fixed set of per-hour variables requested from the API.
const hourlyFields = "temperature_2m,precipitation,windspeed_10m,winddirection_10m,weathercode"

// Client fetches hourly forecasts from the Open-Meteo API and normalizes
// them into HourlySample values tagged with the configured time zone.
type Client struct {
	httpClient *http.Client
	baseURL    string
	zoneName   string
	location   *time.Location
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a client for the given IANA time zone name. All
// returned sample timestamps are expressed in that zone.
func NewClient(zoneName string) (*Client, error) {
	return NewClientWithHTTPClient(&http.Client{Timeout: 30 * time.Second}, zoneName)
}

// NewClientWithHTTPClient creates a client with a custom HTTP client. The
// HTTP client's timeout bounds the upstream call; a timeout surfaces as
// an UnavailableError.
func NewClientWithHTTPClient(httpClient *http.Client, zoneName string) (*Client, error) {
	location, err := time.LoadLocation(zoneName)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", zoneName, err)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		zoneName:   zoneName,
		location:   location,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "open-meteo",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}, nil
}

// SetBaseURL sets the base URL for the API (useful for testing).
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// Location returns the time zone the client tags samples with.
func (c *Client) Location() *time.Location {
	return c.location
}

// FetchHourly retrieves hourly samples covering at least horizonHours from
// now. It requests enough whole forecast days to absorb time zone boundary
// slack. Transport failures return an UnavailableError; malformed payloads
// return an InvalidResponseError.
func (c *Client) FetchHourly(ctx context.Context, pos Position, horizonHours int) ([]HourlySample, error) {
	if horizonHours <= 0 {
		return nil, fmt.Errorf("horizonHours must be positive, got %d", horizonHours)
	}
	if err := pos.Validate(); err != nil {
		return nil, err
	}

	reqURL, err := c.buildURL(pos, horizonHours)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var payload forecastResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &InvalidResponseError{Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}

	return c.normalize(payload.Hourly)
}

// get performs the HTTP request through the circuit breaker and returns
// the response body.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if reqErr != nil {
			return nil, reqErr
		}
		req.Header.Set("Accept", "application/json")

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, readErr
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &UnavailableError{Op: "circuit breaker", Err: err}
		}
		return nil, &UnavailableError{Op: "request", Err: err}
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, &UnavailableError{Op: "request", Err: fmt.Errorf("unexpected breaker result type")}
	}
	return body, nil
}

// normalize validates the parallel arrays and converts them into ordered
// HourlySample values.
func (c *Client) normalize(hourly *hourlyPayload) ([]HourlySample, error) {
	if hourly == nil {
		return nil, &InvalidResponseError{Reason: "missing hourly block"}
	}

	n := len(hourly.Time)
	if n == 0 {
		return nil, &InvalidResponseError{Reason: "empty hourly time array"}
	}
	if len(hourly.Temperature) != n || len(hourly.Precipitation) != n ||
		len(hourly.WindSpeed) != n || len(hourly.WindDirection) != n ||
		len(hourly.WeatherCode) != n {
		return nil, &InvalidResponseError{Reason: "mismatched hourly array lengths"}
	}

	samples := make([]HourlySample, 0, n)
	for i := 0; i < n; i++ {
		ts, err := time.ParseInLocation("2006-01-02T15:04", hourly.Time[i], c.location)
		if err != nil {
			return nil, &InvalidResponseError{Reason: fmt.Sprintf("unparseable timestamp %q", hourly.Time[i])}
		}

		direction := hourly.WindDirection[i]
		code := hourly.WeatherCode[i]
		samples = append(samples, HourlySample{
			Time:             ts,
			TemperatureC:     hourly.Temperature[i],
			PrecipitationMM:  hourly.Precipitation[i],
			WindSpeedKmh:     hourly.WindSpeed[i],
			WindDirectionDeg: &direction,
			WeatherCode:      &code,
		})
	}

	return samples, nil
}

// buildURL constructs the API URL with query parameters. Requested
// coverage is ceil(horizonHours/24)+1 whole days so the window never runs
// past the fetched series at a time zone boundary.
func (c *Client) buildURL(pos Position, horizonHours int) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}

	days := (horizonHours+23)/24 + 1

	query := u.Query()
	query.Set("latitude", formatFloat(pos.Latitude))
	query.Set("longitude", formatFloat(pos.Longitude))
	query.Set("hourly", hourlyFields)
	query.Set("timezone", c.zoneName)
	query.Set("forecast_days", strconv.Itoa(days))

	u.RawQuery = query.Encode()
	return u.String(), nil
}

// formatFloat formats a float64 to a string with appropriate precision.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
