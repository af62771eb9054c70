package meteo

import (
	"fmt"
	"time"
)

// Position represents coordinates for a forecast request.
type Position struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Validate checks that the coordinates are within acceptable ranges.
func (p Position) Validate() error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %f", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %f", p.Longitude)
	}
	return nil
}

// HourlySample is one normalized hourly forecast entry. Samples are
// ordered by Time ascending, one per hour, with Time expressed in the
// zone the client was configured with.
type HourlySample struct {
	Time             time.Time
	TemperatureC     float64
	PrecipitationMM  float64
	WindSpeedKmh     float64
	WindDirectionDeg *float64
	WeatherCode      *int
}

// DailySummary is the rollup of one local calendar day of hourly samples.
// WindPeakMS is already converted from km/h to m/s.
type DailySummary struct {
	Date            time.Time
	TempMinC        float64
	TempMaxC        float64
	PrecipitationMM float64
	WindPeakMS      float64
}

// forecastResponse mirrors the Open-Meteo JSON layout: parallel arrays
// under "hourly", one entry per hour each.
type forecastResponse struct {
	Hourly *hourlyPayload `json:"hourly"`
}

type hourlyPayload struct {
	Time          []string  `json:"time"`
	Temperature   []float64 `json:"temperature_2m"`
	Precipitation []float64 `json:"precipitation"`
	WindSpeed     []float64 `json:"windspeed_10m"`
	WindDirection []float64 `json:"winddirection_10m"`
	WeatherCode   []int     `json:"weathercode"`
}
