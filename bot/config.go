package bot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
)

// Connection modes for reaching the radio gateway.
const (
	ConnectionSerial  = "serial"
	ConnectionNetwork = "network"
)

// Config represents the configuration for the bot.
type Config struct {
	// Radio link settings
	ConnectionMode string `json:"connection_mode"`  // "serial" or "network"
	NetworkHost    string `json:"network_host"`     // Gateway host or ws:// URL (network mode)
	SerialDevice   string `json:"serial_device"`    // Serial device path (serial mode)
	SerialBaudRate int    `json:"serial_baud_rate"` // Serial line speed

	// Forecast settings
	TimeZone            string        `json:"time_zone"`             // IANA zone for forecast timestamps
	ForecastDefaultDays int           `json:"forecast_default_days"` // Horizon when a command names none
	APITimeout          time.Duration `json:"api_timeout"`           // Bound on one weather API call

	// Outbound message settings
	MaxMessageBytes int           `json:"max_message_bytes"` // Transport payload budget per message
	SendInterval    time.Duration `json:"send_interval"`     // Minimum delay between consecutive sends
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		ConnectionMode:      ConnectionSerial,
		SerialDevice:        "/dev/ttyUSB0",
		SerialBaudRate:      115200,
		TimeZone:            "Europe/Moscow",
		ForecastDefaultDays: 3,
		APITimeout:          30 * time.Second,
		MaxMessageBytes:     200,
		SendInterval:        5 * time.Second,
	}
}

// LoadConfig loads configuration from a JSON file, then applies
// environment overrides.
func LoadConfig(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	config := DefaultConfig()

	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config JSON: %w", err)
	}

	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// ApplyEnv overlays deployment knobs from the environment, loading a
// .env file first if one is present.
func (c *Config) ApplyEnv() {
	// A missing .env file is the normal case.
	_ = godotenv.Load()

	if v := os.Getenv("MESHWX_CONNECTION_MODE"); v != "" {
		c.ConnectionMode = v
	}
	if v := os.Getenv("MESHWX_NETWORK_HOST"); v != "" {
		c.NetworkHost = v
	}
	if v := os.Getenv("MESHWX_SERIAL_DEVICE"); v != "" {
		c.SerialDevice = v
	}
	if v := os.Getenv("MESHWX_SERIAL_BAUD_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SerialBaudRate = n
		}
	}
	if v := os.Getenv("MESHWX_TIME_ZONE"); v != "" {
		c.TimeZone = v
	}
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	switch c.ConnectionMode {
	case ConnectionSerial:
		if c.SerialDevice == "" {
			return fmt.Errorf("serial_device cannot be empty in serial mode")
		}
		if c.SerialBaudRate <= 0 {
			return fmt.Errorf("serial_baud_rate must be greater than 0, got: %d", c.SerialBaudRate)
		}
	case ConnectionNetwork:
		if c.NetworkHost == "" {
			return fmt.Errorf("network_host cannot be empty in network mode")
		}
	default:
		return fmt.Errorf("invalid connection_mode: %s, must be one of: serial, network", c.ConnectionMode)
	}

	if c.TimeZone == "" {
		return fmt.Errorf("time_zone cannot be empty")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid time_zone %q: %w", c.TimeZone, err)
	}

	if c.ForecastDefaultDays <= 0 {
		return fmt.Errorf("forecast_default_days must be greater than 0, got: %d", c.ForecastDefaultDays)
	}

	if c.APITimeout <= 0 {
		return fmt.Errorf("api_timeout must be greater than 0, got: %s", c.APITimeout)
	}

	if c.MaxMessageBytes < utf8.UTFMax {
		return fmt.Errorf("max_message_bytes must be at least %d, got: %d", utf8.UTFMax, c.MaxMessageBytes)
	}

	if c.SendInterval < 0 {
		return fmt.Errorf("send_interval must be non-negative, got: %s", c.SendInterval)
	}

	return nil
}

// MarshalJSON implements custom JSON marshaling to handle durations.
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	return json.Marshal(&struct {
		*Alias
		APITimeout   string `json:"api_timeout"`
		SendInterval string `json:"send_interval"`
	}{
		Alias:        (*Alias)(c),
		APITimeout:   c.APITimeout.String(),
		SendInterval: c.SendInterval.String(),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling to handle durations.
func (c *Config) UnmarshalJSON(data []byte) error {
	type Alias Config
	aux := &struct {
		*Alias
		APITimeout   string `json:"api_timeout"`
		SendInterval string `json:"send_interval"`
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if aux.APITimeout != "" {
		if c.APITimeout, err = time.ParseDuration(aux.APITimeout); err != nil {
			return fmt.Errorf("invalid api_timeout: %w", err)
		}
	}
	if aux.SendInterval != "" {
		if c.SendInterval, err = time.ParseDuration(aux.SendInterval); err != nil {
			return fmt.Errorf("invalid send_interval: %w", err)
		}
	}

	return nil
}

// String returns a string representation of the config.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
