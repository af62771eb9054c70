// Package main provides the meshwx bot entry point and CLI interface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/meshwx-org/meshwx/bot"
	"github.com/meshwx-org/meshwx/meteo"
	"github.com/meshwx-org/meshwx/radio"
)

func main() {
	// Command line flags
	var (
		configFile = flag.String("config", "", "Configuration file path (defaults apply when omitted)")
		mode       = flag.String("mode", "", "Connection mode: serial or network (overrides config)")
		host       = flag.String("host", "", "Radio gateway host for network mode (overrides config)")
		device     = flag.String("device", "", "Serial device path for serial mode (overrides config)")
		timezone   = flag.String("timezone", "", "IANA time zone for forecasts (overrides config)")
		help       = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	config, err := loadConfig(*configFile)
	if err != nil {
		fmt.Println("Error loading configuration:", err)
		return
	}

	// Flag overrides beat both file and environment.
	if *mode != "" {
		config.ConnectionMode = *mode
	}
	if *host != "" {
		config.NetworkHost = *host
	}
	if *device != "" {
		config.SerialDevice = *device
	}
	if *timezone != "" {
		config.TimeZone = *timezone
	}
	if err := config.Validate(); err != nil {
		fmt.Println("Invalid configuration:", err)
		return
	}

	fmt.Printf("Starting meshwx with the following configuration:\n")
	fmt.Printf("  Connection: %s\n", color.CyanString(config.ConnectionMode))
	if config.ConnectionMode == bot.ConnectionNetwork {
		fmt.Printf("  Gateway: %s\n", color.YellowString(config.NetworkHost))
	} else {
		fmt.Printf("  Device: %s @ %d baud\n", color.YellowString(config.SerialDevice), config.SerialBaudRate)
	}
	fmt.Printf("  Time Zone: %s\n", config.TimeZone)
	fmt.Printf("  Default Horizon: %d days\n", config.ForecastDefaultDays)
	fmt.Printf("  Payload Budget: %d bytes\n", config.MaxMessageBytes)
	fmt.Printf("  Send Interval: %s\n", config.SendInterval)
	fmt.Println()

	// Create logger
	logger := log.New(os.Stdout, "[BOT] ", log.LstdFlags)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider, err := meteo.NewClientWithHTTPClient(&http.Client{Timeout: config.APITimeout}, config.TimeZone)
	if err != nil {
		fmt.Println("Error creating weather client:", err)
		return
	}

	transport, err := openTransport(ctx, config, logger)
	if err != nil {
		fmt.Println("Error connecting to radio:", err)
		return
	}

	weatherBot := bot.New(config, transport, provider, logger)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start the bot in a goroutine
	go func() {
		if err := weatherBot.Run(ctx); err != nil {
			if err != context.Canceled {
				logger.Printf("Bot error: %v", err)
			}
		}
	}()

	logger.Printf("Bot started. Press Ctrl+C to stop...")

	// Wait for shutdown signal
	<-sigChan
	logger.Printf("Shutdown signal received, stopping bot...")

	// Cancel context so an in-flight dispatch stops after its current send
	cancel()

	if err := transport.Close(); err != nil {
		logger.Printf("Error closing radio link: %v", err)
	}

	logger.Printf("Bot stopped successfully")
}

// loadConfig reads the config file when one is given, otherwise starts
// from defaults plus environment overrides.
func loadConfig(path string) (*bot.Config, error) {
	if path != "" {
		return bot.LoadConfig(path)
	}
	config := bot.DefaultConfig()
	config.ApplyEnv()
	return config, nil
}

// openTransport connects the configured radio link.
func openTransport(ctx context.Context, config *bot.Config, logger *log.Logger) (radio.Transport, error) {
	if config.ConnectionMode == bot.ConnectionNetwork {
		return radio.DialNetwork(ctx, config.NetworkHost, logger)
	}
	return radio.OpenSerial(config.SerialDevice, config.SerialBaudRate, logger)
}

func showHelp() {
	fmt.Println("meshwx - Weather forecast chat bot for mesh radio networks")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Listens for text commands on a mesh radio channel and replies with")
	fmt.Println("  Open-Meteo forecasts. Commands accept coordinates and a horizon in")
	fmt.Println("  hours or days; without coordinates the sender's last-known position")
	fmt.Println("  is used.")
	fmt.Println()
	fmt.Println("  Commands (multilingual keyword variants accepted):")
	fmt.Println("  - #прогноз / #weather [lat lon] [Nд | Nч]  - forecast")
	fmt.Println("  - #помощь / #help                          - usage help")
	fmt.Println("  - #тест / #test                            - self-test echo")
	fmt.Println("  - #пинг / #ping                            - ping reply")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  meshwx [OPTIONS]")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Serial radio on the default device")
	fmt.Println("  meshwx")
	fmt.Println()
	fmt.Println("  # Custom configuration")
	fmt.Println("  meshwx --config=config.json")
	fmt.Println()
	fmt.Println("  # Network gateway")
	fmt.Println("  meshwx -mode=network -host=radio.local:8080")
	fmt.Println()
	fmt.Println("  # Different serial device and time zone")
	fmt.Println("  meshwx -device=/dev/ttyACM0 -timezone=Asia/Shanghai")
}
