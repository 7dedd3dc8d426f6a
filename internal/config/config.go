package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cashm/note-sorter/internal/domain"
)

// Config holds the engine's runtime configuration.
type Config struct {
	// Actuator serial link. Ports are tried in order; the first that opens
	// becomes the live endpoint for the process lifetime.
	ActuatorPorts []string `json:"actuator_ports"`
	ActuatorBaud  int      `json:"actuator_baud"`

	// Coin tally serial channel.
	CoinPort string `json:"coin_port"`
	CoinBaud int    `json:"coin_baud"`

	DBPath string `json:"db_path"`

	// Classifier HTTP boundary.
	ClassifierURL string `json:"classifier_url"`

	// Still-capture command. {path} in args is replaced with the output
	// file; if absent, the path is appended as the last argument.
	CaptureCommand string   `json:"capture_command"`
	CaptureArgs    []string `json:"capture_args"`
	CaptureDir     string   `json:"capture_dir"`

	// Optional dashboard endpoint that mirrors the local sorting journal.
	TelemetryURL string `json:"telemetry_url"`

	ListenAddr string `json:"listen_addr"`

	PollIntervalMs int `json:"poll_interval_ms"`
	DebounceMs     int `json:"debounce_ms"`
}

// Load reads a JSON config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.ActuatorPorts) == 0 {
		c.ActuatorPorts = []string{"/dev/ttyACM0", "/dev/ttyUSB0", "/dev/ttyACM1"}
	}
	if c.ActuatorBaud == 0 {
		c.ActuatorBaud = 115200
	}
	if c.CoinPort == "" {
		c.CoinPort = "/dev/ttyACM1"
	}
	if c.CoinBaud == 0 {
		c.CoinBaud = 9600
	}
	if c.CaptureCommand == "" {
		c.CaptureCommand = "libcamera-still"
	}
	if c.CaptureDir == "" {
		c.CaptureDir = "sorting_images"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":9810"
	}
	if c.PollIntervalMs == 0 {
		c.PollIntervalMs = 100
	}
	if c.DebounceMs == 0 {
		c.DebounceMs = 300
	}
}

func (c *Config) validate() error {
	var problems []string

	if c.DBPath == "" {
		problems = append(problems, "db_path is required")
	}
	if c.ClassifierURL == "" {
		problems = append(problems, "classifier_url is required")
	}
	if c.ActuatorBaud < 0 || c.CoinBaud < 0 {
		problems = append(problems, "baud rates must be positive")
	}

	if len(problems) > 0 {
		return &domain.EngineError{
			Code:    domain.ErrConfigInvalid.Code,
			Message: fmt.Sprintf("%s: %v", domain.ErrConfigInvalid.Message, problems),
		}
	}
	return nil
}
