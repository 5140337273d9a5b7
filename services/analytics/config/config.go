package config

import (
	"fmt"
	"os"
	"time"

	"github.com/iulianpascalau/crosschain-analytics/services/analytics/common"
	"github.com/iulianpascalau/crosschain-analytics/services/analytics/metrics"
	"github.com/pelletier/go-toml/v2"
)

const (
	// BackendMemory keeps the ledger in a process-local slice
	BackendMemory = "memory"
	// BackendSQLite keeps the ledger in a sqlite table
	BackendSQLite = "sqlite"
)

// Config maps to the config.toml file for the analytics service
type Config struct {
	ListenAddress string        `toml:"ListenAddress"`
	StaticDir     string        `toml:"StaticDir"`
	Ledger        LedgerConfig  `toml:"Ledger"`
	Metrics       MetricsConfig `toml:"Metrics"`
}

// LedgerConfig defines the ledger backend
type LedgerConfig struct {
	Backend    string `toml:"Backend"`
	Capacity   int    `toml:"Capacity"`
	SQLitePath string `toml:"SQLitePath"`
}

// MetricsConfig defines the aggregation parameters
type MetricsConfig struct {
	Methods       []string       `toml:"Methods"`
	LabelTimezone string         `toml:"LabelTimezone"`
	Windows       []WindowConfig `toml:"Windows"`
}

// WindowConfig defines one queryable time window
type WindowConfig struct {
	Name              string `toml:"Name"`
	DurationInSeconds int    `toml:"DurationInSeconds"`
	BucketInSeconds   int    `toml:"BucketInSeconds"`
}

// LoadConfig parses a TOML file into the Config struct
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filepath, err)
	}

	var cfg Config
	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &cfg, nil
}

// WindowSet builds the configured window set. No configured windows means the 1h, 24h and 7d defaults
func (cfg MetricsConfig) WindowSet() (*metrics.WindowSet, error) {
	if len(cfg.Windows) == 0 {
		return metrics.DefaultWindowSet(), nil
	}

	windows := make([]metrics.TimeWindow, 0, len(cfg.Windows))
	for _, wc := range cfg.Windows {
		w, err := metrics.NewTimeWindow(
			wc.Name,
			time.Duration(wc.DurationInSeconds)*time.Second,
			time.Duration(wc.BucketInSeconds)*time.Second,
		)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}

	return metrics.NewWindowSet(windows...)
}

// MethodSet returns the configured methods or all known methods if none are configured
func (cfg MetricsConfig) MethodSet() ([]common.Method, error) {
	if len(cfg.Methods) == 0 {
		return common.AllMethods(), nil
	}

	methods := make([]common.Method, 0, len(cfg.Methods))
	for _, m := range cfg.Methods {
		method := common.Method(m)
		if !method.IsValid() {
			return nil, fmt.Errorf("unknown method %q in config", m)
		}
		methods = append(methods, method)
	}

	return methods, nil
}

// Location returns the time zone used for histogram labels, UTC when empty
func (cfg MetricsConfig) Location() (*time.Location, error) {
	if len(cfg.LabelTimezone) == 0 {
		return time.UTC, nil
	}

	return time.LoadLocation(cfg.LabelTimezone)
}
