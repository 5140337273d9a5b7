package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DefaultEventSignature is the event emitted by the counter contract on every cross-chain increment
const DefaultEventSignature = "CounterIncremented(uint256,address,uint256)"

// Config maps to the config.toml file for the watcher
type Config struct {
	ChainID                 uint64 `toml:"ChainID"`
	ContractAddress         string `toml:"ContractAddress"`
	EventSignature          string `toml:"EventSignature"`
	QueryIntervalInSeconds  uint32 `toml:"QueryIntervalInSeconds"`
	RequestTimeoutInSeconds uint32 `toml:"RequestTimeoutInSeconds"`
	ReportEndpoint          string `toml:"ReportEndpoint"`
	ReportTimeoutInSeconds  uint32 `toml:"ReportTimeoutInSeconds"`
	StartBlock              uint64 `toml:"StartBlock"`
	MaxBlockRange           uint64 `toml:"MaxBlockRange"`
	DedupCapacity           int    `toml:"DedupCapacity"`
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

	if len(cfg.EventSignature) == 0 {
		cfg.EventSignature = DefaultEventSignature
	}

	return &cfg, nil
}
