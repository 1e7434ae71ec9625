package config

import (
	"github.com/ndhoang/contractwatch/internal/core/domain"
	redisclient "github.com/ndhoang/contractwatch/internal/infra/redis"
	"github.com/ndhoang/contractwatch/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Chains   []ChainConfig      `yaml:"chains"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
	Verifier VerifierConfig     `yaml:"verifier"`
	Fetcher  FetcherConfig      `yaml:"fetcher"`
}

// ServerConfig holds health/metrics server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ChainConfig holds settings for a monitored chain.
type ChainConfig struct {
	ChainID uint64   `yaml:"id"`
	Name    string   `yaml:"name"`
	RPCs    []string `yaml:"rpcs"`
}

// VerifierConfig points at the verification service.
type VerifierConfig struct {
	URL string `yaml:"url"`
}

// FetcherConfig holds source fetcher settings.
type FetcherConfig struct {
	Gateway string `yaml:"gateway"`
}

// Descriptor converts a ChainConfig to its domain descriptor.
func (c ChainConfig) Descriptor() domain.ChainDescriptor {
	return domain.ChainDescriptor{ChainID: c.ChainID, Name: c.Name, RPCs: c.RPCs}
}
