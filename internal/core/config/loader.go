package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/ndhoang/contractwatch/internal/core/domain"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	for i, ch := range cfg.Chains {
		if ch.ChainID == 0 {
			return nil, fmt.Errorf("chain %d: missing id", i)
		}
		if len(ch.RPCs) == 0 {
			return nil, fmt.Errorf("chain %d (%s): no rpc endpoints", ch.ChainID, ch.Name)
		}
	}

	return &cfg, nil
}

// Descriptors returns the configured chain set, falling back to the default
// registry when the config names no chains.
func (c *AppConfig) Descriptors() []domain.ChainDescriptor {
	if len(c.Chains) == 0 {
		out := make([]domain.ChainDescriptor, len(domain.DefaultChains))
		for i, ch := range domain.DefaultChains {
			rpcs := make([]string, len(ch.RPCs))
			for j, rpc := range ch.RPCs {
				rpcs[j] = os.ExpandEnv(rpc)
			}
			ch.RPCs = rpcs
			out[i] = ch
		}
		return out
	}
	out := make([]domain.ChainDescriptor, len(c.Chains))
	for i, ch := range c.Chains {
		out[i] = ch.Descriptor()
	}
	return out
}
