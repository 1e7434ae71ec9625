package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Tunables are the runtime pacing and retry knobs of a chain monitor. All of
// them are read from the environment with sane defaults, so a bare process
// works against a public node out of the box.
type Tunables struct {
	BlockPauseFactor        float64
	BlockPauseUpperLimit    time.Duration
	BlockPauseLowerLimit    time.Duration
	ProviderTimeout         time.Duration
	GetBytecodeRetryPause   time.Duration
	GetBlockPause           time.Duration
	InitialGetBytecodeTries int
}

// DefaultTunables returns the built-in defaults.
func DefaultTunables() Tunables {
	return Tunables{
		BlockPauseFactor:        1.1,
		BlockPauseUpperLimit:    30 * time.Second,
		BlockPauseLowerLimit:    500 * time.Millisecond,
		ProviderTimeout:         3 * time.Second,
		GetBytecodeRetryPause:   5 * time.Second,
		GetBlockPause:           10 * time.Second,
		InitialGetBytecodeTries: 3,
	}
}

// TunablesFromEnv reads tunables from the environment, keeping defaults for
// unset variables. Durations are given in milliseconds.
func TunablesFromEnv() (Tunables, error) {
	t := DefaultTunables()

	if v := os.Getenv("BLOCK_PAUSE_FACTOR"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return t, fmt.Errorf("BLOCK_PAUSE_FACTOR: %w", err)
		}
		t.BlockPauseFactor = f
	}
	if t.BlockPauseFactor <= 1 {
		return t, fmt.Errorf("BLOCK_PAUSE_FACTOR must be > 1, got %v", t.BlockPauseFactor)
	}

	var err error
	if t.BlockPauseUpperLimit, err = envMillis("BLOCK_PAUSE_UPPER_LIMIT", t.BlockPauseUpperLimit); err != nil {
		return t, err
	}
	if t.BlockPauseLowerLimit, err = envMillis("BLOCK_PAUSE_LOWER_LIMIT", t.BlockPauseLowerLimit); err != nil {
		return t, err
	}
	if t.ProviderTimeout, err = envMillis("PROVIDER_TIMEOUT", t.ProviderTimeout); err != nil {
		return t, err
	}
	if t.GetBytecodeRetryPause, err = envMillis("GET_BYTECODE_RETRY_PAUSE", t.GetBytecodeRetryPause); err != nil {
		return t, err
	}
	if t.GetBlockPause, err = envMillis("GET_BLOCK_PAUSE", t.GetBlockPause); err != nil {
		return t, err
	}

	if v := os.Getenv("INITIAL_GET_BYTECODE_TRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return t, fmt.Errorf("INITIAL_GET_BYTECODE_TRIES: %w", err)
		}
		t.InitialGetBytecodeTries = n
	}

	if t.BlockPauseLowerLimit > t.BlockPauseUpperLimit {
		return t, fmt.Errorf("BLOCK_PAUSE_LOWER_LIMIT %v exceeds BLOCK_PAUSE_UPPER_LIMIT %v",
			t.BlockPauseLowerLimit, t.BlockPauseUpperLimit)
	}

	return t, nil
}

// StartBlock returns the configured start override for a chain, read from
// MONITOR_START_<chainID> as a decimal block number.
func StartBlock(chainID uint64) (uint64, bool) {
	v := os.Getenv(fmt.Sprintf("MONITOR_START_%d", chainID))
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envMillis(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
