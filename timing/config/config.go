// Package config holds the machine configuration consumed by the
// Tomasulo cycle engine: reservation-station counts per functional-unit
// class, per-opcode-class latencies, and data-cache parameters (spec §6).
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/tomasim/asm"
)

// RSSizes holds the reservation-station count for each functional-unit
// class.
type RSSizes struct {
	ADD     int `json:"add"`
	MULT    int `json:"mult"`
	LOAD    int `json:"load"`
	STORE   int `json:"store"`
	INTEGER int `json:"integer"`
}

// For returns the configured reservation-station count for unit u.
func (s RSSizes) For(u asm.Unit) int {
	switch u {
	case asm.UnitADD:
		return s.ADD
	case asm.UnitMULT:
		return s.MULT
	case asm.UnitLOAD:
		return s.LOAD
	case asm.UnitSTORE:
		return s.STORE
	default:
		return s.INTEGER
	}
}

// Latencies holds the per-opcode-class execution latency, in cycles,
// used by Phase B of the cycle engine (spec §4.3.2).
type Latencies struct {
	LOAD       int `json:"load"`
	STORE      int `json:"store"`
	FPAdd      int `json:"fp_add"`
	FPSub      int `json:"fp_sub"`
	FPMult     int `json:"fp_mult"`
	FPDiv      int `json:"fp_div"`
	IntegerALU int `json:"integer_alu"`
	Branch     int `json:"branch"`
}

// For returns the configured latency for opcode class c.
func (l Latencies) For(c asm.Class) int {
	switch c {
	case asm.ClassLoad:
		return l.LOAD
	case asm.ClassStore:
		return l.STORE
	case asm.ClassFPAdd:
		return l.FPAdd
	case asm.ClassFPSub:
		return l.FPSub
	case asm.ClassFPMult:
		return l.FPMult
	case asm.ClassFPDiv:
		return l.FPDiv
	case asm.ClassBranch:
		return l.Branch
	default:
		return l.IntegerALU
	}
}

// CacheConfig holds the optional data-cache parameters (spec §4.2, §6).
type CacheConfig struct {
	Enabled     bool `json:"enabled"`
	BlockSize   int  `json:"block_size"`
	CacheSize   int  `json:"cache_size"`
	MissPenalty int  `json:"miss_penalty"`
}

// Config is the full machine configuration.
type Config struct {
	RSSizes   RSSizes     `json:"rs_sizes"`
	Latencies Latencies   `json:"latencies"`
	Cache     CacheConfig `json:"cache"`
}

// Default returns the spec-mandated default configuration (spec §6).
func Default() *Config {
	return &Config{
		RSSizes: RSSizes{ADD: 3, MULT: 2, LOAD: 3, STORE: 3, INTEGER: 4},
		Latencies: Latencies{
			LOAD: 2, STORE: 2,
			FPAdd: 2, FPSub: 2, FPMult: 10, FPDiv: 40,
			IntegerALU: 1, Branch: 1,
		},
		Cache: CacheConfig{
			Enabled:     true,
			BlockSize:   4,
			CacheSize:   16,
			MissPenalty: 10,
		},
	}
}

// Load reads a Config from a JSON file, starting from Default and
// overriding only the fields present in the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the Config to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}

	return nil
}

// Validate checks that RS sizes and latencies are sane: RS counts and
// latencies must be positive, and when the cache is enabled the block
// and cache sizes must be positive, the cache size a multiple of the
// block size, and the miss penalty non-negative.
func (c *Config) Validate() error {
	if c.RSSizes.ADD <= 0 || c.RSSizes.MULT <= 0 || c.RSSizes.LOAD <= 0 ||
		c.RSSizes.STORE <= 0 || c.RSSizes.INTEGER <= 0 {
		return fmt.Errorf("config: all rs_sizes must be > 0")
	}

	lat := c.Latencies
	for _, v := range []int{lat.LOAD, lat.STORE, lat.FPAdd, lat.FPSub, lat.FPMult, lat.FPDiv, lat.IntegerALU, lat.Branch} {
		if v <= 0 {
			return fmt.Errorf("config: all latencies must be > 0")
		}
	}

	if c.Cache.Enabled {
		if c.Cache.BlockSize <= 0 || c.Cache.CacheSize <= 0 {
			return fmt.Errorf("config: cache block_size and cache_size must be > 0 when enabled")
		}
		if c.Cache.CacheSize%c.Cache.BlockSize != 0 {
			return fmt.Errorf("config: cache_size must be a multiple of block_size")
		}
		if c.Cache.MissPenalty < 0 {
			return fmt.Errorf("config: cache miss_penalty must be >= 0")
		}
	}

	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
