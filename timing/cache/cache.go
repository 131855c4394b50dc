// Package cache models the simulator's single optional data cache:
// fully-associative, LRU-eviction, and consulted only for load latency
// (spec §4.2). It carries no data of its own — the cycle engine always
// reads the authoritative value from machine memory; the cache only
// decides hit/miss and the resulting latency penalty.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds the cache's timing parameters, taken directly from the
// machine configuration's Cache field (spec §6).
type Config struct {
	// Enabled, when false, makes every access a free hit (spec §4.2).
	Enabled bool
	// BlockSize is the cache line size in address units.
	BlockSize int
	// CacheSize is the total capacity in address units; the number of
	// resident blocks is CacheSize / BlockSize.
	CacheSize int
	// MissPenalty is the extra latency, in cycles, charged on a miss.
	MissPenalty int
}

// Statistics holds cache access counters.
type Statistics struct {
	Accesses  uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache is a fully-associative, LRU-eviction cache. It is modeled as the
// degenerate single-set case of Akita's set-associative cache directory
// (the same component the pack's M2 L1/L2 models build on): one set
// whose associativity equals the full block count, so any address can
// occupy any way and the directory's LRU victim finder performs exactly
// the eviction spec §4.2 describes.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl
	stats     Statistics
}

// New creates a Cache from config. When config.Enabled is false, the
// returned Cache answers every access as a free hit and never allocates
// a directory (spec §4.2).
func New(config Config) *Cache {
	c := &Cache{config: config}
	if !config.Enabled {
		return c
	}

	associativity := config.CacheSize / config.BlockSize
	c.directory = akitacache.NewDirectory(
		1, // a single set makes every way eligible for any address: fully associative
		associativity,
		config.BlockSize,
		akitacache.NewLRUVictimFinder(),
	)
	return c
}

// Config returns the cache's configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns the cache's access statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// Access looks up addr at the given cycle. It reports whether the
// access hit, and the latency penalty to add beyond the opcode's base
// execute latency (0 on hit, config.MissPenalty on miss). On a miss it
// inserts a new block for addr's line, evicting the least-recently-used
// resident block if the cache is at capacity (spec §4.2).
func (c *Cache) Access(addr int64, cycle int) (hit bool, penalty int) {
	if !c.config.Enabled {
		return true, 0
	}

	c.stats.Accesses++

	blockAddr := blockAddress(addr, c.config.BlockSize)
	block := c.directory.Lookup(0, uint64(blockAddr))
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		return true, 0
	}

	c.stats.Misses++

	victim := c.directory.FindVictim(uint64(blockAddr))
	if victim != nil {
		if victim.IsValid {
			c.stats.Evictions++
		}
		victim.Tag = uint64(blockAddr)
		victim.IsValid = true
		c.directory.Visit(victim)
	}

	return false, c.config.MissPenalty
}

// Reset invalidates all cache lines and clears statistics.
func (c *Cache) Reset() {
	if c.directory != nil {
		c.directory.Reset()
	}
	c.stats = Statistics{}
}

func blockAddress(addr int64, blockSize int) int64 {
	if blockSize <= 0 {
		return addr
	}
	return (addr / int64(blockSize)) * int64(blockSize)
}
