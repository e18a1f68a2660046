package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	defaultLedgerTable  = "processed_files"
	defaultMappingTable = "table_mappings"

	// DefaultCopyChunkSize is the loader buffer size.
	DefaultCopyChunkSize = 64 * 1024
	// MinCopyChunkSize and MaxCopyChunkSize bound COPY_CHUNK_SIZE.
	MinCopyChunkSize = 4 * 1024
	MaxCopyChunkSize = 8 * 1024 * 1024
)

// LedgerConfig names the ledger table.
type LedgerConfig struct {
	Table string `env:"PROCESSED_FILES_TABLE" envDefault:"processed_files"`
}

// Sanitize applies defaults.
func (c *LedgerConfig) Sanitize() {
	if c.Table = strings.TrimSpace(c.Table); c.Table == "" {
		c.Table = defaultLedgerTable
	}
}

// ResolutionStrategy selects how keys map to tables.
type ResolutionStrategy string

const (
	// ResolutionPrefix uses the key's first path segment as the table name.
	ResolutionPrefix ResolutionStrategy = "prefix"
	// ResolutionMapping looks the key up in the mapping table by longest prefix.
	ResolutionMapping ResolutionStrategy = "mapping"
)

// ResolverConfig selects the table resolution strategy.
type ResolverConfig struct {
	Strategy     ResolutionStrategy `env:"TABLE_RESOLUTION" envDefault:"prefix"`
	MappingTable string             `env:"MAPPING_TABLE"    envDefault:"table_mappings"`
}

// Sanitize normalises case and applies defaults.
func (c *ResolverConfig) Sanitize() {
	c.Strategy = ResolutionStrategy(strings.ToLower(strings.TrimSpace(string(c.Strategy))))
	if c.Strategy == "" {
		c.Strategy = ResolutionPrefix
	}
	if c.MappingTable = strings.TrimSpace(c.MappingTable); c.MappingTable == "" {
		c.MappingTable = defaultMappingTable
	}
}

// Validate rejects unknown strategies. A deployment must pick exactly one.
func (c *ResolverConfig) Validate() error {
	switch c.Strategy {
	case ResolutionPrefix, ResolutionMapping:
		return nil
	default:
		return fmt.Errorf("invalid TABLE_RESOLUTION %q (valid: prefix, mapping)", c.Strategy)
	}
}

// LoaderConfig controls the bulk loader.
type LoaderConfig struct {
	ChunkSize int    `env:"COPY_CHUNK_SIZE" envDefault:"65536"`
	Delimiter string `env:"COPY_DELIMITER"  envDefault:","`
}

// Sanitize clamps the chunk size.
func (c *LoaderConfig) Sanitize() {
	switch {
	case c.ChunkSize <= 0:
		c.ChunkSize = DefaultCopyChunkSize
	case c.ChunkSize < MinCopyChunkSize:
		c.ChunkSize = MinCopyChunkSize
	case c.ChunkSize > MaxCopyChunkSize:
		c.ChunkSize = MaxCopyChunkSize
	}
	if c.Delimiter == "" {
		c.Delimiter = ","
	}
}

// Validate checks the delimiter is a single usable byte.
func (c *LoaderConfig) Validate() error {
	if len(c.Delimiter) != 1 {
		return errors.New("COPY_DELIMITER must be a single byte")
	}
	switch c.Delimiter[0] {
	case '\n', '\r', '"', '\\':
		return fmt.Errorf("COPY_DELIMITER %q is not allowed", c.Delimiter)
	}
	return nil
}
