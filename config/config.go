package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/filetree"
	"github.com/brettbedarf/filetree/internal/util"
	"gopkg.in/yaml.v3"
)

// CLI verbosity levels. Higher is chattier; see [ConfigOverride.LogLvl].
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultLogLvl = util.InfoLevel

	DefaultFsName = "filetree"
	DefaultName   = "ft"

	// DefaultFileMode is the permission bits of mounted files (read-only)
	DefaultFileMode uint32 = 0o444

	// DefaultDirMode is the permission bits of mounted directories (read-only)
	DefaultDirMode uint32 = 0o555

	// DefaultAttrTimeout is the attribute cache timeout in seconds
	DefaultAttrTimeout = 1.0

	// DefaultEntryTimeout is the directory entry cache timeout in seconds
	DefaultEntryTimeout = 1.0

	// DefaultMaxNodes of 0 leaves the tree unbounded
	DefaultMaxNodes = 0

	// DefaultMetricsAddr of "" disables the metrics endpoint
	DefaultMetricsAddr = ""
)

// Config contains runtime configuration values for a file tree and its mount.
type Config struct {
	LogLvl util.LogLevel
	MountOptions

	FileMode     uint32  // Permission bits for files in a mounted snapshot (Default 0444)
	DirMode      uint32  // Permission bits for directories in a mounted snapshot (Default 0555)
	AttrTimeout  float64 // Attribute cache timeout in seconds (Default 1.0)
	EntryTimeout float64 // Directory entry cache timeout in seconds (Default 1.0)
	MaxNodes     int     // Upper bound on directories + files held by a tree; 0 is unbounded
	MetricsAddr  string  // Listen address for the Prometheus endpoint while mounted, e.g. ":9090"
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	// LogLvl is a CLI style verbosity 1 (errors only) to 5 (trace), clamped into range
	LogLvl       *int     `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	Debug        *bool    `yaml:"debug,omitempty" json:"debug,omitempty"`
	FsName       *string  `yaml:"fs_name,omitempty" json:"fs_name,omitempty"`
	Name         *string  `yaml:"name,omitempty" json:"name,omitempty"`
	FileMode     *uint32  `yaml:"file_mode,omitempty" json:"file_mode,omitempty"`
	DirMode      *uint32  `yaml:"dir_mode,omitempty" json:"dir_mode,omitempty"`
	AttrTimeout  *float64 `yaml:"attr_timeout,omitempty" json:"attr_timeout,omitempty"`
	EntryTimeout *float64 `yaml:"entry_timeout,omitempty" json:"entry_timeout,omitempty"`
	MaxNodes     *int     `yaml:"max_nodes,omitempty" json:"max_nodes,omitempty"`
	MetricsAddr  *string  `yaml:"metrics_addr,omitempty" json:"metrics_addr,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		LogLvl: DefaultLogLvl,
		MountOptions: MountOptions{
			FsName: DefaultFsName,
			Name:   DefaultName,
		},
		FileMode:     DefaultFileMode,
		DirMode:      DefaultDirMode,
		AttrTimeout:  DefaultAttrTimeout,
		EntryTimeout: DefaultEntryTimeout,
		MaxNodes:     DefaultMaxNodes,
		MetricsAddr:  DefaultMetricsAddr,
	}
}

// NewConfig returns the defaults with override merged on top; override may be nil
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// VerboseToLogLevel clamps a 1..5 verbosity and converts it to a [util.LogLevel]
func VerboseToLogLevel(verbose int) util.LogLevel {
	verbose = max(ErrorVerbose, min(TraceVerbose, verbose))
	return util.ErrorLevel - (verbose - ErrorVerbose)
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = VerboseToLogLevel(*override.LogLvl)
	}
	if override.Debug != nil {
		c.Debug = *override.Debug
	}
	if override.FsName != nil {
		c.FsName = *override.FsName
	}
	if override.Name != nil {
		c.Name = *override.Name
	}
	if override.FileMode != nil {
		c.FileMode = *override.FileMode
	}
	if override.DirMode != nil {
		c.DirMode = *override.DirMode
	}
	if override.AttrTimeout != nil {
		c.AttrTimeout = *override.AttrTimeout
	}
	if override.EntryTimeout != nil {
		c.EntryTimeout = *override.EntryTimeout
	}
	if override.MaxNodes != nil {
		c.MaxNodes = *override.MaxNodes
	}
	if override.MetricsAddr != nil {
		c.MetricsAddr = *override.MetricsAddr
	}
}

// Validate reports the first out-of-range field
func (c *Config) Validate() error {
	switch {
	case c.FileMode&^0o777 != 0:
		return fmt.Errorf("%w: file_mode %#o has bits outside 0777", filetree.ErrConfig, c.FileMode)
	case c.DirMode&^0o777 != 0:
		return fmt.Errorf("%w: dir_mode %#o has bits outside 0777", filetree.ErrConfig, c.DirMode)
	case c.AttrTimeout < 0:
		return fmt.Errorf("%w: attr_timeout must not be negative", filetree.ErrConfig)
	case c.EntryTimeout < 0:
		return fmt.Errorf("%w: entry_timeout must not be negative", filetree.ErrConfig)
	case c.MaxNodes < 0:
		return fmt.Errorf("%w: max_nodes must not be negative", filetree.ErrConfig)
	}
	return nil
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("%w: failed to unmarshal config file: %w", filetree.ErrConfig, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("%w: failed to unmarshal config file: %w", filetree.ErrConfig, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown config file extension: %s", filetree.ErrConfig, path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg := NewConfig(override)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
