// Package pprof profiles the engine process itself. The allocator and
// rewrite loop are the hot paths this whole runtime lives or dies by,
// so the CLI and daemon can switch on either periodic profile
// snapshots to disk (file mode, for batch runs) or the standard
// net/http/pprof endpoints (http mode, for the long-running service).
package pprof

import (
	"fmt"
	"strings"
	"time"
)

// ModeType selects how profiles are collected.
type ModeType string

const (
	// ModeFile writes periodic profile snapshots under OutputDir.
	ModeFile ModeType = "file"
	// ModeHTTP serves the debug/pprof endpoints for on-demand capture.
	ModeHTTP ModeType = "http"
)

// ProfileType names one runtime profile.
type ProfileType string

const (
	ProfileCPU       ProfileType = "cpu"
	ProfileHeap      ProfileType = "heap"
	ProfileGoroutine ProfileType = "goroutine"
	ProfileBlock     ProfileType = "block"
	ProfileMutex     ProfileType = "mutex"
	ProfileAllocs    ProfileType = "allocs"
)

// AllProfileTypes lists every supported profile.
func AllProfileTypes() []ProfileType {
	return []ProfileType{
		ProfileCPU, ProfileHeap, ProfileGoroutine,
		ProfileBlock, ProfileMutex, ProfileAllocs,
	}
}

// DefaultProfileTypes lists the profiles collected when none are named.
func DefaultProfileTypes() []ProfileType {
	return []ProfileType{ProfileCPU, ProfileHeap, ProfileGoroutine}
}

// ParseProfileTypes parses a comma-separated profile list, defaulting
// to DefaultProfileTypes on empty input.
func ParseProfileTypes(s string) ([]ProfileType, error) {
	if s == "" {
		return DefaultProfileTypes(), nil
	}
	valid := make(map[ProfileType]bool)
	for _, pt := range AllProfileTypes() {
		valid[pt] = true
	}
	var types []ProfileType
	for _, part := range strings.Split(s, ",") {
		pt := ProfileType(strings.ToLower(strings.TrimSpace(part)))
		if !valid[pt] {
			return nil, fmt.Errorf("unknown profile type: %q", part)
		}
		types = append(types, pt)
	}
	return types, nil
}

// Config controls profile collection.
type Config struct {
	Enabled   bool          `mapstructure:"enabled"`
	Mode      ModeType      `mapstructure:"mode"`
	Profiles  []ProfileType `mapstructure:"profiles"`
	OutputDir string        `mapstructure:"output_dir"`

	FileConfig *FileConfig `mapstructure:"file"`
	HTTPConfig *HTTPConfig `mapstructure:"http"`
}

// FileConfig tunes file-mode snapshots.
type FileConfig struct {
	// Interval between snapshot rounds.
	Interval time.Duration `mapstructure:"interval"`
	// CPUDuration is how long each round samples the CPU profile; must
	// be shorter than Interval.
	CPUDuration time.Duration `mapstructure:"cpu_duration"`
	// CPURate is the CPU sampling rate in Hz.
	CPURate int `mapstructure:"cpu_rate"`
	// MaxFiles caps how many snapshots are kept per profile type;
	// older ones are pruned. 0 keeps everything.
	MaxFiles int `mapstructure:"max_files"`
}

// HTTPConfig tunes http mode.
type HTTPConfig struct {
	// Addr is the listen address for the debug endpoints.
	Addr string `mapstructure:"addr"`
}

// DefaultConfig returns the disabled-by-default configuration the CLI
// flags overlay.
func DefaultConfig() *Config {
	return &Config{
		Enabled:   false,
		Mode:      ModeFile,
		Profiles:  DefaultProfileTypes(),
		OutputDir: "./pprof",
		FileConfig: &FileConfig{
			Interval:    30 * time.Second,
			CPUDuration: 10 * time.Second,
			CPURate:     100,
			MaxFiles:    10,
		},
		HTTPConfig: &HTTPConfig{
			Addr: ":6060",
		},
	}
}

// Validate checks an enabled config for contradictions.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Mode != ModeFile && c.Mode != ModeHTTP {
		return fmt.Errorf("invalid pprof mode: %q (valid: file, http)", c.Mode)
	}
	if len(c.Profiles) == 0 {
		return fmt.Errorf("at least one profile type must be specified")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.Mode == ModeFile && c.FileConfig != nil {
		if c.FileConfig.Interval < time.Second {
			return fmt.Errorf("interval must be at least 1 second")
		}
		if c.FileConfig.CPUDuration < time.Second {
			return fmt.Errorf("CPU duration must be at least 1 second")
		}
		if c.FileConfig.CPUDuration >= c.FileConfig.Interval {
			return fmt.Errorf("CPU duration must be less than interval")
		}
	}
	if c.Mode == ModeHTTP && (c.HTTPConfig == nil || c.HTTPConfig.Addr == "") {
		return fmt.Errorf("HTTP address is required")
	}
	return nil
}

// HasProfile reports whether pt is among the configured profiles.
func (c *Config) HasProfile(pt ProfileType) bool {
	for _, p := range c.Profiles {
		if p == pt {
			return true
		}
	}
	return false
}
