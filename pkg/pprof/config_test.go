package pprof

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfileTypes(t *testing.T) {
	types, err := ParseProfileTypes("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfileTypes(), types)

	types, err = ParseProfileTypes("cpu, HEAP ,mutex")
	require.NoError(t, err)
	assert.Equal(t, []ProfileType{ProfileCPU, ProfileHeap, ProfileMutex}, types)

	_, err = ParseProfileTypes("cpu,flamegraph")
	assert.Error(t, err)
}

func TestValidateDisabledConfigSkipsChecks(t *testing.T) {
	cfg := &Config{Enabled: false}
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadFileTiming(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.FileConfig.Interval = 5 * time.Second
	cfg.FileConfig.CPUDuration = 5 * time.Second
	assert.Error(t, cfg.Validate(), "CPU duration must fit inside the interval")

	cfg.FileConfig.CPUDuration = 2 * time.Second
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Mode = ModeType("periodic")
	assert.Error(t, cfg.Validate())
}

func TestNewCollectorFillsDefaults(t *testing.T) {
	c, err := NewCollector(nil)
	require.NoError(t, err)
	assert.Equal(t, ModeFile, c.Config().Mode)
	assert.True(t, c.Config().HasProfile(ProfileCPU))
	assert.False(t, c.Config().HasProfile(ProfileMutex))
}

func TestCollectorStopWithoutStart(t *testing.T) {
	c, err := NewCollector(nil)
	require.NoError(t, err)
	assert.NoError(t, c.Stop())
}
