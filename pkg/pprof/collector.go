package pprof

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	runtimepprof "runtime/pprof"
	"sort"
	"sync"
	"time"
)

// Collector drives profile collection in the configured mode. It is
// started once per process and stopped on shutdown.
type Collector struct {
	config *Config

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	httpSrv *httpServer
}

// NewCollector validates cfg (nil means DefaultConfig) and builds a
// collector for it.
func NewCollector(cfg *Config) (*Collector, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pprof config: %w", err)
	}
	if cfg.FileConfig == nil {
		cfg.FileConfig = DefaultConfig().FileConfig
	}
	if cfg.HTTPConfig == nil {
		cfg.HTTPConfig = DefaultConfig().HTTPConfig
	}
	return &Collector{config: cfg}, nil
}

// Config returns the collector's configuration.
func (c *Collector) Config() *Config {
	return c.config
}

// Start begins collection: a snapshot loop in file mode, a debug HTTP
// server in http mode.
func (c *Collector) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return fmt.Errorf("pprof collector is already running")
	}

	if c.config.HasProfile(ProfileBlock) {
		runtime.SetBlockProfileRate(1)
	}
	if c.config.HasProfile(ProfileMutex) {
		runtime.SetMutexProfileFraction(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	switch c.config.Mode {
	case ModeHTTP:
		srv, err := startHTTPServer(c.config.HTTPConfig)
		if err != nil {
			cancel()
			return err
		}
		c.httpSrv = srv
	default:
		if err := c.ensureDirs(); err != nil {
			cancel()
			return err
		}
		c.wg.Add(1)
		go c.snapshotLoop(ctx)
	}

	c.running = true
	return nil
}

// Stop halts collection and waits for any in-flight snapshot round.
func (c *Collector) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	c.cancel()
	c.wg.Wait()

	var err error
	if c.httpSrv != nil {
		err = c.httpSrv.shutdown()
		c.httpSrv = nil
	}
	c.running = false
	return err
}

func (c *Collector) ensureDirs() error {
	for _, pt := range c.config.Profiles {
		if err := os.MkdirAll(filepath.Join(c.config.OutputDir, string(pt)), 0755); err != nil {
			return fmt.Errorf("failed to create profile directory for %s: %w", pt, err)
		}
	}
	return nil
}

func (c *Collector) snapshotLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.FileConfig.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.snapshotRound(ctx)
		}
	}
}

// snapshotRound captures every configured profile once. Errors are
// swallowed per profile: a failed heap snapshot must not stop the CPU
// profile from landing.
func (c *Collector) snapshotRound(ctx context.Context) {
	for _, pt := range c.config.Profiles {
		var data []byte
		var err error
		if pt == ProfileCPU {
			data, err = c.sampleCPU(ctx)
		} else {
			data, err = snapshotProfile(pt)
		}
		if err != nil || len(data) == 0 {
			continue
		}
		if path, werr := c.writeSnapshot(pt, data); werr == nil {
			c.prune(pt, path)
		}
	}
}

// sampleCPU runs the CPU profiler for the configured duration, ending
// early if the collector is stopped mid-sample.
func (c *Collector) sampleCPU(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer
	runtime.SetCPUProfileRate(c.config.FileConfig.CPURate)
	if err := runtimepprof.StartCPUProfile(&buf); err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
	case <-time.After(c.config.FileConfig.CPUDuration):
	}
	runtimepprof.StopCPUProfile()
	return buf.Bytes(), nil
}

// snapshotProfile captures one of the instant (non-CPU) profiles.
func snapshotProfile(pt ProfileType) ([]byte, error) {
	name := string(pt)
	if pt == ProfileHeap {
		// Get an up-to-date heap picture rather than the last GC's.
		runtime.GC()
		name = "heap"
	}
	p := runtimepprof.Lookup(name)
	if p == nil {
		return nil, fmt.Errorf("no such runtime profile: %s", name)
	}
	var buf bytes.Buffer
	if err := p.WriteTo(&buf, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Collector) writeSnapshot(pt ProfileType, data []byte) (string, error) {
	dir := filepath.Join(c.config.OutputDir, string(pt))
	name := fmt.Sprintf("%s_%s.pprof", pt, time.Now().Format("20060102_150405.000"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", err
	}
	return path, nil
}

// prune removes the oldest snapshots of one profile type past the
// configured cap. keep names the just-written file, which always
// survives.
func (c *Collector) prune(pt ProfileType, keep string) {
	maxFiles := c.config.FileConfig.MaxFiles
	if maxFiles <= 0 {
		return
	}
	dir := filepath.Join(c.config.OutputDir, string(pt))
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) <= maxFiles {
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names[:len(names)-maxFiles] {
		if full := filepath.Join(dir, name); full != keep {
			os.Remove(full)
		}
	}
}
