// Package source defines where reduction jobs come from. Each channel
// a job can arrive through — the database poller, the submission
// webhook — implements JobSource; the Aggregator fans them into the
// single stream the scheduler consumes.
package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/optinet/optinet/pkg/model"
)

// SourceType names a kind of job source; each implementation defines
// its own constant.
type SourceType string

// JobSource is one channel jobs arrive through.
type JobSource interface {
	// Type returns the implementation's SourceType constant.
	Type() SourceType

	// Name distinguishes instances of the same type.
	Name() string

	// Start begins producing events on Jobs().
	Start(ctx context.Context) error

	// Stop shuts the source down gracefully.
	Stop() error

	// Jobs is the source's event stream.
	Jobs() <-chan *JobEvent

	// Ack records that an emitted job was processed to completion.
	Ack(ctx context.Context, event *JobEvent) error

	// Nack records that processing failed so the source can requeue.
	Nack(ctx context.Context, event *JobEvent, reason string) error

	// HealthCheck reports whether the source can keep producing.
	HealthCheck(ctx context.Context) error
}

// JobEvent wraps a job fetched or received by a source, tagged with
// where it came from so the Aggregator can route Ack/Nack back to the
// right strategy.
type JobEvent struct {
	ID         string
	Job        *model.Job
	SourceType SourceType
	SourceName string
	Priority   int
	Metadata   map[string]string
}

// NewJobEvent wraps job with the source that produced it.
func NewJobEvent(job *model.Job, sourceType SourceType, sourceName string) *JobEvent {
	return &JobEvent{
		ID:         job.JobUUID,
		Job:        job,
		SourceType: sourceType,
		SourceName: sourceName,
		Priority:   job.Priority,
	}
}

// WithMetadata attaches a metadata key/value pair and returns the event
// for chaining.
func (e *JobEvent) WithMetadata(key, value string) *JobEvent {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// SourceConfig configures one source instance. Options carries the
// implementation-specific settings as loosely typed values straight
// from the config file; the Get* helpers coerce them.
type SourceConfig struct {
	Type    SourceType             `yaml:"type" mapstructure:"type"`
	Name    string                 `yaml:"name" mapstructure:"name"`
	Enabled bool                   `yaml:"enabled" mapstructure:"enabled"`
	Options map[string]interface{} `yaml:"options" mapstructure:"options"`
}

// GetString retrieves a string option with a default value.
func (c *SourceConfig) GetString(key, defaultValue string) string {
	if c.Options == nil {
		return defaultValue
	}
	if v, ok := c.Options[key].(string); ok {
		return v
	}
	return defaultValue
}

// GetInt retrieves an int option with a default value.
func (c *SourceConfig) GetInt(key string, defaultValue int) int {
	if c.Options == nil {
		return defaultValue
	}
	switch v := c.Options[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return defaultValue
}

// GetDuration retrieves a duration option with a default value.
// Accepts string (e.g., "2s") or int (seconds).
func (c *SourceConfig) GetDuration(key string, defaultValue time.Duration) time.Duration {
	if c.Options == nil {
		return defaultValue
	}
	switch v := c.Options[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v) * time.Second
	}
	return defaultValue
}

// GetBool retrieves a bool option with a default value.
func (c *SourceConfig) GetBool(key string, defaultValue bool) bool {
	if c.Options == nil {
		return defaultValue
	}
	if v, ok := c.Options[key].(bool); ok {
		return v
	}
	return defaultValue
}

// GetStringSlice retrieves a string slice option with a default value.
func (c *SourceConfig) GetStringSlice(key string, defaultValue []string) []string {
	if c.Options == nil {
		return defaultValue
	}
	switch v := c.Options[key].(type) {
	case []string:
		return v
	case []interface{}:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}
	return defaultValue
}

// SourceCreator builds a JobSource from its configuration.
type SourceCreator func(cfg *SourceConfig) (JobSource, error)

var (
	registry   = make(map[SourceType]SourceCreator)
	registryMu sync.RWMutex
)

// Register installs a creator for a source type; implementations call
// it from their init().
func Register(sourceType SourceType, creator SourceCreator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[sourceType] = creator
}

// IsRegistered checks if a source type is registered.
func IsRegistered(sourceType SourceType) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, exists := registry[sourceType]
	return exists
}

// RegisteredTypes returns all registered source types.
func RegisteredTypes() []SourceType {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]SourceType, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	return types
}

// CreateSource creates a JobSource from the given configuration.
func CreateSource(cfg *SourceConfig) (JobSource, error) {
	registryMu.RLock()
	creator, exists := registry[cfg.Type]
	registryMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown source type: %s (registered types: %v)", cfg.Type, RegisteredTypes())
	}

	return creator(cfg)
}

// CreateSources creates multiple JobSources from configurations.
// Only enabled sources are created.
func CreateSources(configs []*SourceConfig) ([]JobSource, error) {
	var sources []JobSource

	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}

		src, err := CreateSource(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create source %q: %w", cfg.Name, err)
		}

		sources = append(sources, src)
	}

	return sources, nil
}
