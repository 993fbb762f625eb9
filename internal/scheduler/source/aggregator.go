package source

import (
	"context"
	"sync"

	"github.com/optinet/optinet/pkg/utils"
)

// Aggregator fans every registered JobSource into one output channel
// the scheduler consumes, and routes Ack/Nack back to whichever source
// emitted the event. One forwarder goroutine per source keeps a slow
// source from blocking the others.
type Aggregator struct {
	sources    []JobSource
	byKey      map[string]JobSource
	out        chan *JobEvent
	bufferSize int
	logger     utils.Logger

	mu      sync.RWMutex
	running bool
	wg      sync.WaitGroup
	stopCh  chan struct{}
}

// NewAggregator wraps sources behind one channel with the given buffer.
func NewAggregator(sources []JobSource, bufferSize int, logger utils.Logger) *Aggregator {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	byKey := make(map[string]JobSource, len(sources))
	for _, src := range sources {
		byKey[sourceKey(src.Type(), src.Name())] = src
	}

	return &Aggregator{
		sources:    sources,
		byKey:      byKey,
		out:        make(chan *JobEvent, bufferSize),
		bufferSize: bufferSize,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

func sourceKey(sourceType SourceType, name string) string {
	return string(sourceType) + ":" + name
}

// Start brings up every source and its forwarder. If any source fails
// to start, the ones already running are stopped again and the error
// is returned.
func (a *Aggregator) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = true
	a.mu.Unlock()

	a.logger.Info("Starting aggregator with %d sources", len(a.sources))

	for _, src := range a.sources {
		if err := src.Start(ctx); err != nil {
			a.logger.Error("Failed to start source %s/%s: %v", src.Type(), src.Name(), err)
			a.Stop()
			return err
		}
		a.logger.Info("Started source: %s/%s", src.Type(), src.Name())

		a.wg.Add(1)
		go a.forward(ctx, src)
	}

	return nil
}

// forward drains one source into the shared output channel, stamping
// each event with its origin so Ack/Nack can find the way back.
func (a *Aggregator) forward(ctx context.Context, src JobSource) {
	defer a.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stopCh:
			return
		case event, ok := <-src.Jobs():
			if !ok {
				a.logger.Info("Source %s/%s channel closed", src.Type(), src.Name())
				return
			}
			event.SourceType = src.Type()
			event.SourceName = src.Name()

			select {
			case a.out <- event:
			case <-ctx.Done():
				return
			case <-a.stopCh:
				return
			}
		}
	}
}

// Stop halts the sources and forwarders, then closes the output
// channel so the scheduler's consume loop unblocks.
func (a *Aggregator) Stop() error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	close(a.stopCh)

	for _, src := range a.sources {
		if err := src.Stop(); err != nil {
			a.logger.Error("Failed to stop source %s/%s: %v", src.Type(), src.Name(), err)
		}
	}

	a.wg.Wait()
	close(a.out)

	a.logger.Info("Aggregator stopped")
	return nil
}

// Jobs returns the fan-in channel.
func (a *Aggregator) Jobs() <-chan *JobEvent {
	return a.out
}

// GetSource looks a source up by type and name.
func (a *Aggregator) GetSource(sourceType SourceType, name string) JobSource {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.byKey[sourceKey(sourceType, name)]
}

// GetSourceForEvent resolves the source that emitted event.
func (a *Aggregator) GetSourceForEvent(event *JobEvent) JobSource {
	return a.GetSource(event.SourceType, event.SourceName)
}

// Ack routes a completed event's acknowledgment to its source. Events
// from a source that has since been removed are dropped silently.
func (a *Aggregator) Ack(ctx context.Context, event *JobEvent) error {
	if src := a.GetSourceForEvent(event); src != nil {
		return src.Ack(ctx, event)
	}
	return nil
}

// Nack routes a failed event back to its source for retry handling.
func (a *Aggregator) Nack(ctx context.Context, event *JobEvent, reason string) error {
	if src := a.GetSourceForEvent(event); src != nil {
		return src.Nack(ctx, event, reason)
	}
	return nil
}

// HealthCheck fails on the first unhealthy source.
func (a *Aggregator) HealthCheck(ctx context.Context) error {
	for _, src := range a.sources {
		if err := src.HealthCheck(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Sources returns the registered sources.
func (a *Aggregator) Sources() []JobSource {
	return a.sources
}

// SourceCount returns how many sources feed this aggregator.
func (a *Aggregator) SourceCount() int {
	return len(a.sources)
}
