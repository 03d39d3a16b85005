package delivery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/storehook/endpoint"
	"github.com/xraph/storehook/event"
)

// DefaultConcurrency bounds parallel dispatches within one fan-out.
const DefaultConcurrency = 16

// Resolver finds the active endpoints subscribed to an event type.
type Resolver interface {
	Resolve(ctx context.Context, eventType string) ([]*endpoint.Endpoint, error)
}

// Fanout delivers one event to every subscribed endpoint.
type Fanout struct {
	resolver    Resolver
	dispatcher  *Dispatcher
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// NewFanout creates a fan-out over the given dispatcher.
func NewFanout(resolver Resolver, dispatcher *Dispatcher, concurrency int, logger *slog.Logger) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Fanout{
		resolver:    resolver,
		dispatcher:  dispatcher,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// Run resolves subscribers, builds a single envelope and dispatches it to
// each of them concurrently. It returns once every dispatch has settled,
// with results in subscriber order. Registry errors are logged and yield
// no results.
func (f *Fanout) Run(ctx context.Context, eventType string, data any) []Result {
	endpoints, err := f.resolver.Resolve(ctx, eventType)
	if err != nil {
		f.logger.ErrorContext(ctx, "resolve subscribers failed",
			"event_type", eventType, "error", err)
		return nil
	}
	if len(endpoints) == 0 {
		f.logger.DebugContext(ctx, "no subscribers", "event_type", eventType)
		return nil
	}

	env := event.New(eventType, data, f.now())
	body, err := env.Marshal()
	if err != nil {
		f.logger.ErrorContext(ctx, "marshal envelope failed",
			"event_type", eventType, "error", err)
		return nil
	}

	results := make([]Result, len(endpoints))
	sem := make(chan struct{}, f.concurrency)
	var wg sync.WaitGroup

	for i, ep := range endpoints {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, ep *endpoint.Endpoint) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = f.dispatcher.send(ctx, ep, eventType, body, env.Timestamp, nil)
		}(i, ep)
	}
	wg.Wait()

	f.logger.DebugContext(ctx, "fan-out complete",
		"event_type", eventType, "subscribers", len(endpoints))

	return results
}
