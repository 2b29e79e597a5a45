// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"
)

// Router wraps the Watermill Router with the middleware stack every topic
// handler in the pipeline shares: panic recovery, exponential-backoff
// retry, optional throttling, optional deduplication, and poison-queue
// routing for messages that exhaust their retries.
type Router struct {
	router    *message.Router
	config    RouterConfig
	logger    watermill.LoggerAdapter
	poisonPub message.Publisher
	running   bool
	handlers  map[string]*message.Handler
	dedup     *inMemoryDeduplicator
}

// inMemoryDeduplicator implements middleware.ExpiringKeyRepository with a
// plain mutex-guarded map. The pipeline's message volume (low thousands of
// events per day) does not justify an LRU eviction policy; entries expire
// on TTL and are swept lazily on IsDuplicate.
type inMemoryDeduplicator struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	ttl     time.Duration
	lastGC  time.Time
	gcEvery time.Duration
}

func newInMemoryDeduplicator(ttl time.Duration) *inMemoryDeduplicator {
	return &inMemoryDeduplicator{
		seen:    make(map[string]time.Time),
		ttl:     ttl,
		gcEvery: ttl,
	}
}

func (d *inMemoryDeduplicator) IsDuplicate(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if now.Sub(d.lastGC) > d.gcEvery {
		for k, seenAt := range d.seen {
			if now.Sub(seenAt) > d.ttl {
				delete(d.seen, k)
			}
		}
		d.lastGC = now
	}

	if seenAt, ok := d.seen[key]; ok && now.Sub(seenAt) <= d.ttl {
		return true, nil
	}
	d.seen[key] = now
	return false, nil
}

// NewRouter creates a Watermill Router configured with the standard
// middleware stack. poisonPublisher may be nil to disable poison-queue
// routing (the caller then owns retry exhaustion handling).
func NewRouter(cfg RouterConfig, poisonPublisher message.Publisher, logger watermill.LoggerAdapter) (*Router, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r := &Router{
		router:    wmRouter,
		config:    cfg,
		logger:    logger,
		poisonPub: poisonPublisher,
		handlers:  make(map[string]*message.Handler),
	}

	wmRouter.AddPlugin(plugin.SignalsHandler)
	wmRouter.AddMiddleware(middleware.Recoverer)

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          logger,
	}
	wmRouter.AddMiddleware(retry.Middleware)

	if cfg.ThrottlePerSecond > 0 {
		throttle := middleware.NewThrottle(cfg.ThrottlePerSecond, time.Second)
		wmRouter.AddMiddleware(throttle.Middleware)
	}

	if cfg.DeduplicationEnabled {
		r.dedup = newInMemoryDeduplicator(cfg.DeduplicationTTL)
		dedup := middleware.Deduplicator{
			KeyFactory: func(msg *message.Message) (string, error) { return msg.UUID, nil },
			Repository: r.dedup,
		}
		wmRouter.AddMiddleware(dedup.Middleware)
	}

	if poisonPublisher != nil && cfg.PoisonQueueTopic != "" {
		poisonQueue, err := middleware.PoisonQueue(poisonPublisher, cfg.PoisonQueueTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poisonQueue)
	}

	return r, nil
}

// AddConsumerHandler registers a handler with no output topic: the risk
// engine's video-discovered consumer and the vision dispatcher's
// scan-ready consumer are both of this shape.
func (r *Router) AddConsumerHandler(name, subscribeTopic string, subscriber message.Subscriber, handler message.NoPublishHandlerFunc) *message.Handler {
	h := r.router.AddConsumerHandler(name, subscribeTopic, subscriber, handler)
	r.handlers[name] = h
	return h
}

// AddHandler registers a handler that republishes its output to another
// topic, used by the risk engine to turn video-discovered into scan-ready.
func (r *Router) AddHandler(name, subscribeTopic string, subscriber message.Subscriber, publishTopic string, publisher message.Publisher, handler message.HandlerFunc) *message.Handler {
	h := r.router.AddHandler(name, subscribeTopic, subscriber, publishTopic, publisher, handler)
	r.handlers[name] = h
	return h
}

// Run starts the router and blocks until ctx is cancelled or Close is called.
func (r *Router) Run(ctx context.Context) error {
	r.running = true
	defer func() { r.running = false }()
	return r.router.Run(ctx)
}

// Running returns a channel closed once the router has started handling messages.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close gracefully stops the router, waiting up to CloseTimeout for in-flight handlers.
func (r *Router) Close() error {
	return r.router.Close()
}

// IsRunning reports whether Run is currently blocking.
func (r *Router) IsRunning() bool {
	return r.running
}
