// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package eventbus

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/tomtom215/vigilnet/internal/logging"
)

// Bus bundles the publisher, subscriber factory, and router the three
// pipeline stages (discovery, risk engine, vision dispatcher) share.
type Bus struct {
	cfg        NATSConfig
	publisher  message.Publisher
	subscriber message.Subscriber
	router     *Router
	poisonPub  message.Publisher
	embedded   *embeddedServer
}

// New dials (or embeds) NATS JetStream and constructs a ready-to-use Bus.
// The caller registers topic handlers on Router() (e.g. AddConsumerHandler)
// before calling RunRouter.
func New(ctx context.Context, cfg NATSConfig, routerCfg RouterConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermillLoggerAdapter{}
	}

	var embedded *embeddedServer
	if cfg.EmbeddedServer {
		var err error
		embedded, err = startEmbeddedServer(cfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded nats server: %w", err)
		}
		cfg.URL = embedded.clientURL
		logging.Ctx(ctx).Info().Str("url", cfg.URL).Msg("embedded nats server ready")
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).Msg("nats connection lost, reconnecting")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Ctx(ctx).Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}

	pubConfig := wmnats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmnats.NATSMarshaler{},
		JetStream: wmnats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			TrackMsgId:    true,
		},
	}
	pub, err := wmnats.NewPublisher(pubConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	subConfig := wmnats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   30 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmnats.NATSMarshaler{},
		JetStream: wmnats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			AckAsync:      false,
			DurablePrefix: cfg.DurableName,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.MaxDeliver(5),
				natsgo.MaxAckPending(1000),
				natsgo.DeliverNew(),
			},
		},
	}
	sub, err := wmnats.NewSubscriber(subConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats subscriber: %w", err)
	}

	poisonPubConfig := pubConfig
	poisonPub, err := wmnats.NewPublisher(poisonPubConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create poison-queue publisher: %w", err)
	}

	router, err := NewRouter(routerCfg, poisonPub, logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	return &Bus{
		cfg:        cfg,
		publisher:  pub,
		subscriber: sub,
		router:     router,
		poisonPub:  poisonPub,
		embedded:   embedded,
	}, nil
}

// Router exposes the underlying router so cmd/server can start it
// alongside the supervisor tree and wait on Running().
func (b *Bus) Router() *Router { return b.router }

// RunRouter runs the bus's Watermill router until ctx is cancelled or
// the router fails, satisfying services.EventBus for the supervisor
// tree's pipeline layer.
func (b *Bus) RunRouter(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Subscriber exposes the shared JetStream subscriber for handler registration.
func (b *Bus) Subscriber() message.Subscriber { return b.subscriber }

// Publisher exposes the shared JetStream publisher for handler registration.
func (b *Bus) Publisher() message.Publisher { return b.publisher }

// publishJSON marshals payload with goccy/go-json and publishes it to topic,
// setting the NATS message-ID header from the message UUID for dedup.
func (b *Bus) publishJSON(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	return b.publisher.Publish(topic, msg)
}

// PublishVideoDiscovered sends a VideoDiscoveredEvent to the risk engine.
// ctx carries no Watermill-level meaning (message.Publisher.Publish takes
// none) but keeps this method's signature uniform with every other
// context-carrying call in the pipeline.
func (b *Bus) PublishVideoDiscovered(_ context.Context, evt VideoDiscoveredEvent) error {
	return b.publishJSON(TopicVideoDiscovered, evt)
}

// PublishScanReady sends a ScanReadyEvent to the vision dispatcher.
func (b *Bus) PublishScanReady(_ context.Context, evt ScanReadyEvent) error {
	return b.publishJSON(TopicScanReady, evt)
}

// PublishVisionFeedback publishes a VisionFeedbackEvent on the
// vision-feedback topic (no handler subscribes to it).
func (b *Bus) PublishVisionFeedback(_ context.Context, evt VisionFeedbackEvent) error {
	return b.publishJSON(TopicVisionFeedback, evt)
}

// Close shuts down the publisher, subscriber, and poison-queue publisher.
func (b *Bus) Close() error {
	var firstErr error
	for _, closer := range []interface{ Close() error }{b.publisher, b.subscriber, b.poisonPub} {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if b.embedded != nil {
		b.embedded.Shutdown()
	}
	return firstErr
}

// watermillLoggerAdapter bridges zerolog into watermill.LoggerAdapter so
// router and connection diagnostics flow through the same sink as the
// rest of the pipeline instead of Watermill's own stdout logger.
type watermillLoggerAdapter struct {
	fields watermill.LogFields
}

func (l watermillLoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	logging.Ctx(context.Background()).Error().Err(err).Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l watermillLoggerAdapter) Info(msg string, fields watermill.LogFields) {
	logging.Ctx(context.Background()).Info().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l watermillLoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	logging.Ctx(context.Background()).Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l watermillLoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	logging.Ctx(context.Background()).Trace().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l watermillLoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	merged := make(watermill.LogFields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return watermillLoggerAdapter{fields: merged}
}
