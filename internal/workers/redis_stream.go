package workers

import (
	"context"
	"errors"
	"strings"
	"time"

	go_redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"insta-giveaway-backend/internal/common/logger"
	"insta-giveaway-backend/internal/metrics"
)

// EventHandler consumes one audit event.
type EventHandler interface {
	ApplyEvent(ctx context.Context, values map[string]interface{}) error
}

type StreamConfig struct {
	Key      string
	Group    string
	Consumer string
}

// RedisStreamWorker reads the audit stream through a consumer group and
// feeds every message to the handler.
type RedisStreamWorker struct {
	rdb     go_redis.Cmdable
	handler EventHandler
	cfg     StreamConfig
	log     zerolog.Logger
}

func NewRedisStreamWorker(rdb go_redis.Cmdable, handler EventHandler, cfg StreamConfig) *RedisStreamWorker {
	return &RedisStreamWorker{
		rdb:     rdb,
		handler: handler,
		cfg:     cfg,
		log:     logger.Component("stream_worker"),
	}
}

// Start blocks until ctx is cancelled.
func (w *RedisStreamWorker) Start(ctx context.Context) error {
	err := w.rdb.XGroupCreateMkStream(ctx, w.cfg.Key, w.cfg.Group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		w.log.Error().Err(err).Str("stream", w.cfg.Key).Msg("Error creating consumer group")
	}

	w.log.Info().Str("stream", w.cfg.Key).Str("group", w.cfg.Group).Msg("Starting Redis stream worker")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping Redis stream worker")
			return nil
		default:
		}

		entries, err := w.rdb.XReadGroup(ctx, &go_redis.XReadGroupArgs{
			Group:    w.cfg.Group,
			Consumer: w.cfg.Consumer,
			Streams:  []string{w.cfg.Key, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, go_redis.Nil) || ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Error reading from stream")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}

		for _, stream := range entries {
			for _, msg := range stream.Messages {
				w.process(ctx, msg)
			}
		}
	}
}

// process handles one message. It is acked even when the handler fails.
func (w *RedisStreamWorker) process(ctx context.Context, msg go_redis.XMessage) {
	action, _ := msg.Values["action_type"].(string)
	if err := w.handler.ApplyEvent(ctx, msg.Values); err != nil {
		metrics.StreamEvents.WithLabelValues(action, "error").Inc()
		w.log.Error().Err(err).Str("message_id", msg.ID).Str("action", action).Msg("Error processing stream event")
	} else {
		metrics.StreamEvents.WithLabelValues(action, "ok").Inc()
	}
	if err := w.rdb.XAck(ctx, w.cfg.Key, w.cfg.Group, msg.ID).Err(); err != nil {
		w.log.Error().Err(err).Str("message_id", msg.ID).Msg("Error acknowledging stream event")
	}
}
