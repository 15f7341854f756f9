package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// StreamPublisher appends events to a capped Redis stream.
type StreamPublisher struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

func NewStreamPublisher(client redis.Cmdable, stream string) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: 100000}
}

// Publish adds one entry; values must be flat strings or numbers.
func (p *StreamPublisher) Publish(ctx context.Context, values map[string]interface{}) error {
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Err()
}
