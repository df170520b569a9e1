package search

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/Kenfack-franck/jobHunterAi/pkg/natsutil"
)

// NATSQueue publishes deferred batch jobs over NATS.
type NATSQueue struct {
	nc *nats.Conn
}

// NewNATSQueue returns a queue over an established connection.
func NewNATSQueue(nc *nats.Conn) *NATSQueue {
	return &NATSQueue{nc: nc}
}

// PublishBatch sends the job on the batch subject with trace propagation.
func (q *NATSQueue) PublishBatch(ctx context.Context, job BatchJob) error {
	return natsutil.Publish(ctx, q.nc, BatchSubject, job)
}

// SubscribeBatches registers a worker-side handler for deferred batches.
func SubscribeBatches(nc *nats.Conn, handler func(context.Context, BatchJob)) (*nats.Subscription, error) {
	return natsutil.Subscribe(nc, BatchSubject, handler)
}
