// Package worker runs research jobs from the queue with a fixed number of
// goroutines.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/tone-platform/internal/store/rabbitmq"
	"github.com/suPer8Hu/tone-platform/internal/tone"
	"go.uber.org/zap"
)

// ErrDeliveriesClosed means the broker closed the consumer channel.
var ErrDeliveriesClosed = errors.New("delivery channel closed")

type Handler func(ctx context.Context, jobID string) error

// Retrier sends a delivery back for another attempt.
type Retrier interface {
	Retry(ctx context.Context, d amqp.Delivery, attempt int) error
}

type Pool struct {
	Concurrency int
	MaxAttempts int
	Handle      Handler
	Retrier     Retrier
	Log         *zap.Logger
}

// Run dispatches deliveries to the workers until ctx is done or the channel
// closes. In-flight jobs finish before it returns; deliveries still buffered
// at shutdown are requeued on the broker.
func (p *Pool) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	n := p.Concurrency
	if n <= 0 {
		n = 1
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}

	jobs := make(chan amqp.Delivery, n*2)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(workerID int) {
			defer wg.Done()
			wl := log.With(zap.Int("worker", workerID))
			for d := range jobs {
				p.process(ctx, wl, d)
			}
		}(i)
	}

	drain := func() {
		close(jobs)
		wg.Wait()
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			drain()
			return nil
		case d, ok := <-deliveries:
			if !ok {
				log.Warn("delivery channel closed")
				drain()
				return ErrDeliveriesClosed
			}
			jobs <- d
		}
	}
}

func (p *Pool) process(ctx context.Context, log *zap.Logger, d amqp.Delivery) {
	var m rabbitmq.JobMessage
	if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
		log.Warn("bad message", zap.ByteString("body", d.Body), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if ctx.Err() != nil {
		requeue(log, d, m.JobID)
		return
	}

	start := time.Now()
	attempt := rabbitmq.Attempt(d)
	err := p.Handle(ctx, m.JobID)
	if err == nil {
		if err := d.Ack(false); err != nil {
			log.Error("ack failed", zap.String("job_id", m.JobID), zap.Error(err))
		}
		return
	}
	if ctx.Err() != nil {
		requeue(log, d, m.JobID)
		return
	}

	log.Warn("job failed",
		zap.String("job_id", m.JobID),
		zap.Int("attempt", attempt),
		zap.Duration("cost", time.Since(start)),
		zap.Error(err),
	)
	if p.Retrier != nil && attempt < p.MaxAttempts && retryable(ctx, err) {
		rerr := p.Retrier.Retry(ctx, d, attempt+1)
		if rerr == nil {
			_ = d.Ack(false)
			return
		}
		log.Error("retry publish failed", zap.String("job_id", m.JobID), zap.Error(rerr))
	}
	// dead-letter
	_ = d.Nack(false, false)
}

// requeue hands a delivery back to the broker untouched during shutdown.
func requeue(log *zap.Logger, d amqp.Delivery, jobID string) {
	if err := d.Nack(false, true); err != nil {
		log.Error("requeue failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

// retryable reports whether another attempt could succeed: upstream AI
// failures are transient, bad input and missing jobs are not.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return tone.KindOf(err) == tone.KindUpstream
}
