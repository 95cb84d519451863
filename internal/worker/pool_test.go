package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/tone-platform/internal/tone"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// acks records what happened to each delivery tag.
type acks struct {
	mu       sync.Mutex
	acked    []uint64
	nacked   []uint64
	requeued []uint64
	settled  chan struct{}
}

func newAcks() *acks { return &acks{settled: make(chan struct{}, 64)} }

func (a *acks) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	a.acked = append(a.acked, tag)
	a.mu.Unlock()
	a.settled <- struct{}{}
	return nil
}

func (a *acks) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	if requeue {
		a.requeued = append(a.requeued, tag)
	} else {
		a.nacked = append(a.nacked, tag)
	}
	a.mu.Unlock()
	a.settled <- struct{}{}
	return nil
}

func (a *acks) Reject(tag uint64, requeue bool) error { return a.Nack(tag, false, requeue) }

func (a *acks) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-a.settled:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of %d deliveries settled", i, n)
		}
	}
}

type retries struct {
	mu       sync.Mutex
	attempts []int
	err      error
}

func (r *retries) Retry(ctx context.Context, d amqp.Delivery, attempt int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt)
	return r.err
}

func delivery(a *acks, tag uint64, body string, attempt int32) amqp.Delivery {
	return amqp.Delivery{
		Acknowledger: a,
		DeliveryTag:  tag,
		Body:         []byte(body),
		Headers:      amqp.Table{"x-attempt": attempt},
	}
}

func TestPool_AcksRetriesAndDeadLetters(t *testing.T) {
	a := newAcks()
	r := &retries{}
	handled := make(map[string]int)
	var mu sync.Mutex

	p := &Pool{
		Concurrency: 3,
		MaxAttempts: 3,
		Retrier:     r,
		Log:         zap.NewNop(),
		Handle: func(ctx context.Context, id string) error {
			mu.Lock()
			handled[id]++
			mu.Unlock()
			switch id {
			case "upstream", "exhausted":
				return tone.Upstream("Both web search and reasoning fallback failed", errors.New("down"))
			case "invalid":
				return tone.Validation("Song title is required and cannot be empty")
			}
			return nil
		},
	}

	deliveries := make(chan amqp.Delivery)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, deliveries) }()

	deliveries <- delivery(a, 1, `{"job_id":"ok"}`, 1)
	deliveries <- delivery(a, 2, `{"job_id":"upstream"}`, 1)
	deliveries <- delivery(a, 3, `{"job_id":"exhausted"}`, 3)
	deliveries <- delivery(a, 4, `{"job_id":"invalid"}`, 1)
	deliveries <- delivery(a, 5, `not json`, 1)
	a.wait(t, 5)

	cancel()
	require.NoError(t, <-done)

	assert.ElementsMatch(t, []uint64{1, 2}, a.acked)
	assert.ElementsMatch(t, []uint64{3, 4, 5}, a.nacked)
	assert.Equal(t, []int{2}, r.attempts)
	assert.Equal(t, 1, handled["ok"])
}

func TestPool_RetryPublishFailureDeadLetters(t *testing.T) {
	a := newAcks()
	p := &Pool{
		Concurrency: 1,
		MaxAttempts: 5,
		Retrier:     &retries{err: errors.New("channel closed")},
		Handle: func(ctx context.Context, id string) error {
			return tone.Upstream("Research request failed", errors.New("down"))
		},
	}

	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- delivery(a, 7, `{"job_id":"j"}`, 1)
	close(deliveries)

	err := p.Run(context.Background(), deliveries)
	assert.ErrorIs(t, err, ErrDeliveriesClosed)
	a.wait(t, 1)
	assert.Equal(t, []uint64{7}, a.nacked)
}

func TestPool_ShutdownRequeuesJobs(t *testing.T) {
	a := newAcks()
	started := make(chan struct{}, 3)
	var handled int
	var mu sync.Mutex
	p := &Pool{
		Concurrency: 1,
		MaxAttempts: 3,
		Retrier:     &retries{},
		Handle: func(ctx context.Context, id string) error {
			mu.Lock()
			handled++
			mu.Unlock()
			started <- struct{}{}
			<-ctx.Done()
			return tone.Upstream("Research request failed", ctx.Err())
		},
	}

	deliveries := make(chan amqp.Delivery, 3)
	for tag := uint64(1); tag <= 3; tag++ {
		deliveries <- delivery(a, tag, `{"job_id":"j"}`, 1)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, deliveries) }()

	<-started
	require.Eventually(t, func() bool { return len(deliveries) == 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Empty(t, a.acked)
	assert.Empty(t, a.nacked)
	assert.ElementsMatch(t, []uint64{1, 2, 3}, a.requeued)
	assert.Equal(t, 1, handled)
}
