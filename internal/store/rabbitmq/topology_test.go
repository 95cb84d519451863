package rabbitmq

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestQueueNames(t *testing.T) {
	assert.Equal(t, "research_jobs.retry", RetryQueue("research_jobs"))
	assert.Equal(t, "research_jobs.dlq", DeadLetterQueue("research_jobs"))
}

func TestAttempt(t *testing.T) {
	assert.Equal(t, 1, Attempt(amqp.Delivery{}))
	assert.Equal(t, 3, Attempt(amqp.Delivery{Headers: amqp.Table{attemptHeader: int32(3)}}))
	assert.Equal(t, 2, Attempt(amqp.Delivery{Headers: amqp.Table{attemptHeader: int64(2)}}))
	assert.Equal(t, 1, Attempt(amqp.Delivery{Headers: amqp.Table{attemptHeader: "x"}}))
}
