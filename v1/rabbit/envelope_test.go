package rabbit

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeFromDelivery(t *testing.T) {
	env := newEnvelope(amqp.Delivery{
		Body:        []byte(`{"id":"7"}`),
		Headers:     amqp.Table{HeaderRetryCount: int32(2), "event": "order.created", "attempt": int32(5)},
		MessageId:   "abc",
		ContentType: "application/json",
		Redelivered: true,
	})

	assert.Equal(t, 2, env.RetryCount)
	assert.Equal(t, "abc", env.MessageID)
	assert.True(t, env.Redelivered)
	assert.Equal(t, "order.created", env.Header("event"))
	assert.Equal(t, "5", env.Header("attempt"))
	assert.Equal(t, "", env.Header("missing"))

	var payload struct {
		ID string `json:"id"`
	}
	require.NoError(t, env.Decode(&payload))
	assert.Equal(t, "7", payload.ID)
}

func TestEnvelopeDecodeFailureIsPermanent(t *testing.T) {
	env := &Envelope{Body: []byte("not json")}

	var v map[string]interface{}
	err := env.Decode(&v)

	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, ErrInvalidMessage)
	assert.Equal(t, OutcomeDeadLetter, Resolve(err, 0, 3))
}
