package rabbit

import (
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Envelope is one consumed message as handed to a Handler.
type Envelope struct {
	// Body is the raw payload.
	Body []byte

	// Headers are the AMQP headers as received. Handlers must not modify them.
	Headers amqp.Table

	// RetryCount is how many times the message already went through the retry queue.
	RetryCount int

	MessageID   string
	ContentType string
	Timestamp   time.Time
	Redelivered bool
}

func newEnvelope(d amqp.Delivery) *Envelope {
	return &Envelope{
		Body:        d.Body,
		Headers:     d.Headers,
		RetryCount:  RetryCount(d.Headers),
		MessageID:   d.MessageId,
		ContentType: d.ContentType,
		Timestamp:   d.Timestamp,
		Redelivered: d.Redelivered,
	}
}

// Decode unmarshals the JSON body into v. A body that does not decode is
// returned as a Permanent error, since retrying it cannot help.
func (e *Envelope) Decode(v interface{}) error {
	if err := json.Unmarshal(e.Body, v); err != nil {
		return Permanent(fmt.Errorf("%w: %v", ErrInvalidMessage, err))
	}
	return nil
}

// Header returns the header value for key as a string, or "" when absent.
func (e *Envelope) Header(key string) string {
	v, ok := e.Headers[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
