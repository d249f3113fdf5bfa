package rabbit

import (
	"errors"
	"math"
	"strconv"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Outcome is what happens to a message after its handler ran.
type Outcome int

const (
	// OutcomeSuccess acknowledges the message.
	OutcomeSuccess Outcome = iota
	// OutcomeRetry republishes the message to the retry queue with an
	// incremented retry count, then acknowledges it.
	OutcomeRetry
	// OutcomeDeadLetter republishes the message unchanged to the dead-letter
	// queue, then acknowledges it.
	OutcomeDeadLetter
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetry:
		return "retry"
	case OutcomeDeadLetter:
		return "dead_letter"
	default:
		return "unknown"
	}
}

// Decide returns OutcomeRetry while retryCount is below maxRetries and
// OutcomeDeadLetter once the budget is spent.
func Decide(retryCount, maxRetries int) Outcome {
	if retryCount < maxRetries {
		return OutcomeRetry
	}
	return OutcomeDeadLetter
}

// Resolve maps a handler result to an Outcome. Errors marked with Permanent
// skip the retry budget.
func Resolve(err error, retryCount, maxRetries int) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	if IsPermanent(err) {
		return OutcomeDeadLetter
	}
	return Decide(retryCount, maxRetries)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Handlers return it for payloads
// that will never succeed, such as undecodable bodies.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err, or any error it wraps, was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// RetryHeaders returns a copy of headers with HeaderRetryCount set to
// retryCount+1. The input is not modified.
func RetryHeaders(headers amqp.Table, retryCount int) amqp.Table {
	out := make(amqp.Table, len(headers)+1)
	for k, v := range headers {
		out[k] = v
	}
	if retryCount < 0 {
		retryCount = 0
	}
	out[HeaderRetryCount] = int32(retryCount + 1)
	return out
}

// RetryCount reads HeaderRetryCount from headers. Missing, unparsable or
// negative values count as zero.
func RetryCount(headers amqp.Table) int {
	v, ok := headers[HeaderRetryCount]
	if !ok || v == nil {
		return 0
	}

	var n int64
	switch val := v.(type) {
	case int:
		n = int64(val)
	case int8:
		n = int64(val)
	case int16:
		n = int64(val)
	case int32:
		n = int64(val)
	case int64:
		n = val
	case uint8:
		n = int64(val)
	case uint16:
		n = int64(val)
	case uint32:
		n = int64(val)
	case uint64:
		if val > math.MaxInt32 {
			return math.MaxInt32
		}
		n = int64(val)
	case float32:
		return floatCount(float64(val))
	case float64:
		return floatCount(val)
	case string:
		return stringCount(val)
	case []byte:
		return stringCount(string(val))
	default:
		return 0
	}

	if n < 0 {
		return 0
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

func floatCount(f float64) int {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

func stringCount(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0
		}
		if n > math.MaxInt32 {
			return math.MaxInt32
		}
		return int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return floatCount(f)
	}
	return 0
}
