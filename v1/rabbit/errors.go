package rabbit

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Sentinel errors returned by this package. TranslateError maps broker and
// network failures onto them so callers can branch with errors.Is.
var (
	// Session state.
	ErrConnectionFailed = errors.New("connection failed")
	ErrConnectionClosed = errors.New("connection closed")
	ErrNotConnected     = errors.New("not connected")
	ErrChannelClosed    = errors.New("channel closed")
	ErrChannelError     = errors.New("channel error")
	ErrShutdown         = errors.New("shutdown")

	// Broker refusals.
	ErrAccessDenied         = errors.New("access denied")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrVirtualHostNotFound  = errors.New("virtual host not found")
	ErrQueueNotFound        = errors.New("queue not found")
	ErrResourceLocked       = errors.New("resource locked")
	ErrNotAllowed           = errors.New("not allowed")
	ErrInternalError        = errors.New("internal error")
	ErrProtocolError        = errors.New("protocol error")

	// ErrTopologyConflict means a queue or exchange exists with arguments
	// other than the declared ones.
	ErrTopologyConflict = errors.New("topology conflict")

	// Message flow.
	ErrMessageTooLarge = errors.New("message too large")
	ErrInvalidMessage  = errors.New("invalid message")
	ErrMessageNacked   = errors.New("message nacked")
	ErrPublishFailed   = errors.New("publish failed")
	ErrAckFailed       = errors.New("acknowledge failed")
	ErrNackFailed      = errors.New("negative acknowledge failed")
	ErrHandlerPanic    = errors.New("handler panic")

	// Transport.
	ErrTimeout      = errors.New("timeout")
	ErrNetworkError = errors.New("network error")
	ErrTLSError     = errors.New("TLS error")

	ErrConfigurationError = errors.New("configuration error")
)

// PublishError is returned by Publisher when a message could not be sent.
// Attempts is zero when the message failed before any send, e.g. on
// serialization.
type PublishError struct {
	Queue    string
	Attempts int
	Err      error
}

func (e *PublishError) Error() string {
	if e.Attempts == 0 {
		return fmt.Sprintf("publish to %q: %v", e.Queue, e.Err)
	}
	return fmt.Sprintf("publish to %q failed after %d attempts: %v", e.Queue, e.Attempts, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Is reports every PublishError as ErrPublishFailed.
func (e *PublishError) Is(target error) bool {
	return target == ErrPublishFailed
}

// TranslateError maps an amqp091 or network error onto one of the sentinels.
// The result wraps the sentinel and keeps the original text, e.g.
// "topology conflict: Exception (406) Reason: ...". Errors that already carry
// a sentinel, and errors matching no known pattern, are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if isSentinel(err) {
		return err
	}
	if sentinel := classify(err); isSentinel(sentinel) {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	return err
}

// classify returns the sentinel for err. Anything else it returns means no
// pattern matched.
func classify(err error) error {
	if errors.Is(err, amqp.ErrClosed) {
		return ErrChannelClosed
	}

	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) {
		return translateAMQPError(amqpErr)
	}

	// syscall.Errno also satisfies net.Error
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ECONNABORTED, syscall.EPIPE:
			return ErrConnectionFailed
		case syscall.ETIMEDOUT:
			return ErrTimeout
		default:
			return ErrNetworkError
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrTimeout
		}
		return ErrNetworkError
	}

	return translateByErrorMessage(strings.ToLower(err.Error()), err)
}

func translateAMQPError(amqpErr *amqp.Error) error {
	switch amqpErr.Code {
	// connection level
	case amqp.ConnectionForced:
		return ErrConnectionClosed
	case amqp.InvalidPath:
		return ErrVirtualHostNotFound
	case amqp.AccessRefused:
		return ErrAccessDenied
	case amqp.NotFound:
		return ErrQueueNotFound
	case amqp.ResourceLocked:
		return ErrResourceLocked
	case amqp.PreconditionFailed:
		return ErrTopologyConflict

	// channel level
	case amqp.ContentTooLarge:
		return ErrMessageTooLarge
	case amqp.NoRoute, amqp.NoConsumers:
		return ErrPublishFailed
	case amqp.ChannelError:
		return ErrChannelError
	case amqp.NotAllowed:
		return ErrNotAllowed
	case amqp.InternalError:
		return ErrInternalError

	// frame level
	case amqp.SyntaxError, amqp.CommandInvalid, amqp.FrameError, amqp.UnexpectedFrame:
		return ErrProtocolError

	default:
		return translateByErrorMessage(strings.ToLower(amqpErr.Reason), amqpErr)
	}
}

// translateByErrorMessage is the string matching fallback
func translateByErrorMessage(errMsg string, originalErr error) error {
	switch {
	case strings.Contains(errMsg, "channel/connection is not open"),
		strings.Contains(errMsg, "channel closed"):
		return ErrChannelClosed
	case strings.Contains(errMsg, "connection refused"),
		strings.Contains(errMsg, "no such host"):
		return ErrConnectionFailed
	case strings.Contains(errMsg, "connection closed"),
		strings.Contains(errMsg, "connection reset"):
		return ErrConnectionClosed
	case strings.Contains(errMsg, "access refused"),
		strings.Contains(errMsg, "login refused"),
		strings.Contains(errMsg, "authentication failed"):
		return ErrAuthenticationFailed
	case strings.Contains(errMsg, "precondition_failed"),
		strings.Contains(errMsg, "inequivalent arg"):
		return ErrTopologyConflict
	case strings.Contains(errMsg, "tls"),
		strings.Contains(errMsg, "x509"),
		strings.Contains(errMsg, "certificate"):
		return ErrTLSError
	case strings.Contains(errMsg, "timeout"),
		strings.Contains(errMsg, "deadline exceeded"):
		return ErrTimeout
	default:
		return originalErr
	}
}

func isSentinel(err error) bool {
	for _, s := range []error{
		ErrConnectionFailed, ErrConnectionClosed, ErrNotConnected, ErrChannelClosed,
		ErrChannelError, ErrAccessDenied, ErrAuthenticationFailed, ErrVirtualHostNotFound,
		ErrQueueNotFound, ErrTopologyConflict, ErrResourceLocked, ErrMessageTooLarge,
		ErrInvalidMessage, ErrMessageNacked, ErrPublishFailed, ErrAckFailed, ErrNackFailed,
		ErrHandlerPanic, ErrNotAllowed, ErrInternalError, ErrProtocolError, ErrTimeout,
		ErrNetworkError, ErrTLSError, ErrShutdown, ErrConfigurationError,
	} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}

// IsConnectionError returns true if the error means there is no usable session
func IsConnectionError(err error) bool {
	switch {
	case errors.Is(err, ErrConnectionFailed),
		errors.Is(err, ErrConnectionClosed),
		errors.Is(err, ErrNotConnected),
		errors.Is(err, ErrChannelClosed):
		return true
	default:
		return false
	}
}

// IsRetryableError reports whether err is worth another attempt. Errors that
// carry no sentinel are unclassified and count as retryable; among the
// sentinels only transient ones do.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if !isSentinel(err) {
		return true
	}
	switch {
	case IsConnectionError(err),
		errors.Is(err, ErrChannelError),
		errors.Is(err, ErrMessageNacked),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrNetworkError),
		errors.Is(err, ErrInternalError),
		errors.Is(err, ErrResourceLocked):
		return true
	default:
		return false
	}
}
