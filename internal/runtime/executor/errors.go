package executor

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/codex-k8s/http-executor/internal/request"
)

var (
	// ErrInvalidVerb is returned when the bound verb is not an HTTP token.
	ErrInvalidVerb = errors.New("invalid verb")
	// ErrMissingCodec is returned when Execute is called with a nil codec.
	ErrMissingCodec = errors.New("missing codec")
	// ErrNegativeTimeout is returned for a negative WithTimeout value.
	ErrNegativeTimeout = errors.New("negative timeout")
	// ErrResponseTooLarge wraps transport failures for bodies over the limit.
	ErrResponseTooLarge = errors.New("response body too large")
	// ErrUnexpectedStatus wraps status failures under ExpectSuccess.
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// Kind classifies a Failure.
type Kind int

const (
	// KindInternal signals a programming error or an unexpected condition.
	KindInternal Kind = iota
	// KindTransport means the exchange could not be completed on the wire.
	KindTransport
	// KindTimeout means the call deadline elapsed.
	KindTimeout
	// KindDecode means the body could not be read with the call codec.
	KindDecode
	// KindCanceled means the caller canceled the context.
	KindCanceled
	// KindStatus means a non-2xx status under ExpectSuccess.
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindDecode:
		return "decode"
	case KindCanceled:
		return "canceled"
	case KindStatus:
		return "status"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Failure is the single error type returned by Execute.
type Failure struct {
	// Kind classifies the failure.
	Kind Kind
	// Verb is the executor verb.
	Verb request.Verb
	// URL is the request target.
	URL string
	// Err is the underlying cause.
	Err error
	// Response is the received response, when one arrived.
	Response *Response
	// Body holds the raw bytes read before failing, if any.
	Body []byte
}

func (f *Failure) Error() string {
	if f.URL == "" {
		return fmt.Sprintf("%s request: %s failure: %v", f.Verb, f.Kind, f.Err)
	}
	return fmt.Sprintf("%s %s: %s failure: %v", f.Verb, f.URL, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}

// KindOf returns the failure kind of err; errors that are not failures are internal.
func KindOf(err error) Kind {
	if failure, ok := AsFailure(err); ok {
		return failure.Kind
	}
	return KindInternal
}

// IsTimeout reports whether err is a timeout failure.
func IsTimeout(err error) bool { return err != nil && KindOf(err) == KindTimeout }

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool { return err != nil && KindOf(err) == KindTransport }

// IsDecode reports whether err is a decode failure.
func IsDecode(err error) bool { return err != nil && KindOf(err) == KindDecode }

// IsInternal reports whether err is an internal failure. Non-nil errors that
// are not failures count as internal.
func IsInternal(err error) bool { return err != nil && KindOf(err) == KindInternal }

// classify maps a round-trip error to a failure kind. ctx is the call context
// carrying the exchange deadline.
func classify(ctx context.Context, err error) Kind {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return KindTimeout
		}
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	return KindTransport
}
