package stay

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide whether to fall back.
type Kind int

const (
	// KindUnknown is reported for errors that did not originate in this module.
	KindUnknown Kind = iota
	// KindValidation marks malformed or contradictory caller input. Never retried.
	KindValidation
	// KindTransport marks network, timeout and HTTP status failures.
	KindTransport
	// KindCredential marks a failure to obtain or use the GraphQL API key.
	KindCredential
	// KindParse marks an upstream payload that could not be normalized.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindCredential:
		return "credential"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Sentinel errors. Check with errors.Is.
var (
	// ErrRateLimited indicates the upstream site answered 429.
	ErrRateLimited = errors.New("rate limited by upstream")
	// ErrListingNotFound indicates the upstream site answered 404 for a listing.
	ErrListingNotFound = errors.New("listing not found")
	// ErrNoData indicates a parser found no usable payload in its input.
	ErrNoData = errors.New("no data found")
)

// Error is the typed failure returned by parsers, clients and validation.
type Error struct {
	Kind   Kind
	Source string // raw source that failed: "graphql", "html", or empty
	Stage  string // operation or parser stage, e.g. "search" or "detail.sections"
	Err    error
}

func (e *Error) Error() string {
	msg := ""
	if e.Source != "" {
		msg = e.Source + ": "
	}
	if e.Stage != "" {
		msg += e.Stage + ": "
	}
	if e.Err != nil {
		msg += e.Err.Error()
	} else {
		msg += e.Kind.String() + " error"
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validationf returns a validation error with a formatted message.
func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

// Transport wraps a network or HTTP failure.
func Transport(source, stage string, err error) error {
	return &Error{Kind: KindTransport, Source: source, Stage: stage, Err: err}
}

// Credential wraps a failure to derive or use the API credential.
func Credential(source, stage string, err error) error {
	return &Error{Kind: KindCredential, Source: source, Stage: stage, Err: err}
}

// Parse reports that a payload could not be normalized at the given stage.
func Parse(source, stage, reason string) error {
	return &Error{Kind: KindParse, Source: source, Stage: stage, Err: fmt.Errorf("%w: %s", ErrNoData, reason)}
}

// WithSource returns err tagged with source when it is an *Error without one.
func WithSource(err error, source string) error {
	var e *Error
	if errors.As(err, &e) && e.Source == "" {
		cp := *e
		cp.Source = source
		return &cp
	}
	return err
}

// KindOf reports the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether err should route to another raw source.
// Validation failures are caller bugs and never are.
func IsRetryable(err error) bool {
	return err != nil && KindOf(err) != KindValidation
}
