package tone

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindConfig
	KindUpstream
	KindSchema
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConfig:
		return "config"
	case KindUpstream:
		return "upstream"
	case KindSchema:
		return "schema"
	case KindStore:
		return "store"
	}
	return "unknown"
}

// Error is the failure type of the rule layers. Msg is safe to show to
// clients; Err carries the cause for logs.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }

// NotConfigured is returned when credentials or model identifiers are
// missing. The client message is fixed.
func NotConfigured(cause error) error {
	return &Error{Kind: KindConfig, Msg: "Server not configured", Err: cause}
}

func Upstream(msg string, cause error) error {
	return &Error{Kind: KindUpstream, Msg: msg, Err: cause}
}

func Schema(msg string) error { return &Error{Kind: KindSchema, Msg: msg} }

func Store(msg string, cause error) error {
	return &Error{Kind: KindStore, Msg: msg, Err: cause}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the client-facing message of err, or fallback when err is
// not an *Error.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return fallback
}
