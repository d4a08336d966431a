package manager

import "errors"

// Kind is the closed set of failure categories surfaced to job payloads.
type Kind string

const (
	KindConfig       Kind = "config_error"
	KindModelLoad    Kind = "model_load_error"
	KindInference    Kind = "inference_error"
	KindInvalidInput Kind = "invalid_input"
)

// Error carries a Kind, the failing operation and the cause. Its string form
// is "<kind>: <op>: <cause>".
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	s := string(e.Kind)
	if e.Op != "" {
		s += ": " + e.Op
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// ErrConfig signals a missing or malformed configuration input (startup-fatal).
func ErrConfig(op string, err error) error { return &Error{Kind: KindConfig, Op: op, Err: err} }

// ErrModelLoad signals that the tokenizer or model could not be loaded (startup-fatal).
func ErrModelLoad(op string, err error) error { return &Error{Kind: KindModelLoad, Op: op, Err: err} }

// ErrInference signals a failure while translating a single request.
func ErrInference(op string, err error) error { return &Error{Kind: KindInference, Op: op, Err: err} }

// ErrInvalidInput signals a malformed job or an unusable language tag.
func ErrInvalidInput(op string, err error) error {
	return &Error{Kind: KindInvalidInput, Op: op, Err: err}
}

// KindOf returns the kind of err if it (or anything it wraps) is an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func isKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

// IsConfig reports whether err is a configuration error.
func IsConfig(err error) bool { return isKind(err, KindConfig) }

// IsModelLoad reports whether err is a model load error.
func IsModelLoad(err error) bool { return isKind(err, KindModelLoad) }

// IsInference reports whether err is a per-request inference error.
func IsInference(err error) bool { return isKind(err, KindInference) }

// IsInvalidInput reports whether err is an invalid-input error.
func IsInvalidInput(err error) bool { return isKind(err, KindInvalidInput) }
