package upload

import (
	"errors"
	"fmt"
)

// Kind classifies terminal upload failures.
type Kind string

const (
	// KindInvalidType: the declared media type is not in the category's
	// allowed set. No network call was made.
	KindInvalidType Kind = "invalid_type"

	// KindTooLarge: the file exceeds the category's size ceiling. No network
	// call was made.
	KindTooLarge Kind = "too_large"

	// KindBadDimensions: the decoded image falls outside the configured
	// dimension box. No network call was made.
	KindBadDimensions Kind = "bad_dimensions"

	// KindQuotaExceeded: the caller's daily counter reached the ceiling. No
	// network call was made. A failed quota lookup never produces this; the
	// check fails open.
	KindQuotaExceeded Kind = "quota_exceeded"

	// KindRemoteRejected: the storage endpoint answered with a non-2xx
	// status. Not retried.
	KindRemoteRejected Kind = "remote_rejected"

	// KindTransport: the request never completed at the network level. Not
	// retried; retry is the caller's responsibility.
	KindTransport Kind = "transport"
)

// Error is a typed terminal failure of an upload job.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("upload: %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an upload Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.Kind == kind
}

func failf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
