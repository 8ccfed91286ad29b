// Package errs defines the error kinds shared by the catalog, composer and
// schedule resolver. Callers match on kind with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindInvalidArgument
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindInvalidArgument:
		return "invalid argument"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is.
var (
	NotFound        = &Error{Kind: KindNotFound}
	Conflict        = &Error{Kind: KindConflict}
	InvalidArgument = &Error{Kind: KindInvalidArgument}
	Unsupported     = &Error{Kind: KindUnsupported}
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

// Is reports a match on Kind so that any *Error of the same kind satisfies
// errors.Is against the package sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Invalidf(format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func Unsupportedf(format string, args ...any) error {
	return &Error{Kind: KindUnsupported, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ItemError records why one element of a batch operation was skipped.
type ItemError struct {
	MediaID int    `json:"media_id"`
	Reason  string `json:"reason"`
	Kind    Kind   `json:"-"`
}

func NewItemError(mediaID int, err error) ItemError {
	return ItemError{MediaID: mediaID, Reason: err.Error(), Kind: KindOf(err)}
}
