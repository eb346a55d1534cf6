package domain

import (
	"errors"
	"fmt"
)

type Error struct {
	orig error
	msg  string
	code error
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}

	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

func (e *Error) Is(target error) bool {
	return e.code == target
}

func (e *Error) Code() error {
	return e.code
}

func WrapErrorf(orig error, code error, format string, a ...interface{}) error {
	return &Error{
		code: code,
		orig: orig,
		msg:  fmt.Sprintf(format, a...),
	}
}

func Errorf(code error, format string, a ...interface{}) error {
	return WrapErrorf(nil, code, format, a...)
}

var (
	// ErrInvalidCrs will throw if a CRS identifier is unknown, malformed, or cannot be instantiated
	ErrInvalidCrs = errors.New("invalid coordinate reference system")
	// ErrTransformFailure will throw if a coordinate transform fails numerically for a specific point
	ErrTransformFailure = errors.New("coordinate transform failed")
	// ErrEmptyNetwork will throw if zero network elements are supplied
	ErrEmptyNetwork = errors.New("empty railway network")
	// ErrUnprojectable will throw if no network element lies within the search radius of a fix
	ErrUnprojectable = errors.New("no network element within search radius")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("given param is not valid")
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("internal server error")
)

var MessageInternalServerError string = "internal server error"
