package utils

import "github.com/pkg/errors"

// WrapError annotates err with msg. A nil err stays nil.
func WrapError(err error, msg string) error {
	return errors.Wrap(err, msg)
}

// WrapErrorf annotates err with a formatted message. A nil err stays nil.
func WrapErrorf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
