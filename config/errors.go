// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package config

import (
	"errors"
	"fmt"
)

type (
	// FileError indicates a configuration file that could not be read or
	// parsed.
	FileError struct {
		Path string
		Err  error
	}

	// EnvError indicates an environment variable that could not be parsed.
	EnvError struct {
		Key string
		Err error
	}

	// InvalidError indicates a setting with an unusable value.
	InvalidError struct {
		Field  string
		Reason string
	}
)

// ErrInvalid is wrapped by every configuration error.
var ErrInvalid = errors.New("invalid configuration")

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrInvalid, e.Path, e.Err)
}

func (e *FileError) Unwrap() []error {
	return []error{ErrInvalid, e.Err}
}

func (e *EnvError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrInvalid, e.Key, e.Err)
}

func (e *EnvError) Unwrap() []error {
	return []error{ErrInvalid, e.Err}
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalid, e.Field, e.Reason)
}

func (*InvalidError) Unwrap() error {
	return ErrInvalid
}
