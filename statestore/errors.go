// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package statestore

import (
	"errors"
	"fmt"
	"log/slog"
)

type (
	// ReadError indicates a record that exists but could not be read. It is
	// only ever logged; loads treat it as an absent record.
	ReadError struct {
		Path string
		Err  error
	}

	// WriteError indicates a record that could not be saved.
	WriteError struct {
		Path string
		Err  error
	}
)

var (
	ErrRead  = errors.New("state read failed")
	ErrWrite = errors.New("state write failed")
)

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrRead, e.Path, e.Err)
}

func (e *ReadError) Unwrap() []error {
	return []error{ErrRead, e.Err}
}

func (e *ReadError) Attrs() []slog.Attr {
	return []slog.Attr{slog.String("path", e.Path)}
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrWrite, e.Path, e.Err)
}

func (e *WriteError) Unwrap() []error {
	return []error{ErrWrite, e.Err}
}

func (e *WriteError) Attrs() []slog.Attr {
	return []slog.Attr{slog.String("path", e.Path)}
}
