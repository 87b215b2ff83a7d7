// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package tilt

import (
	"errors"
	"fmt"
	"log/slog"
)

type (
	// VendorError indicates an advertisement from another manufacturer.
	VendorError struct {
		Got, Want uint16
	}

	// TooShortError indicates a payload too short to hold a tilt reading.
	TooShortError struct {
		Length int
	}

	// UnknownDeviceError indicates a payload that matches no known color.
	UnknownDeviceError struct {
		PayloadHex string
	}
)

// ErrMalformed is wrapped by every decode rejection. Rejections are expected
// in normal operation since most nearby broadcasts are not tilts.
var ErrMalformed = errors.New("malformed tilt payload")

func (e *VendorError) Error() string {
	return fmt.Sprintf(
		"%s: manufacturer id %d, want %d",
		ErrMalformed, e.Got, e.Want,
	)
}

func (*VendorError) Unwrap() error {
	return ErrMalformed
}

func (e *VendorError) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("manufacturer_id", int(e.Got)),
	}
}

func (e *TooShortError) Error() string {
	return fmt.Sprintf(
		"%s: %d bytes, need at least %d",
		ErrMalformed, e.Length, MinPayloadLen,
	)
}

func (*TooShortError) Unwrap() error {
	return ErrMalformed
}

func (e *TooShortError) Attrs() []slog.Attr {
	return []slog.Attr{slog.Int("length", e.Length)}
}

func (e *UnknownDeviceError) Error() string {
	return fmt.Sprintf("%s: no known device fingerprint", ErrMalformed)
}

func (*UnknownDeviceError) Unwrap() error {
	return ErrMalformed
}

func (e *UnknownDeviceError) Attrs() []slog.Attr {
	return []slog.Attr{slog.String("payload", e.PayloadHex)}
}
