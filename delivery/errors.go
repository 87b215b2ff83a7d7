// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package delivery

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

type (
	// StatusError indicates the endpoint answered with something other than
	// 200 OK.
	StatusError struct {
		StatusCode int
		Body       string
	}

	// TransportError indicates the request never produced a response (network
	// failure, timeout or cancellation).
	TransportError struct {
		Err error
	}
)

// ErrDelivery is wrapped by every failed delivery.
var ErrDelivery = errors.New("delivery failed")

// maxBody bounds how much of an error response is kept for logging.
const maxBody = 512

func (e *StatusError) Error() string {
	return fmt.Sprintf(
		"%s: %d %s",
		ErrDelivery,
		e.StatusCode,
		http.StatusText(e.StatusCode),
	)
}

func (*StatusError) Unwrap() error {
	return ErrDelivery
}

func (e *StatusError) Attrs() []slog.Attr {
	attrs := []slog.Attr{slog.Int("status", e.StatusCode)}
	if e.Body != "" {
		attrs = append(attrs, slog.String("body", e.Body))
	}
	return attrs
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", ErrDelivery, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrDelivery, e.Err}
}

// IsRetryable reports whether a delivery error may succeed if repeated within
// the same cycle. Transport failures, 5xx and 429 responses qualify.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 ||
			se.StatusCode == http.StatusTooManyRequests
	}

	var te *TransportError
	return errors.As(err, &te)
}
