// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package telemetry

import (
	"fmt"
	"log/slog"
)

type (
	// ConfigError indicates an unusable publisher setting.
	ConfigError struct {
		Field string
		Value string
		Err   error
	}

	// ConnectionError indicates the broker could not be reached or refused
	// the connection.
	ConnectionError struct {
		Broker string
		Err    error
	}

	// PublishError indicates a message that was not acknowledged.
	PublishError struct {
		Topic string
		Err   error
	}
)

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("mqtt connection to %s failed: %v", e.Broker, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Attrs() []slog.Attr {
	return []slog.Attr{slog.String("broker", e.Broker)}
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("mqtt publish to %s failed: %v", e.Topic, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

func (e *PublishError) Attrs() []slog.Attr {
	return []slog.Attr{slog.String("topic", e.Topic)}
}
