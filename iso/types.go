// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package iso

import (
	"strings"
	"time"

	"github.com/relvacode/iso8601"
	"github.com/sosodev/duration"
)

// Wrappers for the native Go time types that will serialize to ISO 8601.
type (
	// DateTime is a date and time in ISO 8601 format, per RFC 3339, with
	// sub-second precision kept so a stored time reloads exactly.
	DateTime time.Time

	// Duration is a duration in ISO 8601 format. It also accepts Go duration
	// syntax (e.g. "90s") when unmarshaling, for hand-written configuration.
	Duration time.Duration
)

// String returns the date-time to an ISO 8601 string.
func (dt DateTime) String() string {
	return time.Time(dt).Format(time.RFC3339Nano)
}

// MarshalText marshals the date-time to an ISO 8601 string.
func (dt DateTime) MarshalText() ([]byte, error) {
	return []byte(dt.String()), nil
}

// UnmarshalText unmarshals the date-time from an ISO 8601 string. Values
// without a zone designator are interpreted as UTC.
func (dt *DateTime) UnmarshalText(b []byte) error {
	parsed, err := iso8601.Parse(b)
	if err != nil {
		return err
	}
	*dt = DateTime(parsed)
	return nil
}

// Time returns the underlying time.
func (dt DateTime) Time() time.Time {
	return time.Time(dt)
}

// String returns the duration to an ISO 8601 string.
func (d Duration) String() string {
	return duration.Format(time.Duration(d))
}

// MarshalText marshals the duration to an ISO 8601 string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText unmarshals the duration from an ISO 8601 string, falling back
// to Go duration syntax.
func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// ParseDuration parses either an ISO 8601 duration ("PT30S") or a Go duration
// ("30s").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToUpper(s), "P") {
		parsed, err := duration.Parse(strings.ToUpper(s))
		if err != nil {
			return 0, err
		}
		return parsed.ToTimeDuration(), nil
	}
	return time.ParseDuration(s)
}
