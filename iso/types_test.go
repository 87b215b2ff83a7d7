// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package iso_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/henskjold73/hydropi/iso"
	"github.com/stretchr/testify/require"
)

type (
	Types struct {
		DateTime iso.DateTime
		Duration iso.Duration
	}

	Strings struct {
		DateTime string
		Duration string
	}
)

func TestTypes(t *testing.T) {
	utc := time.Unix(2e9, 0).UTC()
	d := time.Minute + time.Second

	types := Types{
		DateTime: iso.DateTime(utc),
		Duration: iso.Duration(d),
	}

	b, err := json.Marshal(types)
	require.NoError(t, err)

	var str Strings
	err = json.Unmarshal(b, &str)
	require.NoError(t, err)

	require.Equal(t, "2033-05-18T03:33:20Z", str.DateTime)
	require.Equal(t, "PT1M1S", str.Duration)

	var typ Types
	err = json.Unmarshal(b, &typ)
	require.NoError(t, err)

	require.Equal(t, utc, typ.DateTime.Time())
	require.Equal(t, d, typ.Duration.Duration())
}

func TestDateTimeWithoutZone(t *testing.T) {
	var dt iso.DateTime
	require.NoError(t, dt.UnmarshalText([]byte("2024-11-02T18:04:05.123456")))

	want := time.Date(2024, 11, 2, 18, 4, 5, 123456000, time.UTC)
	require.True(t, want.Equal(dt.Time()))
}

func TestParseDuration(t *testing.T) {
	for in, want := range map[string]time.Duration{
		"PT30S":  30 * time.Second,
		"pt15m":  15 * time.Minute,
		"PT1H":   time.Hour,
		"90s":    90 * time.Second,
		" 2m30s": 150 * time.Second,
	} {
		got, err := iso.ParseDuration(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := iso.ParseDuration("soon")
	require.Error(t, err)
}
