// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package tilt_test

import (
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/henskjold73/hydropi/tilt"
	"github.com/stretchr/testify/require"
)

// payload builds an iBeacon manufacturer payload for the given UUID.
func payload(t *testing.T, uuid string, tempF, gravity uint16) []byte {
	t.Helper()

	id, err := hex.DecodeString(uuid)
	require.NoError(t, err)
	require.Len(t, id, 16)

	raw := []byte{0x02, 0x15}
	raw = append(raw, id...)
	raw = binary.BigEndian.AppendUint16(raw, tempF)
	raw = binary.BigEndian.AppendUint16(raw, gravity)
	return append(raw, 0xc5)
}

func TestDecode(t *testing.T) {
	raw := payload(t, "a495bb10c5b14b44b5121370f02d74de", 72, 1015)

	r, err := tilt.Decode(raw, tilt.AppleManufacturerID)
	require.NoError(t, err)

	require.Equal(t, tilt.ColorRed, r.Color)
	require.Equal(t, uint16(72), r.TempF)
	require.Equal(t, 22.2, r.TempC)
	require.Equal(t, 1.015, r.Gravity)
	require.Equal(t, hex.EncodeToString(raw[4:20]), r.Fingerprint)
	require.Equal(t, "bb10c5b14b44b5121370f02d74de0048", r.Fingerprint)
}

func TestDecodeColors(t *testing.T) {
	for _, fp := range tilt.Fingerprints {
		t.Run(string(fp.Color), func(t *testing.T) {
			r, err := tilt.Decode(
				payload(t, fp.UUID, 68, 1050),
				tilt.AppleManufacturerID,
			)
			require.NoError(t, err)
			require.Equal(t, fp.Color, r.Color)
			require.Equal(t, 20.0, r.TempC)
			require.Equal(t, 1.05, r.Gravity)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	valid := payload(t, "a495bb60c5b14b44b5121370f02d74de", 65, 1000)

	t.Run("Vendor", func(t *testing.T) {
		_, err := tilt.Decode(valid, 0x0059)
		require.ErrorIs(t, err, tilt.ErrMalformed)

		var ve *tilt.VendorError
		require.ErrorAs(t, err, &ve)
		require.Equal(t, uint16(0x0059), ve.Got)
	})

	t.Run("TooShort", func(t *testing.T) {
		for n := 0; n < tilt.MinPayloadLen; n++ {
			_, err := tilt.Decode(valid[:n], tilt.AppleManufacturerID)
			require.ErrorIs(t, err, tilt.ErrMalformed)

			var se *tilt.TooShortError
			require.ErrorAs(t, err, &se)
			require.Equal(t, n, se.Length)
		}
	})

	t.Run("UnknownDevice", func(t *testing.T) {
		raw := payload(t, "e2c56db5dffb48d2b060d0f5a71096e0", 65, 1000)
		_, err := tilt.Decode(raw, tilt.AppleManufacturerID)
		require.ErrorIs(t, err, tilt.ErrMalformed)

		var ue *tilt.UnknownDeviceError
		require.ErrorAs(t, err, &ue)
		require.Equal(t, hex.EncodeToString(raw), ue.PayloadHex)
	})
}

func TestDecodeCustomManufacturer(t *testing.T) {
	raw := payload(t, "a495bb80c5b14b44b5121370f02d74de", 50, 990)

	_, err := tilt.DecodeFor(raw, tilt.AppleManufacturerID, 0x0001)
	require.ErrorIs(t, err, tilt.ErrMalformed)

	r, err := tilt.DecodeFor(raw, 0x0001, 0x0001)
	require.NoError(t, err)
	require.Equal(t, tilt.ColorPink, r.Color)
	require.Equal(t, 10.0, r.TempC)
	require.Equal(t, 0.99, r.Gravity)
}

func TestResolveColor(t *testing.T) {
	require.Equal(t, tilt.ColorBlue, tilt.ResolveColor("0215A495BB60"))
	require.Equal(t, tilt.ColorUnknown, tilt.ResolveColor("0215a495bb9000"))
	require.Equal(t, tilt.ColorUnknown, tilt.ResolveColor(""))

	// Both Black and Red prefixes occur; table order decides.
	require.Equal(
		t,
		tilt.ColorRed,
		tilt.ResolveColor("a495bb30ffffa495bb10"),
	)
}

func TestRound(t *testing.T) {
	require.Equal(t, 22.2, tilt.Round(22.2222, 1))
	require.Equal(t, 1.011, tilt.Round((1.010+1.012)/2, 3))
	require.Equal(t, -17.8, tilt.Round((0.0-32)*5/9, 1))
}
