// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package tilt decodes the iBeacon advertisements broadcast by Tilt
// hydrometers into gravity and temperature readings.
package tilt

import (
	"encoding/binary"
	"encoding/hex"
	"math"
)

// AppleManufacturerID is the Bluetooth SIG company identifier carried by
// iBeacon advertisements.
const AppleManufacturerID uint16 = 0x004C

// MinPayloadLen is the shortest manufacturer payload that holds a reading.
const MinPayloadLen = 23

// Payload layout (manufacturer data, company id stripped).
const (
	fingerprintStart = 4
	fingerprintEnd   = 20
	tempOffset       = 18
	gravityOffset    = 20
)

// Reading is a single decoded tilt broadcast.
type Reading struct {
	// Fingerprint is the hex encoding of payload bytes 4 through 19.
	Fingerprint string
	Color       Color
	Gravity     float64
	TempF       uint16
	TempC       float64
}

// Decode parses a manufacturer data payload. Any rejection wraps
// ErrMalformed.
func Decode(raw []byte, manufacturerID uint16) (Reading, error) {
	return DecodeFor(raw, manufacturerID, AppleManufacturerID)
}

// DecodeFor is Decode with an explicit expected manufacturer id.
func DecodeFor(raw []byte, manufacturerID, want uint16) (Reading, error) {
	if manufacturerID != want {
		return Reading{}, &VendorError{Got: manufacturerID, Want: want}
	}
	if len(raw) < MinPayloadLen {
		return Reading{}, &TooShortError{Length: len(raw)}
	}

	payloadHex := hex.EncodeToString(raw)
	color := resolve(Fingerprints, payloadHex)
	if color == ColorUnknown {
		return Reading{}, &UnknownDeviceError{PayloadHex: payloadHex}
	}

	tempF := binary.BigEndian.Uint16(raw[tempOffset:])
	gravity := binary.BigEndian.Uint16(raw[gravityOffset:])

	return Reading{
		Fingerprint: hex.EncodeToString(raw[fingerprintStart:fingerprintEnd]),
		Color:       color,
		Gravity:     Round(float64(gravity)/1000, 3),
		TempF:       tempF,
		TempC:       Round((float64(tempF)-32)*5/9, 1),
	}, nil
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(x*p) / p
}
