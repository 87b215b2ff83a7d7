// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package tilt

import "strings"

// Color identifies a tilt device by the color of its housing.
type Color string

const (
	ColorRed     Color = "Red"
	ColorGreen   Color = "Green"
	ColorBlack   Color = "Black"
	ColorPurple  Color = "Purple"
	ColorOrange  Color = "Orange"
	ColorBlue    Color = "Blue"
	ColorYellow  Color = "Yellow"
	ColorPink    Color = "Pink"
	ColorUnknown Color = "Unknown"
)

// Fingerprint pairs a color with the iBeacon UUID its devices broadcast.
type Fingerprint struct {
	Color Color
	UUID  string
}

// prefixLen is the number of leading hex characters of a UUID that identify
// the device color.
const prefixLen = 8

// Fingerprints is the identity table in match order. Earlier entries win when
// more than one prefix occurs in a payload.
var Fingerprints = []Fingerprint{
	{ColorRed, "a495bb10c5b14b44b5121370f02d74de"},
	{ColorGreen, "a495bb20c5b14b44b5121370f02d74de"},
	{ColorBlack, "a495bb30c5b14b44b5121370f02d74de"},
	{ColorPurple, "a495bb40c5b14b44b5121370f02d74de"},
	{ColorOrange, "a495bb50c5b14b44b5121370f02d74de"},
	{ColorBlue, "a495bb60c5b14b44b5121370f02d74de"},
	{ColorYellow, "a495bb70c5b14b44b5121370f02d74de"},
	{ColorPink, "a495bb80c5b14b44b5121370f02d74de"},
}

// ResolveColor returns the first color whose UUID prefix occurs anywhere in
// the hex-encoded payload, or ColorUnknown.
func ResolveColor(payloadHex string) Color {
	return resolve(Fingerprints, strings.ToLower(payloadHex))
}

func resolve(table []Fingerprint, payloadHex string) Color {
	for _, fp := range table {
		if len(fp.UUID) < prefixLen {
			continue
		}
		if strings.Contains(payloadHex, strings.ToLower(fp.UUID[:prefixLen])) {
			return fp.Color
		}
	}
	return ColorUnknown
}
