// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package telemetry

import (
	"context"
	"log/slog"

	"github.com/eclipse/paho.golang/paho"
	"github.com/henskjold73/hydropi/internal/log"
)

type logger struct{ log.Logger }

func (l *logger) connected(ctx context.Context, broker, clientID string) {
	l.Log(ctx, slog.LevelInfo, "mqtt connected",
		slog.String("broker", broker),
		slog.String("client_id", clientID),
	)
}

func (l *logger) disconnected(ctx context.Context, d *paho.Disconnect) {
	attrs := []slog.Attr{slog.Int("reason_code", int(d.ReasonCode))}
	if d.Properties != nil && d.Properties.ReasonString != "" {
		attrs = append(attrs,
			slog.String("reason", d.Properties.ReasonString),
		)
	}
	l.Log(ctx, slog.LevelWarn, "mqtt server disconnected", attrs...)
}

// packet dumps an outgoing packet at debug level.
func (l *logger) packet(ctx context.Context, pkt any) {
	l.Struct(ctx, "mqtt packet", pkt)
}
