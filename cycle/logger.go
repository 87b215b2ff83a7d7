// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package cycle

import (
	"context"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/henskjold73/hydropi/internal/log"
	"github.com/henskjold73/hydropi/scan"
	"github.com/henskjold73/hydropi/window"
)

type logger struct{ log.Logger }

func (l *logger) scanning(ctx context.Context, d time.Duration) {
	l.Log(ctx, slog.LevelInfo, "scanning for tilts",
		slog.Duration("window", d),
	)
}

func (l *logger) dropped(
	ctx context.Context,
	ad scan.Advertisement,
	err error,
) {
	if !l.Enabled(ctx, slog.LevelDebug) {
		return
	}
	l.Log(ctx, slog.LevelDebug, "advertisement dropped",
		slog.String("address", ad.Address),
		slog.Int("manufacturer_id", int(ad.ManufacturerID)),
		slog.String("payload", hex.EncodeToString(ad.Payload)),
		slog.String("reason", err.Error()),
	)
}

func (l *logger) devices(ctx context.Context, res window.Result) {
	if !l.Enabled(ctx, slog.LevelInfo) {
		return
	}
	for _, fp := range sortedFingerprints(res) {
		s := res[fp]
		l.Log(ctx, slog.LevelInfo, "tilt",
			slog.String("uuid", fp),
			slog.String("color", string(s.Color)),
			slog.Float64("avg_gravity", s.AvgGravity),
			slog.Float64("avg_temp_c", s.AvgTempC),
			slog.Float64("gravity_stddev", s.GravityStdDev),
			slog.Float64("temp_stddev", s.TempStdDev),
		)
	}
}

func (l *logger) report(ctx context.Context, rep Report) {
	l.Log(ctx, slog.LevelInfo, "cycle complete",
		slog.Int("readings", rep.Readings),
		slog.Int("devices", len(rep.Result)),
		slog.String("decision", string(rep.Outcome.Decision)),
		slog.Bool("delivered", rep.Outcome.Delivered),
	)
}

func (l *logger) idle(ctx context.Context, d time.Duration) {
	l.Log(ctx, slog.LevelDebug, "waiting for next scan",
		slog.Duration("idle", d),
	)
}

func (l *logger) stopped(ctx context.Context) {
	l.Log(ctx, slog.LevelInfo, "scan loop stopped")
}
