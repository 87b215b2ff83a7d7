// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/henskjold73/hydropi/internal/log"
)

type logger struct{ log.Logger }

func (l *logger) retry(
	ctx context.Context,
	task string,
	attempt uint64,
	wait time.Duration,
	err error,
) {
	l.ErrLevel(ctx, slog.LevelWarn, err,
		slog.String("task", task),
		slog.Uint64("attempt", attempt),
		slog.Duration("retry_in", wait),
	)
}

func (l *logger) complete(
	ctx context.Context,
	task string,
	attempt uint64,
	err error,
) {
	if err != nil {
		l.Log(ctx, slog.LevelDebug, "retry gave up",
			slog.String("task", task),
			slog.Uint64("attempt", attempt),
		)
		return
	}
	if attempt > 1 {
		l.Log(ctx, slog.LevelInfo, "retry succeeded",
			slog.String("task", task),
			slog.Uint64("attempt", attempt),
		)
	}
}
