// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/henskjold73/hydropi/config"
	"github.com/henskjold73/hydropi/iso"
	"github.com/henskjold73/hydropi/statestore"
	"github.com/henskjold73/hydropi/tilt"
	"github.com/henskjold73/hydropi/window"
	"github.com/stretchr/testify/require"
)

func TestApplicationReplay(t *testing.T) {
	posts := make(chan window.Result, 8)
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/tenant/key", r.URL.Path)
			require.Equal(t, "key", r.Header.Get("X-Api-Key"))

			var res window.Result
			require.NoError(t, json.NewDecoder(r.Body).Decode(&res))
			posts <- res
		},
	))
	defer srv.Close()

	cfg := config.Default()
	cfg.Scan.Source = config.SourceReplay
	cfg.Scan.ReplayFile = filepath.Join("testdata", "replay.yaml")
	cfg.Scan.Window = iso.Duration(100 * time.Millisecond)
	cfg.Scan.Interval = iso.Duration(150 * time.Millisecond)
	cfg.Delivery.URL = srv.URL
	cfg.Delivery.TenantID = "tenant"
	cfg.Delivery.APIKey = "key"
	cfg.State.Dir = t.TempDir()
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := NewApplication(ctx, cfg, logger)
	require.NoError(t, err)
	defer app.Close()

	done := make(chan error)
	go func() { done <- app.Run(ctx) }()

	var res window.Result
	select {
	case res = <-posts:
	case <-time.After(10 * time.Second):
		require.Fail(t, "no delivery")
	}
	cancel()
	require.NoError(t, <-done)

	require.Len(t, res, 1)
	sum := res["bb10c5b14b44b5121370f02d74de0048"]
	require.Equal(t, tilt.ColorRed, sum.Color)
	require.Equal(t, 1.015, sum.AvgGravity)
	require.Equal(t, 22.2, sum.AvgTempC)
	require.Zero(t, sum.GravityStdDev)

	store := statestore.NewFileStore(cfg.State.Dir)
	saved, ok := store.LoadLastAggregate(context.Background())
	require.True(t, ok)
	require.True(t, res.Equal(saved))

	_, ok = store.LoadLastTime(context.Background())
	require.True(t, ok)
}
