// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package status_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/henskjold73/hydropi/statestore"
	"github.com/henskjold73/hydropi/status"
	"github.com/henskjold73/hydropi/tilt"
	"github.com/henskjold73/hydropi/window"
	"github.com/stretchr/testify/require"
)

const red = "bb10c5b14b44b5121370f02d74de0048"

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestReadingsEmpty(t *testing.T) {
	s := status.New(":0", statestore.NewMemoryStore())

	rec := get(t, s.Handler(), "/readings")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.JSONEq(t, `{"last_sent_time": null, "tilts": {}}`, rec.Body.String())
}

func TestReadings(t *testing.T) {
	ctx := context.Background()
	store := statestore.NewFileStore(t.TempDir())
	require.NoError(t, store.SaveLastTime(ctx,
		time.Date(2024, 11, 2, 18, 4, 5, 0, time.UTC)))
	require.NoError(t, store.SaveLastAggregate(ctx, window.Result{
		red: {Color: tilt.ColorRed, AvgGravity: 1.011, AvgTempC: 20.2},
	}))

	s := status.New(":0", store)

	rec := get(t, s.Handler(), "/readings")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body status.Readings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.LastSentTime)
	require.Equal(t, "2024-11-02T18:04:05Z", body.LastSentTime.String())
	require.Equal(t, 1.011, body.Tilts[red].AvgGravity)

	rec = get(t, s.Handler(), "/readings/"+red)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{
		"uuid": "`+red+`",
		"last_sent_time": "2024-11-02T18:04:05Z",
		"color": "Red",
		"avg_gravity": 1.011,
		"avg_temp_c": 20.2,
		"gravity_stddev": 0,
		"temp_stddev": 0
	}`, rec.Body.String())

	rec = get(t, s.Handler(), "/readings/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	s := status.New(":0", statestore.NewMemoryStore())

	rec := get(t, s.Handler(), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/healthz", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRunShutsDown(t *testing.T) {
	s := status.New("127.0.0.1:0", statestore.NewMemoryStore())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		require.Fail(t, "server did not stop")
	}
}
