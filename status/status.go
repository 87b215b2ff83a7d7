// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package status serves the latest delivered readings over HTTP. It only
// reads the state store and never blocks the scan loop.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/henskjold73/hydropi/internal/log"
	"github.com/henskjold73/hydropi/iso"
	"github.com/henskjold73/hydropi/window"
)

type (
	// Reader is the read side of the state store.
	Reader interface {
		LoadLastTime(ctx context.Context) (time.Time, bool)
		LoadLastAggregate(ctx context.Context) (window.Result, bool)
	}

	// Server is the status HTTP server.
	Server struct {
		addr   string
		reader Reader
		router *mux.Router
		log    log.Logger
	}

	// Readings is the body of GET /readings.
	Readings struct {
		LastSentTime *iso.DateTime `json:"last_sent_time"`
		Tilts        window.Result `json:"tilts"`
	}

	// Reading is the body of GET /readings/{uuid}.
	Reading struct {
		UUID         string        `json:"uuid"`
		LastSentTime *iso.DateTime `json:"last_sent_time"`
		window.Summary
	}

	// Option represents a single option for the server.
	Option func(*Server)
)

const shutdownTimeout = 5 * time.Second

// WithLogger enables logging with the provided slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = log.Wrap(l) }
}

// New creates a status server listening on addr once Run is called.
func New(addr string, reader Reader, opt ...Option) *Server {
	s := &Server{addr: addr, reader: reader}
	for _, o := range opt {
		o(s)
	}

	r := mux.NewRouter()
	r.Use(s.cors)
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.HandleFunc("/readings", s.readings).Methods(http.MethodGet)
	r.HandleFunc("/readings/{uuid}", s.reading).Methods(http.MethodGet)
	s.router = r

	return s
}

// Handler returns the router, for embedding or testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errs := make(chan error, 1)
	go func() { errs <- srv.ListenAndServe() }()
	s.log.Log(ctx, slog.LevelInfo, "status server listening",
		slog.String("addr", s.addr),
	)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(
		context.WithoutCancel(ctx),
		shutdownTimeout,
	)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readings(w http.ResponseWriter, r *http.Request) {
	res, ok := s.reader.LoadLastAggregate(r.Context())
	if !ok {
		res = window.Result{}
	}
	s.write(w, http.StatusOK, Readings{
		LastSentTime: s.lastSent(r.Context()),
		Tilts:        res,
	})
}

func (s *Server) reading(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]

	res, _ := s.reader.LoadLastAggregate(r.Context())
	sum, ok := res[uuid]
	if !ok {
		s.write(w, http.StatusNotFound, map[string]string{
			"error": "unknown tilt " + uuid,
		})
		return
	}

	s.write(w, http.StatusOK, Reading{
		UUID:         uuid,
		LastSentTime: s.lastSent(r.Context()),
		Summary:      sum,
	})
}

func (s *Server) lastSent(ctx context.Context) *iso.DateTime {
	t, ok := s.reader.LoadLastTime(ctx)
	if !ok {
		return nil
	}
	dt := iso.DateTime(t)
	return &dt
}

func (s *Server) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Err(context.Background(), err)
	}
}

func (*Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}
