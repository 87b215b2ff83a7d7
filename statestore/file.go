// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/henskjold73/hydropi/internal/log"
	"github.com/henskjold73/hydropi/iso"
	"github.com/henskjold73/hydropi/window"
)

// File names of the two records within the state directory.
const (
	AggregateFile = "tilt_results.json"
	LastTimeFile  = "last_sent_time.json"
)

type (
	// FileStore keeps each record in its own JSON file. Writes replace the
	// file atomically, so a crash leaves either the old or the new content.
	FileStore struct {
		dir string
		log log.Logger
	}

	lastTimeRecord struct {
		LastSentTime *iso.DateTime `json:"last_sent_time"`
	}
)

// NewFileStore creates a store rooted at the given directory. The directory
// is created on first save if it does not exist.
func NewFileStore(dir string, opt ...Option) *FileStore {
	var opts Options
	opts.Apply(opt)

	if dir == "" {
		dir = "."
	}
	return &FileStore{dir: dir, log: log.Wrap(opts.Logger)}
}

// Dir returns the directory holding the records.
func (s *FileStore) Dir() string {
	return s.dir
}

// LoadLastTime loads the time of the last successful delivery.
func (s *FileStore) LoadLastTime(ctx context.Context) (time.Time, bool) {
	var rec lastTimeRecord
	if !s.read(ctx, LastTimeFile, &rec) || rec.LastSentTime == nil {
		return time.Time{}, false
	}
	return rec.LastSentTime.Time(), true
}

// SaveLastTime records the time of a successful delivery.
func (s *FileStore) SaveLastTime(ctx context.Context, t time.Time) error {
	dt := iso.DateTime(t)
	return s.write(ctx, LastTimeFile, lastTimeRecord{&dt})
}

// LoadLastAggregate loads the last delivered aggregate.
func (s *FileStore) LoadLastAggregate(
	ctx context.Context,
) (window.Result, bool) {
	var res window.Result
	if !s.read(ctx, AggregateFile, &res) || res == nil {
		return nil, false
	}
	return res, true
}

// SaveLastAggregate overwrites the aggregate snapshot.
func (s *FileStore) SaveLastAggregate(
	ctx context.Context,
	res window.Result,
) error {
	if res == nil {
		res = window.Result{}
	}
	return s.write(ctx, AggregateFile, res)
}

func (s *FileStore) read(ctx context.Context, name string, v any) bool {
	path := filepath.Join(s.dir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.ErrLevel(ctx, slog.LevelWarn, &ReadError{path, err})
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.ErrLevel(ctx, slog.LevelWarn, &ReadError{path, err})
		return false
	}
	return true
}

func (s *FileStore) write(ctx context.Context, name string, v any) error {
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &WriteError{path, err}
	}
	if err := writeAtomic(path, data); err != nil {
		return &WriteError{path, err}
	}

	s.log.Log(ctx, slog.LevelDebug, "state saved", slog.String("path", path))
	return nil
}

// writeAtomic writes to a temporary file in the target directory, syncs it,
// and renames it over the target.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
