// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package log

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"github.com/iancoleman/strcase"
)

// Struct logs the exported fields of a struct (or pointer to one) at debug
// level, with field names converted to snake case.
func (l *Logger) Struct(ctx context.Context, name string, v any) {
	// This is expensive; bail out if we don't need it.
	if !l.Enabled(ctx, slog.LevelDebug) {
		return
	}

	val := realValue(reflect.ValueOf(v))
	if missingValue(val) || val.Kind() != reflect.Struct {
		l.Log(ctx, slog.LevelDebug, name)
		return
	}
	l.Log(ctx, slog.LevelDebug, name, ReflectAttrs(val.Interface())...)
}

// ReflectAttrs converts the exported, non-zero fields of a struct into slog
// attributes. Fields tagged `log:"-"` are skipped.
func ReflectAttrs(v any) []slog.Attr {
	val := realValue(reflect.ValueOf(v))
	if val.Kind() != reflect.Struct {
		return nil
	}
	return reflectAttrs(val)
}

func reflectAttrs(val reflect.Value) []slog.Attr {
	typ := val.Type()
	num := typ.NumField()
	var attrs []slog.Attr
	for i := range num {
		f := typ.Field(i)
		if !f.IsExported() || f.Tag.Get("log") == "-" {
			continue
		}

		attrs = append(attrs, reflectAttr(
			strcase.ToSnake(f.Name),
			realValue(val.Field(i)),
		)...)
	}
	return attrs
}

func reflectAttr(name string, val reflect.Value) []slog.Attr {
	// Ignore zero values to keep the log cleaner.
	if missingValue(val) {
		return nil
	}

	switch v := val.Interface().(type) {
	case []byte:
		return []slog.Attr{slog.String(name, string(v))}
	case time.Time:
		return []slog.Attr{slog.Time(name, v)}
	case time.Duration:
		return []slog.Attr{slog.Duration(name, v)}
	}

	if val.Kind() == reflect.Struct {
		as := reflectAttrs(val)
		if len(as) == 0 {
			return nil
		}

		cpy := make([]any, len(as))
		for i, a := range as {
			cpy[i] = a
		}
		return []slog.Attr{slog.Group(name, cpy...)}
	}

	return []slog.Attr{slog.Any(name, val.Interface())}
}

func realValue(val reflect.Value) reflect.Value {
	for val.Kind() == reflect.Pointer {
		val = val.Elem()
	}
	return val
}

func missingValue(val reflect.Value) bool {
	return val.Kind() == reflect.Invalid || val.IsZero()
}
