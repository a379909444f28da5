// Package testutil holds helpers shared by package tests.
package testutil

import (
	"log/slog"
	"testing"

	"github.com/nconklindev/sheetshift/internal/types"
)

// NewTestLogger returns a debug logger that writes through t.Log,
// so output only shows for failing tests or with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// RecordOf builds a record from alternating key/value arguments.
func RecordOf(kv ...any) *types.Record {
	r := types.NewRecord()
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i].(string), kv[i+1])
	}
	return r
}

// RecordMap flattens a record into a plain map for equality checks.
func RecordMap(r *types.Record) map[string]any {
	m := make(map[string]any, r.Len())
	for pair := r.Oldest(); pair != nil; pair = pair.Next() {
		m[pair.Key] = pair.Value
	}
	return m
}

// RecordKeys lists a record's field names in order.
func RecordKeys(r *types.Record) []string {
	keys := make([]string, 0, r.Len())
	for pair := r.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}
