package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field names shared by every package.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeySlug       = "slug"
	KeyRoute      = "route"
	KeyPass       = "pass"
	KeyCount      = "count"
	KeyOutput     = "output"
	KeyError      = "error"
)

func BuildID(id string) slog.Attr  { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr  { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr      { return slog.String(KeyPath, p) }
func Slug(s string) slog.Attr      { return slog.String(KeySlug, s) }
func Route(r string) slog.Attr     { return slog.String(KeyRoute, r) }
func Pass(name string) slog.Attr   { return slog.String(KeyPass, name) }
func Count(n int) slog.Attr        { return slog.Int(KeyCount, n) }
func Output(dir string) slog.Attr  { return slog.String(KeyOutput, dir) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
