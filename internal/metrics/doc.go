// Package metrics records build observability data.
//
// Components receive a Recorder and never check for nil: NoopRecorder is the
// default, and PrometheusRecorder is swapped in when metrics are wanted.
//
//	rec := metrics.NewPrometheusRecorder(nil)
//	b := build.New(cfg, build.WithRecorder(rec))
//	...
//	_ = rec.WriteTextfile(cfg.Build.MetricsFile)
//
// The preview server also exposes the recorder's registry over HTTP.
package metrics
