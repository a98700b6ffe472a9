// Package observe provides the logging, audit, and tracing surface
// consumed by the request pipeline.
//
// The pipeline depends only on the Logger interface; sinks are injected.
// A zerolog-backed logger is provided for production use, a Capture
// logger for tests, and a no-op logger as the default.
package observe
