// Package httpserver wraps http.Server with graceful shutdown, signal
// handling, and probe endpoints.
//
// Run blocks until the context is cancelled, SIGINT/SIGTERM arrives, or the
// listener fails; in the first two cases in-flight requests get the
// configured shutdown window before connections are cut.
package httpserver
