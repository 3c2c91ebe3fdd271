// Package runlog provides the logging context owned by a single pipeline run.
//
// A Session pairs a human-readable console reporter with zap file cores for the
// run's debug and error logs. Commands open one Session per invocation, pass it
// to every collaborator and close it on exit so buffered entries are flushed.
package runlog
