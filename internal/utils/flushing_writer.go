package utils

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

// FlushingWriter is the single console sink of a run. Discovery reports from its
// repository and team tasks and from every worker-pool detail fetch at once; each
// reported line arrives as one Write, and the mutex keeps those lines whole and in
// arrival order. Buffered sinks are flushed per line so progress is visible while
// the run is still fetching.
type FlushingWriter struct {
	writer io.Writer
	mutex  sync.Mutex
}

// NewFlushingWriter wraps writer. A nil writer yields nil, and wrapping an existing
// FlushingWriter returns it unchanged so a sink is never guarded by two mutexes.
func NewFlushingWriter(writer io.Writer) io.Writer {
	if writer == nil {
		return nil
	}
	if _, alreadyWrapped := writer.(*FlushingWriter); alreadyWrapped {
		return writer
	}
	return &FlushingWriter{writer: writer}
}

// Write emits one reported line under the lock and flushes it when the sink buffers.
func (flushingWriter *FlushingWriter) Write(line []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.writer == nil {
		return 0, nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	bytesWritten, writeError := flushingWriter.writer.Write(line)
	if writeError != nil {
		return bytesWritten, writeError
	}
	bufferedSink, buffered := flushingWriter.writer.(flusher)
	if !buffered {
		return bytesWritten, nil
	}
	return bytesWritten, bufferedSink.Flush()
}
