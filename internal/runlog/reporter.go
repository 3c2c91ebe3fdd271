package runlog

import (
	"fmt"
	"io"
	"os"

	"github.com/temirov/repoaudit/internal/utils"
)

// Reporter emits formatted console lines to an underlying sink.
type Reporter interface {
	Printf(format string, args ...any)
}

type writerReporter struct {
	writer io.Writer
}

// NewWriterReporter constructs a Reporter that writes to the provided io.Writer,
// flushing buffered sinks after every line. Each line is a single write, so
// concurrent callers never interleave within a line.
func NewWriterReporter(writer io.Writer) Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return writerReporter{writer: utils.NewFlushingWriter(writer)}
}

func (reporter writerReporter) Printf(format string, args ...any) {
	if reporter.writer == nil {
		return
	}
	_, _ = io.WriteString(reporter.writer, fmt.Sprintf(format, args...))
}
