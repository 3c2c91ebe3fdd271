package runlog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/repoaudit/internal/utils"
)

const (
	debugLogFileTemplateConstant      = "logs-%s-%s.log"
	errorLogFileTemplateConstant      = "error-%s-%s.log"
	errorLogSubdirectoryConstant      = "error"
	logFileTimestampLayoutConstant    = "2006-01-02_15-04"
	logDirectoryPermissionsConstant   = 0o755
	logFilePermissionsConstant        = 0o644
	infoConsoleTemplateConstant       = "[INFO] %s\n"
	successConsoleTemplateConstant    = "[SUCCESS] %s\n"
	warningConsoleTemplateConstant    = "[WARNING] %s\n"
	failureConsoleTemplateConstant    = "[error] %s\n"
	abortConsoleTemplateConstant      = "[ERROR] %s\n"
	bannerConsoleTemplateConstant     = "************************* %s ********************************\n"
	runIdentifierFieldConstant        = "run_id"
	categoryFieldConstant             = "category"
	errorFieldConstant                = "error"
	categoryRequiredMessageConstant   = "log category must be provided"
	logDirectoryErrorTemplateConstant = "unable to prepare log directory %s: %w"
	logFileOpenErrorTemplateConstant  = "unable to open log file %s: %w"
	logFileCloseErrorTemplateConstant = "unable to close log file %s: %w"
	logFlushErrorTemplateConstant     = "unable to flush run log: %w"
)

// ErrCategoryRequired indicates a session was opened without a log category.
var ErrCategoryRequired = errors.New(categoryRequiredMessageConstant)

// Clock abstracts time-dependent functionality for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the standard library.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Options configures a run logging session.
type Options struct {
	// Category names the API family the run talks to; it is embedded in log file names.
	Category string
	// Directory hosts the debug log and the error/ subdirectory. Blank disables file logging.
	Directory     string
	Console       io.Writer
	Diagnostic    *zap.Logger
	LoggerFactory *utils.LoggerFactory
	Clock         Clock
}

// Session is the logging context of a single run.
type Session struct {
	runIdentifier string
	reporter      Reporter
	logger        *zap.Logger
	files         []*os.File
	debugLogPath  string
	errorLogPath  string
}

// Open creates the run log files and returns a Session writing to them.
func Open(options Options) (*Session, error) {
	category := strings.TrimSpace(options.Category)
	if len(category) == 0 {
		return nil, ErrCategoryRequired
	}

	clock := options.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	loggerFactory := options.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = utils.NewLoggerFactory()
	}
	diagnosticLogger := options.Diagnostic
	if diagnosticLogger == nil {
		diagnosticLogger = zap.NewNop()
	}

	startedAt := clock.Now()
	session := &Session{
		runIdentifier: ulid.MustNew(ulid.Timestamp(startedAt), ulid.DefaultEntropy()).String(),
		reporter:      NewWriterReporter(options.Console),
	}

	cores := []zapcore.Core{diagnosticLogger.Core()}

	logDirectory := strings.TrimSpace(options.Directory)
	if len(logDirectory) > 0 {
		timestamp := startedAt.Format(logFileTimestampLayoutConstant)
		session.debugLogPath = filepath.Join(logDirectory, fmt.Sprintf(debugLogFileTemplateConstant, category, timestamp))
		session.errorLogPath = filepath.Join(logDirectory, errorLogSubdirectoryConstant, fmt.Sprintf(errorLogFileTemplateConstant, category, timestamp))

		debugCore, debugError := session.openFileCore(loggerFactory, session.debugLogPath, zapcore.DebugLevel)
		if debugError != nil {
			_ = session.closeFiles()
			return nil, debugError
		}
		errorCore, errorError := session.openFileCore(loggerFactory, session.errorLogPath, zapcore.ErrorLevel)
		if errorError != nil {
			_ = session.closeFiles()
			return nil, errorError
		}
		cores = append(cores, debugCore, errorCore)
	}

	session.logger = zap.New(zapcore.NewTee(cores...)).With(
		zap.String(runIdentifierFieldConstant, session.runIdentifier),
		zap.String(categoryFieldConstant, category),
	)

	return session, nil
}

func (session *Session) openFileCore(loggerFactory *utils.LoggerFactory, logFilePath string, minimumLevel zapcore.Level) (zapcore.Core, error) {
	logDirectory := filepath.Dir(logFilePath)
	if mkdirError := os.MkdirAll(logDirectory, logDirectoryPermissionsConstant); mkdirError != nil {
		return nil, fmt.Errorf(logDirectoryErrorTemplateConstant, logDirectory, mkdirError)
	}

	logFile, openError := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissionsConstant)
	if openError != nil {
		return nil, fmt.Errorf(logFileOpenErrorTemplateConstant, logFilePath, openError)
	}
	session.files = append(session.files, logFile)

	return loggerFactory.CreateCore(minimumLevel, utils.LogFormatStructured, zapcore.Lock(logFile))
}

// RunIdentifier returns the unique identifier attached to every entry of this run.
func (session *Session) RunIdentifier() string {
	return session.runIdentifier
}

// Logger exposes the tee'd zap logger for structured-only entries.
func (session *Session) Logger() *zap.Logger {
	return session.logger
}

// DebugLogPath returns the debug log file path, or an empty string when file logging is disabled.
func (session *Session) DebugLogPath() string {
	return session.debugLogPath
}

// ErrorLogPath returns the error log file path, or an empty string when file logging is disabled.
func (session *Session) ErrorLogPath() string {
	return session.errorLogPath
}

// Banner prints a run delimiter to the console.
func (session *Session) Banner(text string) {
	session.reporter.Printf(bannerConsoleTemplateConstant, text)
}

// Info reports progress on the console and in the debug log.
func (session *Session) Info(message string, fields ...zap.Field) {
	session.reporter.Printf(infoConsoleTemplateConstant, message)
	session.logger.Info(message, fields...)
}

// Success reports a completed step on the console and in the debug log.
func (session *Session) Success(message string, fields ...zap.Field) {
	session.reporter.Printf(successConsoleTemplateConstant, message)
	session.logger.Info(message, fields...)
}

// Warning reports a non-fatal anomaly.
func (session *Session) Warning(message string, fields ...zap.Field) {
	session.reporter.Printf(warningConsoleTemplateConstant, message)
	session.logger.Warn(message, fields...)
}

// Failure reports a skipped item. The cause goes to the error log only.
func (session *Session) Failure(message string, cause error, fields ...zap.Field) {
	session.reporter.Printf(failureConsoleTemplateConstant, message)
	session.logger.Error(message, append(fields, zap.NamedError(errorFieldConstant, cause))...)
}

// Abort reports a run-fatal error.
func (session *Session) Abort(message string, cause error, fields ...zap.Field) {
	session.reporter.Printf(abortConsoleTemplateConstant, message)
	session.logger.Error(message, append(fields, zap.NamedError(errorFieldConstant, cause))...)
}

// Close flushes buffered entries and releases the log files.
func (session *Session) Close() error {
	if session == nil {
		return nil
	}

	var closeErrors []error
	if session.logger != nil {
		if syncError := session.logger.Sync(); syncError != nil && !ignorableSyncError(syncError) {
			closeErrors = append(closeErrors, fmt.Errorf(logFlushErrorTemplateConstant, syncError))
		}
	}
	if closeError := session.closeFiles(); closeError != nil {
		closeErrors = append(closeErrors, closeError)
	}
	return errors.Join(closeErrors...)
}

func (session *Session) closeFiles() error {
	var closeErrors []error
	for _, logFile := range session.files {
		if closeError := logFile.Close(); closeError != nil {
			closeErrors = append(closeErrors, fmt.Errorf(logFileCloseErrorTemplateConstant, logFile.Name(), closeError))
		}
	}
	session.files = nil
	return errors.Join(closeErrors...)
}

func ignorableSyncError(syncError error) bool {
	return errors.Is(syncError, syscall.ENOTSUP) || errors.Is(syncError, syscall.EINVAL) || errors.Is(syncError, syscall.ENOTTY)
}
