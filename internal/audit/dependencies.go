package audit

import (
	"go.uber.org/zap"
)

// RunLogger reports progress to the console and the run log files.
type RunLogger interface {
	Info(message string, fields ...zap.Field)
	Success(message string, fields ...zap.Field)
	Warning(message string, fields ...zap.Field)
	Failure(message string, cause error, fields ...zap.Field)
}

// TokenResolver supplies the GitHub token for commit history requests.
type TokenResolver func() (string, error)
