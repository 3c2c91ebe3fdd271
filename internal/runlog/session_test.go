package runlog_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/repoaudit/internal/runlog"
)

const (
	testCategoryConstant       = "internal-api"
	testInfoMessageConstant    = "Fetching repos of org acme"
	testFailureMessageConstant = "failed to fetch repo-details of org acme repo billing"
	testSuccessMessageConstant = "repos.txt populated"
)

type fixedClock struct {
	instant time.Time
}

func (clock fixedClock) Now() time.Time {
	return clock.instant
}

func TestSessionWritesConsoleAndLogFiles(testInstance *testing.T) {
	logDirectory := testInstance.TempDir()
	consoleBuffer := &bytes.Buffer{}

	session, openError := runlog.Open(runlog.Options{
		Category:  testCategoryConstant,
		Directory: logDirectory,
		Console:   consoleBuffer,
		Clock:     fixedClock{instant: time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC)},
	})
	require.NoError(testInstance, openError)
	require.NotEmpty(testInstance, session.RunIdentifier())

	session.Banner("RUNNING discover")
	session.Info(testInfoMessageConstant, zap.String("org", "acme"))
	session.Success(testSuccessMessageConstant)
	session.Failure(testFailureMessageConstant, errors.New("HTTP 500"))
	require.NoError(testInstance, session.Close())

	consoleOutput := consoleBuffer.String()
	require.Contains(testInstance, consoleOutput, "[INFO] "+testInfoMessageConstant+"\n")
	require.Contains(testInstance, consoleOutput, "[SUCCESS] "+testSuccessMessageConstant+"\n")
	require.Contains(testInstance, consoleOutput, "[error] "+testFailureMessageConstant+"\n")
	require.Contains(testInstance, consoleOutput, "RUNNING discover")

	require.Equal(testInstance, filepath.Join(logDirectory, "logs-internal-api-2024-03-05_09-30.log"), session.DebugLogPath())
	require.Equal(testInstance, filepath.Join(logDirectory, "error", "error-internal-api-2024-03-05_09-30.log"), session.ErrorLogPath())

	debugContents, debugReadError := os.ReadFile(session.DebugLogPath())
	require.NoError(testInstance, debugReadError)
	require.Contains(testInstance, string(debugContents), testInfoMessageConstant)
	require.Contains(testInstance, string(debugContents), session.RunIdentifier())

	errorContents, errorReadError := os.ReadFile(session.ErrorLogPath())
	require.NoError(testInstance, errorReadError)
	require.Contains(testInstance, string(errorContents), testFailureMessageConstant)
	require.Contains(testInstance, string(errorContents), "HTTP 500")
	require.NotContains(testInstance, string(errorContents), testInfoMessageConstant)
}

func TestSessionWithoutDirectorySkipsFiles(testInstance *testing.T) {
	consoleBuffer := &bytes.Buffer{}

	session, openError := runlog.Open(runlog.Options{Category: testCategoryConstant, Console: consoleBuffer})
	require.NoError(testInstance, openError)

	session.Warning("alice may not be a contributor to the repository billing")
	require.NoError(testInstance, session.Close())

	require.Empty(testInstance, session.DebugLogPath())
	require.Empty(testInstance, session.ErrorLogPath())
	require.Equal(testInstance, "[WARNING] alice may not be a contributor to the repository billing\n", consoleBuffer.String())
}

func TestOpenRequiresCategory(testInstance *testing.T) {
	_, openError := runlog.Open(runlog.Options{Category: "  "})
	require.ErrorIs(testInstance, openError, runlog.ErrCategoryRequired)
}
