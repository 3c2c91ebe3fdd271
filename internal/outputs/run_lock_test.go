package outputs_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/repoaudit/internal/outputs"
)

func TestRunLockExcludesSecondRun(testInstance *testing.T) {
	directory := testInstance.TempDir()

	firstLock, firstError := outputs.AcquireRunLock(directory)
	require.NoError(testInstance, firstError)
	require.FileExists(testInstance, firstLock.Path())

	_, secondError := outputs.AcquireRunLock(directory)
	require.ErrorIs(testInstance, secondError, outputs.ErrRunLockHeld)

	require.NoError(testInstance, firstLock.Release())
	require.FileExists(testInstance, firstLock.Path())
	firstInfo, firstStatError := os.Stat(firstLock.Path())
	require.NoError(testInstance, firstStatError)

	thirdLock, thirdError := outputs.AcquireRunLock(directory)
	require.NoError(testInstance, thirdError)
	thirdInfo, thirdStatError := os.Stat(thirdLock.Path())
	require.NoError(testInstance, thirdStatError)
	require.True(testInstance, os.SameFile(firstInfo, thirdInfo))

	_, contendedError := outputs.AcquireRunLock(directory)
	require.ErrorIs(testInstance, contendedError, outputs.ErrRunLockHeld)
	require.NoError(testInstance, thirdLock.Release())
}

func TestReleaseOfNilRunLockIsNoop(testInstance *testing.T) {
	var runLock *outputs.RunLock
	require.NoError(testInstance, runLock.Release())
}
