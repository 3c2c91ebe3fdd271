package commits_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/repoaudit/internal/commits"
)

type recordingSource struct {
	calls      []string
	callTimes  []time.Time
	finishedAt []time.Time
	latency    time.Duration
	records    []commits.Record
	err        error
}

func (source *recordingSource) FetchCommits(_ context.Context, repository commits.RepositoryContext, user string) ([]commits.Record, error) {
	source.calls = append(source.calls, repository.Repository+":"+user)
	source.callTimes = append(source.callTimes, time.Now())
	time.Sleep(source.latency)
	source.finishedAt = append(source.finishedAt, time.Now())
	if source.err != nil {
		return nil, source.err
	}
	return source.records, nil
}

func TestCachingSourceMemoizesSuccessfulFetches(testInstance *testing.T) {
	delegate := &recordingSource{records: []commits.Record{{SHA: "a1", User: testUserConstant}}}
	source, sourceError := commits.NewCachingSource(delegate, 8)
	require.NoError(testInstance, sourceError)

	repository := testRepositoryContext()
	for attempt := 0; attempt < 3; attempt++ {
		records, fetchError := source.FetchCommits(context.Background(), repository, testUserConstant)
		require.NoError(testInstance, fetchError)
		require.Len(testInstance, records, 1)
	}
	require.Len(testInstance, delegate.calls, 1)

	otherWindow := repository
	otherWindow.Window.Until = otherWindow.Window.Until.AddDate(0, 1, 0)
	_, fetchError := source.FetchCommits(context.Background(), otherWindow, testUserConstant)
	require.NoError(testInstance, fetchError)
	require.Len(testInstance, delegate.calls, 2)
}

func TestCachingSourceDoesNotRememberFailures(testInstance *testing.T) {
	delegate := &recordingSource{err: errors.New("boom")}
	source, sourceError := commits.NewCachingSource(delegate, 8)
	require.NoError(testInstance, sourceError)

	for attempt := 0; attempt < 2; attempt++ {
		_, fetchError := source.FetchCommits(context.Background(), testRepositoryContext(), testUserConstant)
		require.Error(testInstance, fetchError)
	}
	require.Len(testInstance, delegate.calls, 2)
}

func TestNewCachingSourceWithoutSizeReturnsDelegate(testInstance *testing.T) {
	delegate := &recordingSource{}
	source, sourceError := commits.NewCachingSource(delegate, 0)
	require.NoError(testInstance, sourceError)
	require.Same(testInstance, delegate, source)
}

func TestPacedSourcePausesAfterEachFetchWithinRepository(testInstance *testing.T) {
	testCases := []struct {
		name    string
		latency time.Duration
	}{
		{name: "fast responses", latency: 0},
		{name: "responses slower than the interval", latency: 90 * time.Millisecond},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subTest *testing.T) {
			interval := 60 * time.Millisecond
			delegate := &recordingSource{latency: testCase.latency}
			source := commits.NewPacedSource(delegate, commits.NewPacer(interval))

			firstRepository := testRepositoryContext()
			secondRepository := testRepositoryContext()
			secondRepository.Repository = "ledger"

			startedAt := time.Now()
			for _, user := range []string{"alice", "bob", "carol"} {
				_, fetchError := source.FetchCommits(context.Background(), firstRepository, user)
				require.NoError(subTest, fetchError)
			}
			_, fetchError := source.FetchCommits(context.Background(), secondRepository, "alice")
			require.NoError(subTest, fetchError)

			require.Equal(subTest, []string{"billing:alice", "billing:bob", "billing:carol", "ledger:alice"}, delegate.calls)
			require.Less(subTest, delegate.callTimes[0].Sub(startedAt), interval/2)
			for fetchIndex := 1; fetchIndex < 3; fetchIndex++ {
				pause := delegate.callTimes[fetchIndex].Sub(delegate.finishedAt[fetchIndex-1])
				require.GreaterOrEqual(subTest, pause, interval-10*time.Millisecond)
			}
			require.Less(subTest, delegate.callTimes[3].Sub(delegate.finishedAt[2]), interval/2)
		})
	}
}

func TestPacedSourcePausesAfterFailedFetch(testInstance *testing.T) {
	interval := 60 * time.Millisecond
	delegate := &recordingSource{err: errors.New("boom")}
	source := commits.NewPacedSource(delegate, commits.NewPacer(interval))

	for _, user := range []string{"alice", "bob"} {
		_, fetchError := source.FetchCommits(context.Background(), testRepositoryContext(), user)
		require.Error(testInstance, fetchError)
	}
	require.GreaterOrEqual(testInstance, delegate.callTimes[1].Sub(delegate.finishedAt[0]), interval-10*time.Millisecond)
}

func TestPacerWithoutIntervalNeverWaits(testInstance *testing.T) {
	pacer := commits.NewPacer(0)
	startedAt := time.Now()
	for attempt := 0; attempt < 5; attempt++ {
		require.NoError(testInstance, pacer.Wait(context.Background(), testRepositoryContext()))
	}
	require.Less(testInstance, time.Since(startedAt), 50*time.Millisecond)
}

func TestPacerHonorsCancellation(testInstance *testing.T) {
	pacer := commits.NewPacer(time.Hour)
	require.NoError(testInstance, pacer.Wait(context.Background(), testRepositoryContext()))

	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(testInstance, pacer.Wait(cancelledContext, testRepositoryContext()))
}
