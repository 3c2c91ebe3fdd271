package commits

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	pacerBurstConstant             = 1
	repositoryKeySeparatorConstant = "/"
)

// Pacer enforces a fixed pause between the end of one request against a repository
// and the start of the next. The first request of a repository is never delayed.
type Pacer struct {
	interval time.Duration
	mutex    sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewPacer constructs a Pacer; a non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval, limiters: make(map[string]*rate.Limiter)}
}

// Wait blocks until the repository's pause has elapsed.
func (pacer *Pacer) Wait(executionContext context.Context, repository RepositoryContext) error {
	if pacer.interval <= 0 {
		return executionContext.Err()
	}
	return pacer.limiterFor(repository).Wait(executionContext)
}

// Done starts the repository's pause at completedAt. The limiter is replaced by one whose
// only token was spent at completedAt, so the next Wait returns at completedAt plus the interval
// however long the request took.
func (pacer *Pacer) Done(repository RepositoryContext, completedAt time.Time) {
	if pacer.interval <= 0 {
		return
	}
	limiter := rate.NewLimiter(rate.Every(pacer.interval), pacerBurstConstant)
	limiter.ReserveN(completedAt, pacerBurstConstant)

	pacer.mutex.Lock()
	defer pacer.mutex.Unlock()
	pacer.limiters[repositoryKey(repository)] = limiter
}

func (pacer *Pacer) limiterFor(repository RepositoryContext) *rate.Limiter {
	key := repositoryKey(repository)

	pacer.mutex.Lock()
	defer pacer.mutex.Unlock()

	limiter, exists := pacer.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(pacer.interval), pacerBurstConstant)
		pacer.limiters[key] = limiter
	}
	return limiter
}

func repositoryKey(repository RepositoryContext) string {
	return repository.Organization + repositoryKeySeparatorConstant + repository.Repository
}

// PacedSource delays each fetch through a Pacer before delegating.
type PacedSource struct {
	source Source
	pacer  *Pacer
}

// NewPacedSource wraps source with pacer.
func NewPacedSource(source Source, pacer *Pacer) *PacedSource {
	return &PacedSource{source: source, pacer: pacer}
}

// FetchCommits waits out the repository's pause, fetches, and restarts the pause once the
// fetch returns. Failed fetches reached the API too, so they restart it as well.
func (pacedSource *PacedSource) FetchCommits(executionContext context.Context, repository RepositoryContext, user string) ([]Record, error) {
	if waitError := pacedSource.pacer.Wait(executionContext, repository); waitError != nil {
		return nil, waitError
	}
	records, fetchError := pacedSource.source.FetchCommits(executionContext, repository, user)
	pacedSource.pacer.Done(repository, time.Now())
	return records, fetchError
}
