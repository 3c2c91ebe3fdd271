package commits

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheKey struct {
	organization string
	repository   string
	user         string
	sinceUnix    int64
	untilUnix    int64
}

func newCacheKey(repository RepositoryContext, user string) cacheKey {
	return cacheKey{
		organization: repository.Organization,
		repository:   repository.Repository,
		user:         user,
		sinceUnix:    repository.Window.Since.Unix(),
		untilUnix:    repository.Window.Until.Unix(),
	}
}

// CachingSource memoizes successful fetches so repeated repository entries
// do not query the API twice.
type CachingSource struct {
	source Source
	cache  *lru.Cache[cacheKey, []Record]
}

// NewCachingSource wraps source with an LRU cache holding up to size answers.
// A non-positive size returns source unchanged.
func NewCachingSource(source Source, size int) (Source, error) {
	if size <= 0 {
		return source, nil
	}
	cache, cacheError := lru.New[cacheKey, []Record](size)
	if cacheError != nil {
		return nil, cacheError
	}
	return &CachingSource{source: source, cache: cache}, nil
}

// FetchCommits returns the cached answer or delegates and remembers it.
func (cachingSource *CachingSource) FetchCommits(executionContext context.Context, repository RepositoryContext, user string) ([]Record, error) {
	key := newCacheKey(repository, user)
	if records, cached := cachingSource.cache.Get(key); cached {
		return append([]Record(nil), records...), nil
	}

	records, fetchError := cachingSource.source.FetchCommits(executionContext, repository, user)
	if fetchError != nil {
		return nil, fetchError
	}
	cachingSource.cache.Add(key, append([]Record(nil), records...))
	return records, nil
}
