package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-codetree/pkg/codebase"
	"github.com/mattsolo1/grove-codetree/pkg/source"
)

// CachingProvider wraps a source.Provider with read-through caching.
type CachingProvider struct {
	source.Provider
	name    string
	cache   *Cache
	maxAge  time.Duration
	refresh bool
	logger  *logrus.Entry
}

// Wrap returns a CachingProvider whose entries are keyed under name, which
// may be a configured alias rather than p.Name(). With refresh set, the cache
// is never read but fresh results are still stored.
func Wrap(name string, p source.Provider, c *Cache, maxAge time.Duration, refresh bool, logger *logrus.Entry) *CachingProvider {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &CachingProvider{
		Provider: p,
		name:     name,
		cache:    c,
		maxAge:   maxAge,
		refresh:  refresh,
		logger:   logger,
	}
}

// Name returns the name entries are cached under.
func (p *CachingProvider) Name() string {
	return p.name
}

// FetchTree serves ref from the cache when possible. Cache failures are
// logged and fall through to the wrapped provider.
func (p *CachingProvider) FetchTree(ctx context.Context, ref source.Ref) (*codebase.Payload, error) {
	key := ref.Key(p.Name())
	log := p.logger.WithField("key", key)

	if !p.refresh {
		payload, err := p.cache.Get(key, p.maxAge)
		switch {
		case err == nil:
			log.Debug("Cache hit")
			return payload, nil
		case errors.Is(err, ErrMiss):
			log.Debug("Cache miss")
		default:
			log.WithError(err).Warn("Failed to read tree cache")
		}
	}

	payload, err := p.Provider.FetchTree(ctx, ref)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Put(key, p.Name(), ref.String(), payload); err != nil {
		log.WithError(err).Warn("Failed to write tree cache")
	}
	return payload, nil
}
