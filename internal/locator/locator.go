// Package locator resolves package names to archive locations on upstream
// mirrors using each mirror's 02packages.details.txt.gz index.
package locator

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/darkpan/internal/cachemanager"
	"github.com/zjrosen/darkpan/internal/log"
	"github.com/zjrosen/darkpan/internal/repository/domain"
	"github.com/zjrosen/darkpan/internal/version"
)

const (
	indexPath = "modules/02packages.details.txt.gz"

	// DefaultTTL is how long a downloaded index is trusted.
	DefaultTTL = time.Hour
)

// MirrorLocator implements domain.Locator over a list of mirrors.
type MirrorLocator struct {
	mirrors  []string
	fetcher  domain.Fetcher
	cacheDir string
	ttl      time.Duration
	indexes  *cachemanager.ReadThroughCache[string, Index, string]
}

var _ domain.Locator = (*MirrorLocator)(nil)

// Option configures a MirrorLocator during construction.
type Option func(*MirrorLocator)

// WithTTL sets how long indexes are reused, in memory and on disk.
func WithTTL(ttl time.Duration) Option {
	return func(l *MirrorLocator) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithCache replaces the in-memory index cache.
func WithCache(cache cachemanager.CacheManager[string, Index]) Option {
	return func(l *MirrorLocator) {
		l.indexes = cachemanager.NewReadThroughCache(cache, l.loadIndex, false)
	}
}

// New creates a locator that consults mirrors in order, downloading their
// indexes with fetcher into cacheDir.
func New(fetcher domain.Fetcher, cacheDir string, mirrors []string, opts ...Option) *MirrorLocator {
	l := &MirrorLocator{
		fetcher:  fetcher,
		cacheDir: cacheDir,
		ttl:      DefaultTTL,
	}
	for _, m := range mirrors {
		l.mirrors = append(l.mirrors, strings.TrimRight(m, "/"))
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.indexes == nil {
		cache := cachemanager.NewInMemoryCacheManager[string, Index]("mirror-index", l.ttl, cachemanager.DefaultCleanupInterval)
		l.indexes = cachemanager.NewReadThroughCache[string, Index, string](cache, l.loadIndex, false)
	}
	return l
}

// Locate returns the highest version satisfying criteria across all
// mirrors, preferring the earlier mirror on ties. Returns (nil, nil) when
// no mirror has a match. Mirrors whose index cannot be loaded are skipped;
// if none can be loaded the last error is returned.
func (l *MirrorLocator) Locate(ctx context.Context, criteria domain.Criteria) (*domain.Location, error) {
	var best *domain.Location
	var lastErr error
	loaded := 0

	for _, mirror := range l.mirrors {
		idx, err := l.indexes.Get(ctx, mirror, mirror, l.ttl)
		if err != nil {
			log.Warn(log.CatLocate, "mirror index unavailable", "mirror", mirror, "error", err)
			lastErr = err
			continue
		}
		loaded++

		entry, ok := idx[criteria.Name]
		if !ok || !version.AtLeast(entry.Version, criteria.Version) {
			continue
		}
		if best != nil && version.Compare(entry.Version, best.Version) <= 0 {
			continue
		}
		best = &domain.Location{
			Package: criteria.Name,
			Version: entry.Version,
			Path:    entry.Path,
			URL:     mirror + "/authors/id/" + entry.Path,
			Source:  domain.Source(mirror),
		}
	}

	if loaded == 0 && lastErr != nil {
		return nil, lastErr
	}
	if best == nil {
		log.Debug(log.CatLocate, "package not found", "package", criteria.Name, "version", criteria.Version)
		return nil, nil
	}
	log.Debug(log.CatLocate, "package located", "package", best.Package, "version", best.Version, "url", best.URL)
	return best, nil
}

// Refresh drops cached indexes so the next Locate downloads them again.
func (l *MirrorLocator) Refresh(ctx context.Context) error {
	for _, mirror := range l.mirrors {
		if err := l.indexes.Invalidate(ctx, mirror); err != nil {
			return err
		}
		_ = os.Remove(l.indexFile(mirror))
	}
	return nil
}

// loadIndex parses the mirror's index, downloading it first unless the
// copy on disk is younger than the TTL.
func (l *MirrorLocator) loadIndex(ctx context.Context, mirror string) (Index, error) {
	file := l.indexFile(mirror)
	if info, err := os.Stat(file); err == nil && time.Since(info.ModTime()) < l.ttl {
		idx, err := ParseIndexFile(file)
		if err == nil {
			log.Debug(log.CatCache, "using cached index", "mirror", mirror, "packages", len(idx))
			return idx, nil
		}
		log.Warn(log.CatCache, "discarding unreadable cached index", "mirror", mirror, "error", err)
	}

	if err := l.fetcher.Fetch(ctx, mirror+"/"+indexPath, file); err != nil {
		return nil, err
	}
	idx, err := ParseIndexFile(file)
	if err != nil {
		return nil, fmt.Errorf("parsing index from %s: %w", mirror, err)
	}
	log.Info(log.CatLocate, "mirror index loaded", "mirror", mirror, "packages", len(idx))
	return idx, nil
}

// indexFile returns where the index for mirror is cached on disk.
func (l *MirrorLocator) indexFile(mirror string) string {
	name := mirror
	if u, err := url.Parse(mirror); err == nil && u.Host != "" {
		name = u.Host + u.Path
	} else if err == nil && u.Scheme == "file" {
		name = "file" + u.Path
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
	return filepath.Join(l.cacheDir, name, filepath.Base(indexPath))
}
