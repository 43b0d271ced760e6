// Package registry builds the per-source synchronizers from the mapping file.
// The result is immutable: adding a source means restarting the process.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/config"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/cache"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/synchronizer"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/upstream"
)

var ErrUnknownSource = errors.New("unknown source")

// FetcherFactory returns the upstream client for a source.
type FetcherFactory func(src config.SourceConfig) synchronizer.Fetcher

// Deps are shared by every synchronizer in the registry.
type Deps struct {
	Store    *synchronizer.Store
	Cache    cache.Store
	CacheTTL time.Duration
	Workers  int
	Logger   zerolog.Logger
	// Fetchers defaults to an upstream.Client per source.
	Fetchers FetcherFactory
	// FetchTimeout and FetchRetryMax configure the default clients.
	FetchTimeout  time.Duration
	FetchRetryMax int
}

type Registry struct {
	sources map[string]*synchronizer.Synchronizer
	ids     []string
}

// Build compiles every source in mf. The first invalid source fails the
// whole build.
func Build(mf *config.MappingFile, deps Deps) (*Registry, error) {
	if mf == nil || len(mf.Sources) == 0 {
		return nil, fmt.Errorf("registry: no sources")
	}
	fetchers := deps.Fetchers
	if fetchers == nil {
		fetchers = func(src config.SourceConfig) synchronizer.Fetcher {
			return upstream.New(upstream.Options{
				BaseURL:  src.BaseURL,
				Timeout:  deps.FetchTimeout,
				RetryMax: deps.FetchRetryMax,
				Logger:   deps.Logger,
			})
		}
	}

	r := &Registry{sources: make(map[string]*synchronizer.Synchronizer, len(mf.Sources))}
	for _, src := range mf.Sources {
		if _, dup := r.sources[src.ID]; dup {
			return nil, fmt.Errorf("registry: source %q declared twice", src.ID)
		}
		s, err := synchronizer.New(synchronizer.Options{
			Source:   src,
			Fetcher:  fetchers(src),
			Store:    deps.Store,
			Cache:    deps.Cache,
			CacheTTL: deps.CacheTTL,
			Workers:  deps.Workers,
			Logger:   deps.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("registry: %w", err)
		}
		r.sources[src.ID] = s
		r.ids = append(r.ids, src.ID)
	}
	sort.Strings(r.ids)
	return r, nil
}

func (r *Registry) Lookup(source string) (*synchronizer.Synchronizer, error) {
	s, ok := r.sources[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	return s, nil
}

// Sources returns the source ids in sorted order.
func (r *Registry) Sources() []string {
	return append([]string(nil), r.ids...)
}

// IsUnknownSource reports whether err came from a failed Lookup.
func IsUnknownSource(err error) bool {
	return errors.Is(err, ErrUnknownSource)
}
