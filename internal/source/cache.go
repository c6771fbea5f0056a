package source

import (
	"context"
	"sync"

	"github.com/harbour-pm/harbour/internal/ident"
)

// Cache owns live Source implementations keyed by SourceId, creating the
// correct variant on first use (spec.md §4.2 "The SourceCache owns live
// sources keyed by SourceId"). Do not global-cache package data here: two
// different SourceIds may refer to the same on-disk directory at different
// commits, so caching happens inside each Source implementation, never at
// this layer.
type Cache struct {
	cacheDir    string
	registryURL string // default registry; NewCache leaves it empty and Get does not read it

	mu      sync.Mutex
	sources map[string]Source
}

// NewCache constructs a cache rooted at cacheDir (spec.md §4.1's
// <root>/.harbour/cache).
func NewCache(cacheDir string) *Cache {
	return &Cache{cacheDir: cacheDir, sources: make(map[string]Source)}
}

// Get returns the Source for id, creating it on first use.
func (c *Cache) Get(id ident.SourceId) Source {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := id.Key()
	if s, ok := c.sources[key]; ok {
		return s
	}

	var s Source
	switch id.Kind {
	case ident.SourcePath:
		s = NewPathSource(id.Path)
	case ident.SourceGit:
		s = NewGitSource(id.URL, id.Ref, c.cacheDir)
	case ident.SourceRegistry:
		s = NewRegistrySource(id.URL, c.cacheDir)
	}
	c.sources[key] = s
	return s
}

// EnsureReadyAll ensures every source answering for deps has completed its
// readiness I/O before resolution begins (spec.md §4.2: "It ensures
// sources for a batch of dependencies are ready before resolution
// begins.").
func (c *Cache) EnsureReadyAll(ctx context.Context, deps []ident.Dependency) error {
	seen := make(map[string]bool)
	for _, dep := range deps {
		key := dep.Source.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		s := c.Get(dep.Source)
		if s == nil {
			continue
		}
		if err := s.EnsureReady(ctx); err != nil {
			return err
		}
	}
	return nil
}
