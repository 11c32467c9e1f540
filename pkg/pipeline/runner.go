package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/seafoam/pkg/bgv"
	"github.com/matzehuels/seafoam/pkg/cache"
	"github.com/matzehuels/seafoam/pkg/errors"
	"github.com/matzehuels/seafoam/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use it so caching behaves the same everywhere.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs decode → prepare → render for one snapshot, serving the
// artifact from the cache when an identical run was cached before.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	fileHash, err := hashDump(opts.File)
	if err != nil {
		return nil, err
	}
	result := &Result{FileHash: fileHash}
	cacheKey := r.Keyer.ArtifactKey(fileHash, opts.ArtifactKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			result.Artifact = data
			result.CacheInfo.RenderHit = true
			r.Logger.Debug("artifact from cache", "file", opts.File, "index", opts.Index)
			return result, nil
		} else if err != nil {
			r.Logger.Warn("cache read failed", "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	// Stage 1: Decode
	decodeStart := time.Now()
	observability.Pipeline().OnDecodeStart(ctx, opts.File, opts.Index)
	g, h, err := Decode(ctx, opts)
	result.Stats.DecodeTime = time.Since(decodeStart)
	if err != nil {
		observability.Pipeline().OnDecodeComplete(ctx, opts.File, opts.Index, 0, 0, result.Stats.DecodeTime, err)
		return nil, err
	}
	observability.Pipeline().OnDecodeComplete(ctx, opts.File, opts.Index,
		g.NodeCount(), g.EdgeCount(), result.Stats.DecodeTime, nil)
	result.Graph = g
	result.Name = bgv.DisplayName(h)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()

	r.Logger.Info("decoded snapshot",
		"graph", result.Name,
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"duration", result.Stats.DecodeTime)

	// Stage 2: Prepare
	applied, err := Prepare(g, opts)
	if err != nil {
		return nil, err
	}
	result.Applied = applied
	result.Stats.HiddenNodes = hiddenNodes(g)
	observability.Pipeline().OnAnnotate(ctx, applied, result.Stats.HiddenNodes)

	// Stage 3: Render
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, string(opts.Format))
	data, err := Render(ctx, g, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	observability.Pipeline().OnRenderComplete(ctx, string(opts.Format), len(data), result.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}
	result.Artifact = data

	r.Logger.Info("rendered graph",
		"format", opts.Format,
		"bytes", len(data),
		"duration", result.Stats.RenderTime)

	if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err != nil {
		r.Logger.Warn("cache write failed", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return result, nil
}

// Snapshot is one entry of a dump listing.
type Snapshot struct {
	Index int    `json:"index"`
	ID    int    `json:"id"`
	Name  string `json:"name"`
}

// List returns the snapshots of the dump at path, cached by content hash.
// The bool reports a cache hit.
func (r *Runner) List(ctx context.Context, path string) ([]Snapshot, bool, error) {
	fileHash, err := hashDump(path)
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.ListKey(fileHash)

	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		var cached []Snapshot
		if err := json.Unmarshal(data, &cached); err == nil {
			observability.Cache().OnCacheHit(ctx, "list")
			return cached, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "list")

	entries, err := bgv.ListSnapshots(path, bgv.WithLogger(r.Logger))
	if err != nil {
		return nil, false, err
	}
	out := make([]Snapshot, 0, len(entries))
	for _, e := range entries {
		out = append(out, Snapshot{Index: e.Index, ID: e.ID, Name: e.Name})
	}

	if data, err := json.Marshal(out); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLList); err == nil {
			observability.Cache().OnCacheSet(ctx, "list", len(data))
		}
	}
	return out, false, nil
}

// hashDump hashes the dump at path. A missing file is NOT_FOUND.
func hashDump(path string) (string, error) {
	h, err := cache.HashFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrap(errors.ErrCodeNotFound, err, "open %s", path)
		}
		return "", fmt.Errorf("hash dump: %w", err)
	}
	return h, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
