// Package pipeline provides the decode → annotate → render pipeline shared
// by the seafoam CLI and HTTP server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Decode: read one snapshot of a BGV dump, skipping the others
//  2. Prepare: run the annotators and the optional spotlight
//  3. Render: write Graphviz DOT and lay it out in the requested format
//
// A [Runner] wraps the stages with an artifact cache keyed by the dump's
// content hash, the snapshot index and every option that changes the
// output.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    File:   "fib.bgv",
//	    Index:  2,
//	    Format: dot.FormatSVG,
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("fib.svg", result.Artifact, 0o644)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/seafoam/pkg/annotate"
	"github.com/matzehuels/seafoam/pkg/cache"
	"github.com/matzehuels/seafoam/pkg/errors"
	"github.com/matzehuels/seafoam/pkg/graph"
	"github.com/matzehuels/seafoam/pkg/render/dot"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultFormat is the output format when none is given.
	DefaultFormat = dot.FormatPDF

	// DefaultOutput is the CLI's output file when -o is not given.
	DefaultOutput = "graph.pdf"

	// DefaultScale is the PNG scale factor. Any other value renders PNG
	// through rsvg-convert.
	DefaultScale = 1.0
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
type Options struct {
	// Decode options
	File  string `json:"file"`
	Index int    `json:"index"`

	// Prepare options. A nil Annotate means [annotate.DefaultOptions].
	Annotate  *annotate.Options `json:"-"`
	Spotlight []int             `json:"spotlight,omitempty"`

	// Render options
	Format  dot.Format `json:"format,omitempty"`
	Scale   float64    `json:"scale,omitempty"`
	Title   bool       `json:"title,omitempty"`
	ShowIDs bool       `json:"show_ids,omitempty"`

	// Refresh bypasses cache reads; the result is still written back.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the annotated snapshot. It is nil when the artifact came
	// from the cache.
	Graph *graph.Graph

	// Name is the snapshot's display name, empty on a cache hit.
	Name string

	// Applied lists the annotators that ran.
	Applied []string

	// Artifact is the rendered output.
	Artifact []byte

	// FileHash is the content hash of the dump.
	FileHash string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the artifact came from the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	HiddenNodes int
	DecodeTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	RenderHit bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format dot.Format) error {
	if !dot.ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid format: %q (must be one of: dot, svg, png, jpg, pdf)", format)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForDecode(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForDecode checks the fields the decode stage needs.
func (o *Options) ValidateForDecode() error {
	if o.File == "" {
		return errors.New(errors.ErrCodeInvalidInput, "file is required")
	}
	if o.Index < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "graph index must be >= 0, got %d", o.Index)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Annotate == nil {
		opts := annotate.DefaultOptions()
		o.Annotate = &opts
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %g", o.Scale)
	}
	return nil
}

// DOTOptions returns the DOT writer options.
func (o *Options) DOTOptions() dot.Options {
	return dot.Options{Title: o.Title, ShowIDs: o.ShowIDs}
}

// ArtifactKeyOpts returns cache key options for the rendered artifact.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	var optsKey string
	if o.Annotate != nil {
		optsKey = o.Annotate.Key()
	}
	return cache.ArtifactKeyOpts{
		Index:     o.Index,
		Options:   optsKey,
		Spotlight: o.Spotlight,
		Format:    string(o.Format),
		Scale:     o.Scale,
		ShowIDs:   o.ShowIDs,
		Title:     o.Title,
	}
}
