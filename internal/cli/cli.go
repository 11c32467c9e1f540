package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/seafoam/pkg/annotate"
	"github.com/matzehuels/seafoam/pkg/buildinfo"
	"github.com/matzehuels/seafoam/pkg/cache"
	"github.com/matzehuels/seafoam/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "seafoam"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Seafoam inspects and renders compiler graph dumps",
		Long: `Seafoam reads BGV dumps written by the Graal compiler. It lists the graphs
in a dump, prints their properties and edges, searches them, and renders
them with Graphviz.

Graphs, nodes and edges are addressed as file.bgv[:graph[:node[-node]]].`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.infoCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.edgesCommand())
	root.AddCommand(c.propsCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.debugCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cc, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/seafoam/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Annotator Flags
// =============================================================================

// annotateFlags are the annotator switches shared by render, edges and serve.
type annotateFlags struct {
	showFrameState bool
	hideFloating   bool
	noReduceEdges  bool
	options        []string
	config         string
}

func (f *annotateFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.showFrameState, "show-frame-state", false, "show frame state nodes")
	cmd.Flags().BoolVar(&f.hideFloating, "hide-floating", false, "hide nodes not fixed in the control flow")
	cmd.Flags().BoolVar(&f.noReduceEdges, "no-reduce-edges", false, "draw parallel edges separately")
	cmd.Flags().StringArrayVar(&f.options, "option", nil, "annotator option as key=value (repeatable)")
	cmd.Flags().StringVar(&f.config, "config", "", "TOML file of annotator options")
}

// build resolves the flags into annotator options. The config file is
// applied first, then the switches, then each --option in order.
func (f *annotateFlags) build() (annotate.Options, error) {
	opts := annotate.DefaultOptions()
	if f.config != "" {
		loaded, err := annotate.LoadOptions(f.config, opts)
		if err != nil {
			return opts, err
		}
		opts = loaded
	}
	if f.showFrameState {
		opts.HideFrameState = false
	}
	if f.hideFloating {
		opts.HideFloating = true
	}
	if f.noReduceEdges {
		opts.ReduceEdges = false
	}
	for _, pair := range f.options {
		if err := opts.SetPair(pair); err != nil {
			return opts, err
		}
	}
	return opts, nil
}
