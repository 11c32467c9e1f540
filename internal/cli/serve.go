package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/seafoam/internal/server"
	"github.com/matzehuels/seafoam/pkg/cache"
	"github.com/matzehuels/seafoam/pkg/pipeline"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	root      string
	addr      string
	redisURL  string
	cacheSize int
	prefix    string
	annotate  annotateFlags
}

// serveCommand serves listings and renders of the dumps below a directory.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		root:      ".",
		addr:      server.DefaultAddr,
		cacheSize: cache.DefaultLRUSize,
		prefix:    appName,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve graphs over HTTP",
		Long: `Serve the dumps below --root over HTTP.

  GET /graphs?file=fib.bgv                list the graphs of a dump
  GET /graphs/2?file=fib.bgv&format=svg   render graph 2

Renders are cached in memory, or in Redis when --redis is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			aopts, err := opts.annotate.build()
			if err != nil {
				return err
			}

			var (
				cc    cache.Cache
				keyer cache.Keyer
			)
			if opts.redisURL != "" {
				cc, err = cache.NewRedisCache(ctx, opts.redisURL)
				keyer = cache.NewScopedKeyer(nil, opts.prefix)
			} else {
				cc, err = cache.NewLRUCache(opts.cacheSize)
			}
			if err != nil {
				return err
			}

			runner := pipeline.NewRunner(cc, keyer, c.Logger)
			defer runner.Close()

			s, err := server.New(server.Config{
				Root:     opts.root,
				Runner:   runner,
				Annotate: aopts,
				Logger:   c.Logger,
			})
			if err != nil {
				return err
			}
			printInfo(cmd.OutOrStdout(), "Serving %s on http://%s", s.Root(), opts.addr)
			return s.ListenAndServe(ctx, opts.addr)
		},
	}

	cmd.Flags().StringVar(&opts.root, "root", opts.root, "directory to serve dumps from")
	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "Redis URL for a shared render cache")
	cmd.Flags().IntVar(&opts.cacheSize, "cache-size", opts.cacheSize, "in-memory cache entries")
	cmd.Flags().StringVar(&opts.prefix, "cache-prefix", opts.prefix, "key prefix in Redis")
	opts.annotate.register(cmd)

	return cmd
}
