package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/seafoam/pkg/observability"
)

// Execute builds the command tree, wires --verbose and --quiet and runs it
// with args. Logs go to logw.
func Execute(ctx context.Context, logw io.Writer, args []string) error {
	var verbose, quiet bool

	c := New(logw, LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	pre := root.PersistentPreRun
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		c.SetLogLevel(logLevel(verbose, quiet))
		if verbose {
			observability.NewLogHooks(c.Logger).Register()
		}
		if pre != nil {
			pre(cmd, args)
		}
	}

	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
