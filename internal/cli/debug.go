package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danpasecinic/spindle"
	"github.com/danpasecinic/spindle/build"
)

type debugOpts struct {
	module string
	cwd    string
	format string
	stores storeFlags
}

func (c *CLI) newDebugCmd() *cobra.Command {
	opts := debugOpts{}

	cmd := &cobra.Command{
		Use:   "debug <namespace>",
		Short: "Show the services of a built container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDebug(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.module, "module", "m", "", "module whose container is shown")
	cmd.Flags().StringVarP(&opts.cwd, "dir", "d", ".", "working directory holding the cache")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "table", "output format: table, tree or dot")
	addStoreFlags(cmd, &opts.stores)
	return cmd
}

func (c *CLI) runDebug(cmd *cobra.Command, namespace string, opts debugOpts) error {
	switch opts.format {
	case "table", "tree", "dot":
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	b, err := c.newBuilder(cfg, opts.stores)
	if err != nil {
		return err
	}

	req := build.Request{Namespace: namespace, ModuleName: opts.module, Cwd: opts.cwd}
	path := req.ArtifactPath(cfg.CacheDir)
	a, err := b.Store().Load(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("no artifact for %s at %s: %w", req.ContainerClass(), path, err)
	}

	r := spindle.New(spindle.WithConfig(cfg), spindle.WithLogger(c.zapLogger()))
	container, err := build.NewLoader(r, b).FromArtifact(a)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch opts.format {
	case "dot":
		container.FprintGraphDOT(out)
	case "tree":
		container.FprintGraph(out)
	default:
		printKeyValue(out, "container", a.FQCN())
		printKeyValue(out, "build", a.BuildID)
		printKeyValue(out, "environment", a.Environment)
		printKeyValue(out, "built at", a.BuiltAt.Format("2006-01-02 15:04:05"))
		printKeyValue(out, "fingerprint", a.Fingerprint)
		_, _ = fmt.Fprintln(out, renderServices(container.Graph()))
	}
	return nil
}
