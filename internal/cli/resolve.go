package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danpasecinic/spindle"
)

type resolveOpts struct {
	cwd    string
	stores storeFlags
}

func (c *CLI) newResolveCmd() *cobra.Command {
	opts := resolveOpts{}

	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve an identifier through the configured module containers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.cwd, "dir", "d", ".", "working directory holding the cache")
	addStoreFlags(cmd, &opts.stores)
	return cmd
}

func (c *CLI) runResolve(cmd *cobra.Command, id string, opts resolveOpts) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	b, err := c.newBuilder(cfg, opts.stores)
	if err != nil {
		return err
	}
	r, err := c.newRuntime(ctx, cfg, b, opts.cwd)
	if err != nil {
		return err
	}

	v, err := r.Get(id)
	if err != nil {
		printError(out, "%s", id)
		var e *spindle.Error
		if errors.As(err, &e) {
			for _, check := range e.Checks {
				printDetail(out, "checked %s in %s", check.ID, check.Container)
			}
		}
		return err
	}
	if v == nil {
		printError(out, "%s is not held by any container", id)
		return fmt.Errorf("%s not found", id)
	}

	printSuccess(out, "%s", StyleTitle.Render(id))
	printKeyValue(out, "type", fmt.Sprintf("%T", v))
	for _, check := range r.LastChecks() {
		printDetail(out, "checked %s in %s", check.ID, check.Container)
	}
	return nil
}
