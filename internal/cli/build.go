package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/danpasecinic/spindle/build"
)

type buildOpts struct {
	module     string
	cwd        string
	configFile string
	noCache    bool
	watch      bool
	stores     storeFlags
}

func (c *CLI) newBuildCmd() *cobra.Command {
	opts := buildOpts{}

	cmd := &cobra.Command{
		Use:   "build [namespace]",
		Short: "Compile a services file into a container artifact",
		Long: `Build compiles the services file of a namespace or module into a container
artifact under <cwd>/<cache_dir>/DependencyInjection. The "project" namespace has
no container of its own and builds nothing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			namespace := build.ProjectNamespace
			if len(args) == 1 {
				namespace = args[0]
			}
			return c.runBuild(cmd, namespace, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.module, "module", "m", "", "module whose container is built")
	cmd.Flags().StringVarP(&opts.cwd, "dir", "d", ".", "working directory holding config/ and the cache")
	cmd.Flags().StringVarP(&opts.configFile, "config-file", "c", build.DefaultConfigFile, "services file, relative to <dir>/config")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "rebuild even when the artifact is fresh")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "rebuild whenever the services files change")
	addStoreFlags(cmd, &opts.stores)
	return cmd
}

func addStoreFlags(cmd *cobra.Command, stores *storeFlags) {
	cmd.Flags().StringVar(&stores.redisAddr, "redis-addr", "", "keep artifacts in redis instead of the file system")
	cmd.Flags().StringVar(&stores.redisTTL, "redis-ttl", "", "expiry of artifacts kept in redis, e.g. 24h")
}

func (c *CLI) runBuild(cmd *cobra.Command, namespace string, opts buildOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	out := cmd.OutOrStdout()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	b, err := c.newBuilder(cfg, opts.stores)
	if err != nil {
		return err
	}

	req := build.Request{
		Namespace:  namespace,
		ModuleName: opts.module,
		Cwd:        opts.cwd,
		ConfigFile: opts.configFile,
		Cache:      !opts.noCache,
	}

	if opts.watch {
		logger.Info("watching services files", "config", req.ConfigPath())
		return b.Watch(
			ctx, req, func(resp *build.Response, err error) {
				if err != nil {
					printError(out, "%v", err)
					return
				}
				reportBuild(out, resp)
			},
		)
	}

	prog := newProgress(logger)
	resp, err := b.Build(ctx, req)
	if err != nil {
		return err
	}
	reportBuild(out, resp)
	prog.done(fmt.Sprintf("Built %s", req.ContainerClass()))
	return nil
}

func reportBuild(w io.Writer, resp *build.Response) {
	if resp.Artifact == nil {
		printInfo(w, "nothing to build for the project namespace")
		return
	}
	printSuccess(w, "%s", StyleTitle.Render(resp.Artifact.FQCN()))
	printBuildStatus(w, len(resp.Artifact.Services), resp.Skipped)
	printFile(w, resp.Path)
}

func parseDuration(v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", v, err)
	}
	return d, nil
}
