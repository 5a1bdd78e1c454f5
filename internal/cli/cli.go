// Package cli implements the spindle command-line interface: building module
// containers from services files, inspecting the compiled graphs, resolving
// identifiers through the federated resolver and serving its metrics.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/danpasecinic/spindle/manifest"
)

var (
	version = "dev"
	commit  string
	date    string
)

func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// CLI carries the state shared by every command. Applications embedding the
// CLI pass the class manifest their services are built from.
type CLI struct {
	classes    *manifest.Registry
	stderr     io.Writer
	verbose    bool
	configPath string
}

type Option func(*CLI)

func WithClasses(classes *manifest.Registry) Option {
	return func(c *CLI) {
		c.classes = classes
	}
}

func WithStderr(w io.Writer) Option {
	return func(c *CLI) {
		c.stderr = w
	}
}

func New(opts ...Option) *CLI {
	c := &CLI{
		classes: manifest.NewRegistry(),
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "spindle",
		Short:        "Spindle builds and inspects federated service containers",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := charmlog.InfoLevel
			if c.verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(c.stderr, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("spindle %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "spindle configuration file (.yaml or .toml)")

	root.AddCommand(c.newBuildCmd())
	root.AddCommand(c.newDebugCmd())
	root.AddCommand(c.newResolveCmd())
	root.AddCommand(c.newServeCmd())
	return root
}

func (c *CLI) Execute(ctx context.Context) error {
	return c.RootCommand().ExecuteContext(ctx)
}
