package cmd

import (
	"fmt"

	"github.com/mattsolo1/grove-core/cli"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-codetree/pkg/config"
	"github.com/mattsolo1/grove-codetree/pkg/render"
	"github.com/mattsolo1/grove-codetree/pkg/service"
)

// GlobalOptions holds the persistent flags shared by every subcommand.
type GlobalOptions struct {
	ConfigFile string
	Verbose    bool
	Provider   string
	Format     string
}

// provider returns the --provider flag, falling back to the configured default.
func (o *GlobalOptions) provider(svc *service.Service) string {
	if o.Provider != "" {
		return o.Provider
	}
	return svc.Config.Provider
}

// format returns the --format flag, falling back to the configured default.
func (o *GlobalOptions) format(svc *service.Service) (render.Format, error) {
	if o.Format != "" {
		return render.ParseFormat(o.Format)
	}
	return render.ParseFormat(svc.Config.Format)
}

// NewRootCmd builds the codetree command tree. The returned close func
// releases the service opened for the command; call it once Execute returns,
// whether or not the command failed.
func NewRootCmd() (*cobra.Command, func() error) {
	a := &app{}
	return newRootCmd(a), a.close
}

// app holds the state shared by the command tree for one execution.
type app struct {
	svc *service.Service
}

func (a *app) close() error {
	if a.svc == nil {
		return nil
	}
	err := a.svc.Close()
	a.svc = nil
	return err
}

func newRootCmd(a *app) *cobra.Command {
	opts := &GlobalOptions{}

	rootCmd := cli.NewStandardCommand(
		"codetree",
		"Materialize source-control tree listings into nested trees",
	)
	rootCmd.Long = `codetree fetches the flat, recursive tree listing of a repository and
renders it as a nested directory tree.

Listings come from GitHub (through the gh CLI or the REST API), from a local
git checkout, or from a saved JSON/YAML payload.`
	rootCmd.SilenceUsage = true

	flags := rootCmd.PersistentFlags()
	if flags.Lookup("config") == nil {
		flags.String("config", "", "config file (default is $HOME/.config/codetree/config.yaml)")
	}
	if flags.Lookup("verbose") == nil {
		flags.BoolP("verbose", "v", false, "Enable debug logging")
	}
	flags.StringVarP(&opts.Provider, "provider", "p", "", "Tree provider: github, githttp, git, file or a configured alias")
	flags.StringVarP(&opts.Format, "format", "f", "", "Output format: text, json or yaml")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// This runs once before any subcommand
		if cmd.Name() == "version" {
			return nil
		}
		opts.ConfigFile, _ = cmd.Flags().GetString("config")
		opts.Verbose, _ = cmd.Flags().GetBool("verbose")

		logger := service.DefaultLogger(opts.Verbose)

		cfg, err := config.Load(opts.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		a.svc, err = service.New(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize service: %w", err)
		}
		return nil
	}

	// Add subcommands
	rootCmd.AddCommand(NewTreeCmd(&a.svc, opts))
	rootCmd.AddCommand(NewConvertCmd(&a.svc, opts))
	rootCmd.AddCommand(NewFindCmd(&a.svc, opts))
	rootCmd.AddCommand(NewCacheCmd(&a.svc))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}
