package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-codetree/pkg/codebase"
	"github.com/mattsolo1/grove-codetree/pkg/render"
	"github.com/mattsolo1/grove-codetree/pkg/service"
)

// treeFlags are the materialization and rendering flags shared by tree and convert.
type treeFlags struct {
	depth    int
	dirsOnly bool
	sort     string
	size     bool
	sha      bool
	summary  bool
	strict   bool
}

func (f *treeFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.depth, "depth", "L", 0, "Limit the tree to this many levels (0 = unlimited)")
	cmd.Flags().BoolVarP(&f.dirsOnly, "dirs-only", "d", false, "List directories only")
	cmd.Flags().StringVar(&f.sort, "sort", "", "Child order: dirs-first, name or none (default from config)")
	cmd.Flags().BoolVarP(&f.size, "size", "s", false, "Show file sizes")
	cmd.Flags().BoolVar(&f.sha, "sha", false, "Show abbreviated object SHAs")
	cmd.Flags().BoolVar(&f.summary, "summary", false, "Print a directory/file count summary")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Fail on malformed entries instead of skipping them")
}

func (f *treeFlags) treeOptions(cmd *cobra.Command, svc *service.Service) (service.TreeOptions, error) {
	sortName := svc.Config.Sort
	if f.sort != "" {
		sortName = f.sort
	}
	order, err := codebase.ParseSortOrder(sortName)
	if err != nil {
		return service.TreeOptions{}, err
	}

	strict := svc.Config.Strict
	if cmd.Flags().Changed("strict") {
		strict = f.strict
	}

	return service.TreeOptions{
		Strict:   strict,
		MaxDepth: f.depth,
		DirsOnly: f.dirsOnly,
		Sort:     order,
	}, nil
}

// renderPayload materializes payload and writes it in the selected format.
func renderPayload(w io.Writer, svc *service.Service, payload *codebase.Payload, opts service.TreeOptions, format render.Format, f *treeFlags) error {
	forest, err := svc.Materialize(payload, opts)
	if err != nil {
		return err
	}

	if err := render.Forest(w, forest, format, render.TextOptions{ShowSize: f.size, ShowSHA: f.sha}); err != nil {
		return err
	}

	if f.summary && format == render.FormatText {
		return render.Summary(w, codebase.Stats(forest))
	}
	return nil
}

func NewTreeCmd(svc **service.Service, global *GlobalOptions) *cobra.Command {
	var (
		flags   treeFlags
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "tree <target>",
		Short: "Fetch and display a repository tree",
		Long: `Fetch a repository's recursive tree listing and display it as a nested tree.

The target depends on the provider:
  github, githttp   owner/repo[@ref]
  git               path/to/checkout[@ref]
  file              payload.json, payload.yaml or - for stdin

Examples:
  codetree tree golang/go@master -L 2
  codetree tree . -p git --dirs-only
  codetree tree octo/app --format json --refresh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			format, err := global.format(s)
			if err != nil {
				return err
			}
			opts, err := flags.treeOptions(cmd, s)
			if err != nil {
				return err
			}

			payload, err := s.Fetch(cmd.Context(), global.provider(s), args[0], service.FetchOptions{Refresh: refresh})
			if err != nil {
				return err
			}
			if payload.Truncated && format == render.FormatText {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: the provider truncated this listing; some entries are missing")
			}

			return renderPayload(cmd.OutOrStdout(), s, payload, opts, format, &flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the cache and fetch a fresh listing")

	return cmd
}
