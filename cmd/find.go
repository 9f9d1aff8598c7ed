package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-codetree/pkg/codebase"
	"github.com/mattsolo1/grove-codetree/pkg/render"
	"github.com/mattsolo1/grove-codetree/pkg/service"
)

func NewFindCmd(svc **service.Service, global *GlobalOptions) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "find <target> <path>",
		Short: "Show a single file or directory from a repository tree",
		Long: `Fetch a repository tree and print the node at path. Directories are
printed with their subtree; json and yaml output include sha, size and url.

Examples:
  codetree find octo/app src/index.ts --format json
  codetree find . -p git pkg`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			format, err := global.format(s)
			if err != nil {
				return err
			}
			order, err := codebase.ParseSortOrder(s.Config.Sort)
			if err != nil {
				return err
			}

			payload, err := s.Fetch(cmd.Context(), global.provider(s), args[0], service.FetchOptions{Refresh: refresh})
			if err != nil {
				return err
			}
			forest, err := s.Materialize(payload, service.TreeOptions{Strict: s.Config.Strict, Sort: order})
			if err != nil {
				return err
			}

			node := codebase.Find(forest, args[1])
			if node == nil {
				return fmt.Errorf("path not found: %s", args[1])
			}

			out := cmd.OutOrStdout()
			switch format {
			case render.FormatJSON:
				return render.JSON(out, node, true)
			case render.FormatYAML:
				return render.YAML(out, node)
			default:
				return render.Text(out, []*codebase.Node{node}, render.TextOptions{ShowSize: true, ShowSHA: true})
			}
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the cache and fetch a fresh listing")

	return cmd
}
