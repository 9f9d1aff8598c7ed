package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-codetree/pkg/render"
	"github.com/mattsolo1/grove-codetree/pkg/service"
	"github.com/mattsolo1/grove-codetree/pkg/source"
	"github.com/mattsolo1/grove-codetree/pkg/source/local"
	"github.com/mattsolo1/grove-codetree/pkg/watch"
)

func NewConvertCmd(svc **service.Service, global *GlobalOptions) *cobra.Command {
	var (
		flags    treeFlags
		watching bool
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a saved tree payload into a nested tree",
		Long: `Read a payload of the form {"tree": [...]} (as returned by the GitHub git
trees API) and render it as a nested tree. Reads stdin when the file is "-"
or omitted. A payload that cannot be decoded renders as an empty tree.

Examples:
  gh api repos/octo/app/git/trees/HEAD?recursive=1 | codetree convert
  codetree convert tree.json --format yaml
  codetree convert tree.json --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			if watching && path == "-" {
				return fmt.Errorf("--watch requires a file path")
			}

			format, err := global.format(s)
			if err != nil {
				return err
			}
			opts, err := flags.treeOptions(cmd, s)
			if err != nil {
				return err
			}

			provider := &local.FileProvider{Stdin: cmd.InOrStdin()}
			convert := func(w io.Writer) error {
				payload, err := provider.FetchTree(cmd.Context(), refForFile(path))
				if err != nil {
					if !errors.Is(err, local.ErrInvalidPayload) {
						return err
					}
					s.Logger.WithError(err).Warn("Rendering undecodable payload as an empty tree")
					payload = nil
				}
				return renderPayload(w, s, payload, opts, format, &flags)
			}

			if err := convert(cmd.OutOrStdout()); err != nil {
				return err
			}
			if !watching {
				return nil
			}

			w, err := watch.New(path, debounce, s.Logger)
			if err != nil {
				return err
			}
			s.Logger.WithField("file", path).Info("Watching for changes")
			return w.Run(cmd.Context(), func() error {
				if format == render.FormatText {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				return convert(cmd.OutOrStdout())
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&watching, "watch", "w", false, "Re-render whenever the file changes")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before re-rendering in --watch mode")

	return cmd
}

func refForFile(path string) source.Ref {
	return source.Ref{Path: path}
}
