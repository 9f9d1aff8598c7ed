package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-codetree/pkg/render"
	"github.com/mattsolo1/grove-codetree/pkg/service"
)

// NewCacheCmd creates the 'cache' command for inspecting the tree cache.
func NewCacheCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear cached tree listings",
	}

	cmd.AddCommand(newCacheListCmd(svc))
	cmd.AddCommand(newCacheClearCmd(svc))
	cmd.AddCommand(newCacheRmCmd(svc))

	return cmd
}

func requireCache(s *service.Service) error {
	if s.Cache == nil {
		return fmt.Errorf("the tree cache is disabled (set cache.enabled: true)")
	}
	return nil
}

func newCacheListCmd(svc **service.Service) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List cached tree listings",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			if err := requireCache(s); err != nil {
				return err
			}

			entries, err := s.Cache.List()
			if err != nil {
				return fmt.Errorf("list cache: %w", err)
			}

			if jsonOutput {
				return render.JSON(cmd.OutOrStdout(), entries, true)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cached trees")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tENTRIES\tTRUNCATED\tFETCHED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%d\t%t\t%s\n", e.Key, e.EntryCount, e.Truncated, e.FetchedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func newCacheClearCmd(svc **service.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached tree listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			if err := requireCache(s); err != nil {
				return err
			}

			n, err := s.Cache.Clear()
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached trees\n", n)
			return nil
		},
	}
}

func newCacheRmCmd(svc **service.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <key>",
		Short: "Remove one cached tree listing by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			if err := requireCache(s); err != nil {
				return err
			}

			if err := s.Cache.Delete(args[0]); err != nil {
				return fmt.Errorf("remove %s: %w", args[0], err)
			}
			return nil
		},
	}
}
