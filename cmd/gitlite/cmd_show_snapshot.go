package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/gitlite/pkg/repo"
)

func newShowSnapshotCmd() *cobra.Command {
	var dirs bool

	cmd := &cobra.Command{
		Use:   "show-snapshot [commit-ish]",
		Short: "Reconstruct a commit's directory snapshot and list its files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			target := "HEAD"
			if len(args) > 0 {
				target = args[0]
			}
			h, err := r.ResolveRef(target)
			if err != nil {
				return err
			}
			snap, err := r.Reconstruct(h)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			return snap.Walk(func(e *repo.SnapshotEntry) error {
				if e.IsDir() {
					if dirs {
						fmt.Fprintf(out, "%06o %s %8s\t%s/\n", uint32(e.Mode), e.Hash, "-", e.Path)
					}
					return nil
				}
				fmt.Fprintf(out, "%06o %s %8d\t%s\n", uint32(e.Mode), e.Hash, len(e.Data), e.Path)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dirs, "dirs", false, "also list directories")
	return cmd
}
