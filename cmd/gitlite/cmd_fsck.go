package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFsckCmd() *cobra.Command {
	var showDangling bool

	cmd := &cobra.Command{
		Use:   "fsck",
		Short: "Verify that every object reachable from refs is present and intact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			report, err := r.Fsck()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, h := range report.Missing {
				fmt.Fprintf(out, "missing %s\n", h)
			}
			for _, h := range report.Corrupt {
				fmt.Fprintf(out, "corrupt %s\n", h)
			}
			if showDangling {
				for _, h := range report.Dangling {
					fmt.Fprintf(out, "dangling %s\n", h)
				}
			}
			fmt.Fprintf(out, "%d reachable, %d missing, %d corrupt, %d dangling\n",
				len(report.Found), len(report.Missing), len(report.Corrupt), len(report.Dangling))

			if !report.OK() {
				return fmt.Errorf("fsck: object store is inconsistent")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showDangling, "dangling", false, "list unreachable objects")
	return cmd
}
