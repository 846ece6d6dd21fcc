package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <commit-ish> <dir>",
		Short: "Write a commit's snapshot into an empty directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			snap, err := r.Checkout(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked out %s into %s (%d files)\n", snap.Tree.Short(8), args[1], len(snap.Files()))
			return nil
		},
	}
}
