package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/gitlite/pkg/repo"
)

func newHashObjectCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "hash-object [-w] <file>",
		Short: "Compute the blob hash of a file and optionally store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !write {
				h, err := repo.HashFile(nil, args[0], false)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), h)
				return nil
			}

			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			h, err := r.HashFile(args[0], true)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the blob into the object store")
	return cmd
}
