package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odvcencio/gitlite/pkg/object"
)

func newCommitTreeCmd() *cobra.Command {
	var message string
	var parent string

	cmd := &cobra.Command{
		Use:   "commit-tree <tree> [-p <parent>] -m <message>",
		Short: "Create a commit object for a stored tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(message) == "" {
				return fmt.Errorf("commit message is required (-m)")
			}
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}

			tree, err := r.ResolveRef(args[0])
			if err != nil {
				return err
			}
			var parentHash *object.Hash
			if parent != "" {
				p, err := r.ResolveRef(parent)
				if err != nil {
					return err
				}
				parentHash = &p
			}

			h, err := r.CommitTree(tree, parentHash, message)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent commit")
	return cmd
}
