package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/gitlite/pkg/object"
)

func newCatFileCmd() *cobra.Command {
	var pretty, showType, showSize bool

	cmd := &cobra.Command{
		Use:   "cat-file (-p | -t | -s) <object>",
		Short: "Print the content, type or size of a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			h, err := r.ResolveRef(args[0])
			if err != nil {
				return err
			}
			objType, body, err := r.Store.Read(h)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case showType:
				fmt.Fprintln(out, objType)
			case showSize:
				fmt.Fprintln(out, len(body))
			case pretty:
				if objType != object.TypeTree {
					_, err := out.Write(body)
					return err
				}
				tr, err := object.UnmarshalTree(body)
				if err != nil {
					return fmt.Errorf("cat-file %s: %w", h, err)
				}
				return object.FormatTree(out, tr, false)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "pretty-print the object content")
	cmd.Flags().BoolVarP(&showType, "type", "t", false, "print the object type")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "print the object body size")
	cmd.MarkFlagsMutuallyExclusive("pretty", "type", "size")
	cmd.MarkFlagsOneRequired("pretty", "type", "size")
	return cmd
}
