package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCommitCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "commit -m <message>",
		Short: "Snapshot the working directory and advance HEAD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(message) == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			h, err := r.Commit(message)
			if err != nil {
				return err
			}

			branch := "HEAD"
			head, err := r.Head()
			if err == nil && strings.HasPrefix(head, "refs/heads/") {
				branch = strings.TrimPrefix(head, "refs/heads/")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, h.Short(8), firstLine(message))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return cmd
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
