package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/odvcencio/gitlite/pkg/object"
	"github.com/odvcencio/gitlite/pkg/repo"
)

func newLogCmd() *cobra.Command {
	var oneline bool
	var limit int

	cmd := &cobra.Command{
		Use:   "log [commit-ish]",
		Short: "Show commit history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}

			start := "HEAD"
			if len(args) > 0 {
				start = args[0]
			}
			headHash, err := r.ResolveRef(start)
			if errors.Is(err, repo.ErrNoCommits) {
				fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
				return nil
			}
			if err != nil {
				return fmt.Errorf("cannot resolve %s: %w", start, err)
			}

			entries, err := r.Log(headHash, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				c := e.Commit
				if oneline {
					fmt.Fprintf(out, "%s %s\n", e.Hash.Short(8), firstLine(c.Message))
					continue
				}
				fmt.Fprintf(out, "commit %s\n", e.Hash)
				fmt.Fprintf(out, "Author: %s\n", c.Author.Identity)
				fmt.Fprintf(out, "Date:   %s\n", formatWhen(c.Author))
				fmt.Fprintln(out)
				for _, line := range strings.Split(c.Message, "\n") {
					fmt.Fprintf(out, "    %s\n", line)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of commits to show")
	return cmd
}

// formatWhen renders a signature time in its recorded zone.
func formatWhen(sig object.Signature) string {
	t := time.Unix(sig.When, 0).UTC()
	if zt, err := time.Parse("-0700", sig.Zone); err == nil {
		_, offset := zt.Zone()
		t = t.In(time.FixedZone(sig.Zone, offset))
	}
	return t.Format("2006-01-02 15:04:05 -0700")
}
