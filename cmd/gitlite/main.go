package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/odvcencio/gitlite/pkg/repo"
)

const version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gitlite",
		Short:         "A minimal content-addressable object store compatible with git",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("verbose", false, "log object store activity to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newHashObjectCmd())
	root.AddCommand(newCatFileCmd())
	root.AddCommand(newWriteTreeCmd())
	root.AddCommand(newLsTreeCmd())
	root.AddCommand(newCommitTreeCmd())
	root.AddCommand(newCommitCmd())
	root.AddCommand(newLogCmd())
	root.AddCommand(newShowSnapshotCmd())
	root.AddCommand(newCheckoutCmd())
	root.AddCommand(newFsckCmd())
	root.AddCommand(newConfigCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gitlite %s\n", version)
		},
	}
}

// loggerFor returns a development logger writing to the command's stderr when
// --verbose is set, and a no-op logger otherwise.
func loggerFor(cmd *cobra.Command) *zap.Logger {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil || !verbose {
		return zap.NewNop()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(cmd.ErrOrStderr()),
		zapcore.DebugLevel,
	)
	return zap.New(core, zap.Development())
}

// openRepo opens the repository containing the working directory.
func openRepo(cmd *cobra.Command) (*repo.Repo, error) {
	return repo.Open(".", repo.WithLogger(loggerFor(cmd)))
}
