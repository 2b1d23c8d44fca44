package cli

import (
	"fmt"

	"github.com/brettbedarf/filetree/internal/util"
	"github.com/spf13/cobra"
)

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print every directory and file, one path per line",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.tree.ToString()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), s)
			return err
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify every structural invariant of the tree",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.tree.Check(); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "ok: %d directories, %d files\n", a.tree.Count(), a.tree.FileCount())
			return err
		},
	}
}

func newStatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stat PATH",
		Short: "Report whether PATH is a directory or a file",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.tree.Stat(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if st.IsFile {
				_, err = fmt.Fprintf(out, "file %d\n", st.Size)
			} else {
				_, err = fmt.Fprintln(out, "dir")
			}
			return err
		},
	}
}

func newCatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cat PATH",
		Short: "Write the contents of the file at PATH",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := util.GetLogger("cli.cat")
			data, err := a.tree.GetFileContents(args[0])
			if err != nil {
				return err
			}
			logger.Debug().Str("path", args[0]).Int("size", len(data)).Msg("Writing file contents")
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
