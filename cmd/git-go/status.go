package main

import (
	"fmt"
	"io"

	"github.com/Nivl/mingit/internal/errutil"
	"github.com/spf13/cobra"
)

func newStatusCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the working tree status",
		Args:  cobra.NoArgs,
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return statusCmd(cmd.OutOrStdout(), cfg)
	}
	return cmd
}

func statusCmd(out io.Writer, cfg *globalFlags) (err error) {
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	branch, err := r.CurrentBranch()
	if err != nil {
		return err
	}
	switch branch {
	case "":
		head, err := r.Head()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "HEAD detached at %s\n", head.Target().String()[:7])
	default:
		fmt.Fprintf(out, "On branch %s\n", branch)
	}

	st, err := r.Status()
	if err != nil {
		return err
	}

	if len(st.Staged) > 0 {
		fmt.Fprintln(out, "\nChanges to be committed:")
		for _, c := range st.Staged {
			fmt.Fprintf(out, "\t%s:   %s\n", c.Kind.String(), c.Path)
		}
	}

	if len(st.Unstaged) > 0 {
		fmt.Fprintln(out, "\nChanges not staged for commit:")
		for _, c := range st.Unstaged {
			fmt.Fprintf(out, "\t%s:   %s\n", c.Kind.String(), c.Path)
		}
	}

	if len(st.Untracked) > 0 {
		fmt.Fprintln(out, "\nUntracked files:")
		for _, p := range st.Untracked {
			fmt.Fprintf(out, "\t%s\n", p)
		}
	}

	if st.IsClean() {
		fmt.Fprintln(out, "nothing to commit, working tree clean")
	}
	return nil
}
