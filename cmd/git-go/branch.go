package main

import (
	"fmt"
	"io"

	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/internal/errutil"
	"github.com/spf13/cobra"
)

func newBranchCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch [NAME]",
		Short: "List branches, or create a new one at HEAD",
		Args:  cobra.MaximumNArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		return branchCmd(cmd.OutOrStdout(), cfg, name)
	}
	return cmd
}

func branchCmd(out io.Writer, cfg *globalFlags, name string) (err error) {
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	if name == "" {
		current, err := r.CurrentBranch()
		if err != nil {
			return err
		}
		branches, err := r.Branches()
		if err != nil {
			return err
		}
		for _, b := range branches {
			marker := " "
			if b.Name == current {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s\n", marker, b.Name)
		}
		return nil
	}

	target, err := r.ResolveRevision(ginternals.Head)
	if err != nil {
		return err
	}
	return r.CreateBranch(name, target)
}
