package main

import (
	"fmt"
	"io"

	"github.com/Nivl/mingit/internal/errutil"
	"github.com/spf13/cobra"
)

func newCheckoutCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout BRANCH-OR-REV",
		Short: "Switch branches or restore working tree files",
		Args:  cobra.ExactArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return checkoutCmd(cmd.OutOrStdout(), cfg, args[0])
	}
	return cmd
}

func checkoutCmd(out io.Writer, cfg *globalFlags, target string) (err error) {
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	if err = r.Checkout(target); err != nil {
		return err
	}

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
		fmt.Fprintf(out, "HEAD is now at %s\n", head.Target().String()[:7])
	default:
		fmt.Fprintf(out, "Switched to branch '%s'\n", branch)
	}
	return nil
}
