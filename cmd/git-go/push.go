package main

import (
	"fmt"
	"io"

	mingit "github.com/Nivl/mingit"
	"github.com/Nivl/mingit/internal/errutil"
	"github.com/spf13/cobra"
)

func newPushCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push [REMOTE] [BRANCH]",
		Short: "Update a remote branch using the local one",
		Args:  cobra.MaximumNArgs(2),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		opts := mingit.PushOptions{}
		if len(args) > 0 {
			opts.Remote = args[0]
		}
		if len(args) > 1 {
			opts.Branch = args[1]
		}
		return pushCmd(cmd.OutOrStdout(), cfg, opts)
	}
	return cmd
}

func pushCmd(out io.Writer, cfg *globalFlags, opts mingit.PushOptions) (err error) {
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	res, err := r.Push(opts)
	if err != nil {
		return err
	}

	switch {
	case res.UpToDate:
		fmt.Fprintln(out, "Everything up-to-date")
	case res.OldID.IsZero():
		fmt.Fprintf(out, " * [new branch]      %s -> %s\n", res.Branch, res.Branch)
	default:
		fmt.Fprintf(out, "   %s..%s  %s -> %s\n", res.OldID.String()[:7], res.NewID.String()[:7], res.Branch, res.Branch)
	}
	return nil
}
