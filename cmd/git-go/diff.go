package main

import (
	"fmt"
	"io"

	"github.com/Nivl/mingit/internal/errutil"
	"github.com/spf13/cobra"
)

func newDiffCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show unstaged changes between the working tree and the index",
		Args:  cobra.NoArgs,
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return diffCmd(cmd.OutOrStdout(), cfg)
	}
	return cmd
}

func diffCmd(out io.Writer, cfg *globalFlags) (err error) {
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	diff, err := r.Diff()
	if err != nil {
		return err
	}
	fmt.Fprint(out, diff)
	return nil
}
