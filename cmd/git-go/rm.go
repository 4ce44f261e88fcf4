package main

import (
	"fmt"
	"io"

	"github.com/Nivl/mingit/internal/errutil"
	"github.com/spf13/cobra"
)

func newRmCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm PATH...",
		Short: "Remove files from the working tree and from the index",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return rmCmd(cmd.OutOrStdout(), cfg, args)
	}
	return cmd
}

func rmCmd(out io.Writer, cfg *globalFlags, paths []string) (err error) {
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	if err = r.Rm(paths); err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(out, "rm '%s'\n", p)
	}
	return nil
}
