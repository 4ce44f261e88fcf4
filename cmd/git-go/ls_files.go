package main

import (
	"fmt"
	"io"

	"github.com/Nivl/mingit/internal/errutil"
	"github.com/spf13/cobra"
)

// lsFilesCmdFlags represents the flags accepted by the ls-files
// command
type lsFilesCmdFlags struct {
	stage bool
}

func newLsFilesCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls-files",
		Short: "Show information about files in the index",
		Args:  cobra.NoArgs,
	}

	flags := lsFilesCmdFlags{}
	cmd.Flags().BoolVarP(&flags.stage, "stage", "s", false, "Show staged contents' mode bits, object name and stage number in the output.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return lsFilesCmd(cmd.OutOrStdout(), cfg, flags)
	}
	return cmd
}

func lsFilesCmd(out io.Writer, cfg *globalFlags, flags lsFilesCmdFlags) (err error) {
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	idx, err := r.Index()
	if err != nil {
		return err
	}

	for _, e := range idx.Entries() {
		switch flags.stage {
		case true:
			fmt.Fprintf(out, "%06o %s %d\t%s\n", e.Mode, e.ID.String(), e.Stage(), e.Path)
		case false:
			fmt.Fprintln(out, e.Path)
		}
	}
	return nil
}
