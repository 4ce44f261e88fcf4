package main

import (
	"errors"
	"io"

	"github.com/Nivl/mingit/internal/errutil"
	"github.com/spf13/cobra"
)

// restoreCmdFlags represents the flags accepted by the restore
// command
type restoreCmdFlags struct {
	staged bool
}

func newRestoreCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore --staged PATH...",
		Short: "Restore index entries from HEAD",
		Args:  cobra.MinimumNArgs(1),
	}

	flags := restoreCmdFlags{}
	cmd.Flags().BoolVarP(&flags.staged, "staged", "S", false, "Restore the content of the index for the given paths.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return restoreCmd(cmd.OutOrStdout(), cfg, flags, args)
	}
	return cmd
}

func restoreCmd(out io.Writer, cfg *globalFlags, flags restoreCmdFlags, paths []string) (err error) {
	if !flags.staged {
		return errors.New("only --staged is supported")
	}

	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	return r.RestoreStaged(paths)
}
