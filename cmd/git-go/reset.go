package main

import (
	"errors"
	"io"

	mingit "github.com/Nivl/mingit"
	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/internal/errutil"
	"github.com/spf13/cobra"
)

// resetCmdFlags represents the flags accepted by the reset command
type resetCmdFlags struct {
	soft  bool
	mixed bool
}

func newResetCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset [--soft | --mixed] [REV]",
		Short: "Reset current HEAD to the specified state",
		Args:  cobra.MaximumNArgs(1),
	}

	flags := resetCmdFlags{}
	cmd.Flags().BoolVar(&flags.soft, "soft", false, "Only move HEAD, leaving the index and the working tree untouched.")
	cmd.Flags().BoolVar(&flags.mixed, "mixed", false, "Move HEAD and reset the index, leaving the working tree untouched. This is the default.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		rev := ginternals.Head
		if len(args) > 0 {
			rev = args[0]
		}
		return resetCmd(cmd.OutOrStdout(), cfg, flags, rev)
	}
	return cmd
}

func resetCmd(out io.Writer, cfg *globalFlags, flags resetCmdFlags, rev string) (err error) {
	if flags.soft && flags.mixed {
		return errors.New("options --soft and --mixed cannot be used together")
	}

	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	mode := mingit.ResetMixed
	if flags.soft {
		mode = mingit.ResetSoft
	}
	return r.Reset(rev, mode)
}
