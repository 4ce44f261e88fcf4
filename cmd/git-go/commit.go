package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	mingit "github.com/Nivl/mingit"
	"github.com/Nivl/mingit/internal/errutil"
	"github.com/spf13/cobra"
)

// commitCmdFlags represents the flags accepted by the commit command
//
// Reference: https://git-scm.com/docs/git-commit#_options
type commitCmdFlags struct {
	message string
	amend   bool
}

func newCommitCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record changes to the repository",
		Args:  cobra.NoArgs,
	}

	flags := commitCmdFlags{}
	cmd.Flags().StringVarP(&flags.message, "message", "m", "", "Use the given <msg> as the commit message.")
	cmd.Flags().BoolVar(&flags.amend, "amend", false, "Replace the tip of the current branch by creating a new commit.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return commitCmd(cmd.OutOrStdout(), cfg, flags)
	}
	return cmd
}

func commitCmd(out io.Writer, cfg *globalFlags, flags commitCmdFlags) (err error) {
	if flags.message == "" && !flags.amend {
		return errors.New("a commit message is required (use -m)")
	}

	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	c, err := r.CreateCommit(mingit.CommitOptions{
		Message: flags.message,
		Amend:   flags.amend,
	})
	if err != nil {
		return err
	}

	branch, err := r.CurrentBranch()
	if err != nil {
		return err
	}
	location := branch
	if location == "" {
		location = "detached HEAD"
	}

	subject := c.Message()
	if i := strings.IndexByte(subject, '\n'); i >= 0 {
		subject = subject[:i]
	}
	fmt.Fprintf(out, "[%s %s] %s\n", location, c.ID().String()[:7], subject)
	return nil
}
