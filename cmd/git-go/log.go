package main

import (
	"fmt"
	"io"
	"strings"

	mingit "github.com/Nivl/mingit"
	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/internal/errutil"
	"github.com/spf13/cobra"
)

// logCmdFlags represents the flags accepted by the log command
type logCmdFlags struct {
	oneline  bool
	maxCount int
}

func newLogCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show commit logs",
		Args:  cobra.NoArgs,
	}

	flags := logCmdFlags{}
	cmd.Flags().BoolVar(&flags.oneline, "oneline", false, "Shorthand for a compact one line per commit output.")
	cmd.Flags().IntVarP(&flags.maxCount, "max-count", "n", 0, "Limit the number of commits to output.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return logCmd(cmd.OutOrStdout(), cfg, flags)
	}
	return cmd
}

func logCmd(out io.Writer, cfg *globalFlags, flags logCmdFlags) (err error) {
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	from, err := r.ResolveRevision(ginternals.Head)
	if err != nil {
		return err
	}

	commits, err := r.Log(from, mingit.LogOptions{MaxCount: flags.maxCount})
	if err != nil {
		return err
	}

	for i, c := range commits {
		if flags.oneline {
			subject := c.Message()
			if j := strings.IndexByte(subject, '\n'); j >= 0 {
				subject = subject[:j]
			}
			fmt.Fprintf(out, "%s %s\n", c.ID().String()[:7], subject)
			continue
		}

		if i > 0 {
			fmt.Fprintln(out, "")
		}
		author := c.AuthorSignature()
		fmt.Fprintf(out, "commit %s\n", c.ID().String())
		fmt.Fprintf(out, "Author: %s <%s>\n", author.Name, author.Email)
		fmt.Fprintf(out, "Date:   %s\n", author.Time.Format("Mon Jan 2 15:04:05 2006 -0700"))
		fmt.Fprintln(out, "")
		for _, line := range strings.Split(strings.TrimSuffix(c.Message(), "\n"), "\n") {
			fmt.Fprintf(out, "    %s\n", line)
		}
	}
	return nil
}
