package main

import (
	"fmt"
	"io"

	"github.com/Nivl/mingit/internal/errutil"
	"github.com/spf13/cobra"
)

func newRemoteCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Manage the set of tracked repositories",
		Args:  cobra.NoArgs,
	}

	verbose := cmd.Flags().BoolP("verbose", "v", false, "Show remote url after name.")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return remoteListCmd(cmd.OutOrStdout(), cfg, *verbose)
	}

	cmd.AddCommand(newRemoteListCmd(cfg))
	cmd.AddCommand(newRemoteAddCmd(cfg))
	cmd.AddCommand(newRemoteGetURLCmd(cfg))
	cmd.AddCommand(newRemoteRemoveCmd(cfg))
	return cmd
}

func newRemoteListCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the configured remotes",
		Args:  cobra.NoArgs,
	}
	verbose := cmd.Flags().BoolP("verbose", "v", false, "Show remote url after name.")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return remoteListCmd(cmd.OutOrStdout(), cfg, *verbose)
	}
	return cmd
}

func remoteListCmd(out io.Writer, cfg *globalFlags, verbose bool) (err error) {
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	for _, remote := range r.Remotes() {
		switch verbose {
		case true:
			// the same url is used to fetch and to push
			fmt.Fprintf(out, "%s\t%s (fetch)\n", remote.Name, remote.URL)
			fmt.Fprintf(out, "%s\t%s (push)\n", remote.Name, remote.URL)
		case false:
			fmt.Fprintln(out, remote.Name)
		}
	}
	return nil
}

func newRemoteAddCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add NAME URL",
		Short: "Add a remote",
		Args:  cobra.ExactArgs(2),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return remoteAddCmd(cfg, args[0], args[1])
	}
	return cmd
}

func remoteAddCmd(cfg *globalFlags, name, url string) (err error) {
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	return r.AddRemote(name, url)
}

func newRemoteGetURLCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-url NAME",
		Short: "Print the url of a remote",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return remoteGetURLCmd(cmd.OutOrStdout(), cfg, args[0])
	}
	return cmd
}

func remoteGetURLCmd(out io.Writer, cfg *globalFlags, name string) (err error) {
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	remote, err := r.Remote(name)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, remote.URL)
	return nil
}

func newRemoteRemoveCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a remote",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return remoteRemoveCmd(cfg, args[0])
	}
	return cmd
}

func remoteRemoveCmd(cfg *globalFlags, name string) (err error) {
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	return r.RemoveRemote(name)
}
