package main

import (
	"io"
	"os"
	"path/filepath"

	mingit "github.com/Nivl/mingit"
	"github.com/Nivl/mingit/ginternals/config"
	"github.com/Nivl/mingit/internal/gitpath"
	"github.com/spf13/cobra"
)

// initCmdFlags represents the flags accepted by the init command
//
// Reference: https://git-scm.com/docs/git-init#_options
type initCmdFlags struct {
	initialBranch string
	quiet         bool
}

func newInitCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create an empty Git repository",
		Args:  cobra.MaximumNArgs(1),
	}

	flags := initCmdFlags{}
	cmd.Flags().StringVarP(&flags.initialBranch, "initial-branch", "b", "", "Use the specified name for the initial branch in the newly created repository.")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Only print error and warning messages; all other output will be suppressed.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		directory := ""
		if len(args) > 0 {
			directory = args[0]
		}
		return initCmd(cmd.OutOrStdout(), cfg, flags, directory)
	}

	return cmd
}

func initCmd(out io.Writer, cfg *globalFlags, flags initCmdFlags, optionalDirectory string) error {
	workingDirectory := cfg.C.String()
	if optionalDirectory != "" {
		if !filepath.IsAbs(optionalDirectory) {
			optionalDirectory = filepath.Join(workingDirectory, optionalDirectory)
		}
		workingDirectory = optionalDirectory
		if err := os.MkdirAll(workingDirectory, 0o755); err != nil {
			return err
		}
	}

	p, err := config.LoadConfig(cfg.env, config.LoadConfigOptions{
		WorkingDirectory: workingDirectory,
		SkipGitDirLookUp: true,
	})
	if err != nil {
		return err
	}

	// Let's check if the repo already exists by checking if a HEAD
	// is in there
	newRepo := true
	if _, err = os.Stat(filepath.Join(p.GitDirPath, gitpath.HEADPath)); err == nil {
		newRepo = false
	}

	r, err := mingit.InitRepositoryWithParams(p, mingit.InitOptions{
		InitialBranchName: flags.initialBranch,
		Env:               cfg.env,
	})
	if err != nil {
		return err
	}

	switch newRepo {
	case true:
		fprintln(flags.quiet, out, "Initialized empty Git repository in", p.GitDirPath)
	case false:
		fprintln(flags.quiet, out, "Reinitialized existing Git repository in", p.GitDirPath)
	}

	return r.Close()
}
