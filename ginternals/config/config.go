// Package config contains structs to interact with git configuration
// as well as to configure the library
package config

import (
	"path/filepath"

	"github.com/Nivl/mingit/env"
	"github.com/Nivl/mingit/internal/gitpath"
	"github.com/Nivl/mingit/internal/pathutil"
	"github.com/spf13/afero"
)

// Config represents the configuration of a repository, whether it
// comes from the config file or from the options that can be set
// using the env
// https://git-scm.com/book/en/v2/Git-Internals-Environment-Variables
type Config struct {
	// FS represents the file system implementation to use to look for
	// files and directories.
	// Defaults to the regular filesystem
	FS afero.Fs

	// GitDirPath represents the path to the .git directory
	// Maps to $GIT_DIR if set
	// Defaults to finding a ".git" folder in the working directory,
	// going up in the tree until reaching /
	GitDirPath string
	// WorkTreePath represents the path to the working tree
	// Maps to $GIT_WORK_TREE
	// Defaults to the parent of GitDirPath
	WorkTreePath string
	// ObjectDirPath represents the path to the .git/objects directory
	// Maps to $GIT_OBJECT_DIRECTORY
	// Defaults to $(GitDirPath)/objects
	ObjectDirPath string
	// LocalConfig represents the config file to load
	// Maps to $GIT_CONFIG
	// Defaults to $(GitDirPath)/config
	LocalConfig string
}

// LoadConfigOptions represents all the params used to set the default
// values of a Config object
type LoadConfigOptions struct {
	// FS represents the file system implementation to use to look for
	// files and directories.
	// Defaults to the regular filesystem
	FS afero.Fs
	// WorkingDirectory represents the current working directory.
	// Required
	WorkingDirectory string
	// GitDirPath corresponds to the .git directory
	// Set this value to change the default behavior and overwrite
	// $GIT_DIR
	GitDirPath string
	// WorkTreePath corresponds to the directory that contains the
	// .git. Set this value to change the default behavior and
	// overwrite $GIT_WORK_TREE
	WorkTreePath string
	// SkipGitDirLookUp disables the automatic lookup of the .git
	// directory. Set it to initialize a new repository
	SkipGitDirLookUp bool
}

// LoadConfig returns a new Config that fetches the data from the env.
// This is what you want to use to give your users some control over
// the repo discovery
func LoadConfig(e *env.Env, p LoadConfigOptions) (*Config, error) {
	cfg := &Config{
		FS:            p.FS,
		GitDirPath:    e.Get("GIT_DIR"),
		WorkTreePath:  e.Get("GIT_WORK_TREE"),
		ObjectDirPath: e.Get("GIT_OBJECT_DIRECTORY"),
		LocalConfig:   e.Get("GIT_CONFIG"),
	}
	if cfg.FS == nil {
		cfg.FS = afero.NewOsFs()
	}

	if p.GitDirPath != "" {
		cfg.GitDirPath = p.GitDirPath
	}
	if p.WorkTreePath != "" {
		cfg.WorkTreePath = p.WorkTreePath
	}

	// If no explicit git dir was provided we need to find it,
	// either next to the working tree or by going up the file tree
	if cfg.GitDirPath == "" {
		root := cfg.WorkTreePath
		if root == "" {
			root = p.WorkingDirectory
		}
		switch p.SkipGitDirLookUp {
		case true:
			cfg.GitDirPath = filepath.Join(root, gitpath.DotGitPath)
		case false:
			wt, err := pathutil.WorkingTreeFromPath(root)
			if err != nil {
				return nil, err
			}
			cfg.GitDirPath = filepath.Join(wt, gitpath.DotGitPath)
			if cfg.WorkTreePath == "" {
				cfg.WorkTreePath = wt
			}
		}
	}

	if !filepath.IsAbs(cfg.GitDirPath) {
		cfg.GitDirPath = filepath.Join(p.WorkingDirectory, cfg.GitDirPath)
	}

	if cfg.WorkTreePath == "" {
		cfg.WorkTreePath = filepath.Dir(cfg.GitDirPath)
	}
	if !filepath.IsAbs(cfg.WorkTreePath) {
		cfg.WorkTreePath = filepath.Join(p.WorkingDirectory, cfg.WorkTreePath)
	}

	if cfg.ObjectDirPath == "" {
		cfg.ObjectDirPath = filepath.Join(cfg.GitDirPath, gitpath.ObjectsPath)
	}
	if cfg.LocalConfig == "" {
		cfg.LocalConfig = filepath.Join(cfg.GitDirPath, gitpath.ConfigPath)
	}

	return cfg, nil
}
