// Package mingit contains methods and objects to interact with a
// git repository: reading and writing objects, the staging index,
// references, and the working tree
package mingit

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/Nivl/mingit/backend"
	"github.com/Nivl/mingit/backend/fsbackend"
	"github.com/Nivl/mingit/env"
	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/ginternals/config"
	"github.com/Nivl/mingit/ginternals/object"
	"github.com/Nivl/mingit/internal/gitpath"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// List of errors returned by the Repository struct
var (
	// ErrRepositoryNotExist is returned when the targeted directory
	// doesn't contain a repository
	ErrRepositoryNotExist = errors.New("repository does not exist")

	// ErrPathOutsideRepo is returned when a provided path escapes
	// the root of the working tree
	ErrPathOutsideRepo = errors.New("path is outside the repository")
)

// Repository represents a git repository.
// A Git repository is the .git/ folder inside a project.
// This repository tracks all changes made to files in your project,
// building a history over time.
// https://blog.axosoft.com/learning-git-repository/
type Repository struct {
	Config *config.Config

	dotGit  backend.Backend
	cfgFile *config.FileAggregate
	wt      afero.Fs
	env     *env.Env
}

// InitOptions contains all the optional data used to initialize a
// repository
type InitOptions struct {
	// GitBackend represents the underlying backend to use to init the
	// repository and interact with the odb.
	// By default the filesystem will be used
	GitBackend backend.Backend
	// WorkingTreeBackend represents the underlying backend to use to
	// interact with the working tree.
	// By default the filesystem will be used
	WorkingTreeBackend afero.Fs
	// InitialBranchName represents the name of the first branch of
	// the repository.
	// Defaults to master
	InitialBranchName string
	// Env represents the environment to read the configuration from.
	// Defaults to the env of the process
	Env *env.Env
}

// OpenOptions contains all the optional data used to open a
// repository
type OpenOptions struct {
	// GitBackend represents the underlying backend to use to interact
	// with the odb.
	// By default the filesystem will be used
	GitBackend backend.Backend
	// WorkingTreeBackend represents the underlying backend to use to
	// interact with the working tree.
	// By default the filesystem will be used
	WorkingTreeBackend afero.Fs
	// Env represents the environment to read the configuration from.
	// Defaults to the env of the process
	Env *env.Env
}

// InitRepository initializes a new git repository by creating the
// .git directory in the given path, which is where almost everything
// that Git stores and manipulates is located
// https://git-scm.com/book/en/v2/Git-Internals-Plumbing-and-Porcelain#ch10-git-internals
func InitRepository(repoPath string) (*Repository, error) {
	e := env.NewFromOs()
	cfg, err := config.LoadConfig(e, config.LoadConfigOptions{
		WorkingDirectory: repoPath,
		SkipGitDirLookUp: true,
	})
	if err != nil {
		return nil, err
	}
	return InitRepositoryWithParams(cfg, InitOptions{Env: e})
}

// InitRepositoryWithParams initializes a new git repository using
// the provided params and options
func InitRepositoryWithParams(cfg *config.Config, opts InitOptions) (*Repository, error) {
	r := &Repository{
		Config: cfg,
		dotGit: opts.GitBackend,
		wt:     opts.WorkingTreeBackend,
		env:    opts.Env,
	}
	if r.dotGit == nil {
		r.dotGit = fsbackend.New(cfg)
	}
	if r.wt == nil {
		r.wt = afero.NewOsFs()
	}
	if r.env == nil {
		r.env = env.NewFromOs()
	}

	branchName := opts.InitialBranchName
	if branchName == "" {
		branchName = ginternals.Master
	}
	if !ginternals.IsRefNameValid(branchName) || !ginternals.IsRefNameValid(gitpath.LocalBranch(branchName)) {
		return nil, ginternals.ErrRefNameInvalid
	}

	if err := r.dotGit.Init(branchName); err != nil {
		return nil, err
	}

	if err := r.loadConfigFile(); err != nil {
		return nil, err
	}
	return r, nil
}

// OpenRepository opens the repository containing the given path
func OpenRepository(repoPath string) (*Repository, error) {
	e := env.NewFromOs()
	cfg, err := config.LoadConfig(e, config.LoadConfigOptions{
		WorkingDirectory: repoPath,
	})
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", err.Error(), ErrRepositoryNotExist)
	}
	return OpenRepositoryWithParams(cfg, OpenOptions{Env: e})
}

// OpenRepositoryWithParams opens a repository using the provided
// params and options.
// ErrRepositoryNotExist is returned if the repository doesn't exist
func OpenRepositoryWithParams(cfg *config.Config, opts OpenOptions) (*Repository, error) {
	r := &Repository{
		Config: cfg,
		dotGit: opts.GitBackend,
		wt:     opts.WorkingTreeBackend,
		env:    opts.Env,
	}
	if r.dotGit == nil {
		r.dotGit = fsbackend.New(cfg)
	}
	if r.wt == nil {
		r.wt = afero.NewOsFs()
	}
	if r.env == nil {
		r.env = env.NewFromOs()
	}

	// a repository must have a HEAD
	if _, err := cfg.FS.Stat(filepath.Join(cfg.GitDirPath, gitpath.HEADPath)); err != nil {
		return nil, ErrRepositoryNotExist
	}

	if err := r.loadConfigFile(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository) loadConfigFile() error {
	agg, err := config.LoadFileAggregate(r.Config)
	if err != nil {
		return xerrors.Errorf("could not load the config file: %w", err)
	}
	r.cfgFile = agg
	return nil
}

// Close frees the resources used by the repository
func (r *Repository) Close() error {
	return r.dotGit.Close()
}

// Head returns the resolved HEAD reference.
// On an unborn branch the returned reference has a zero Target
func (r *Repository) Head() (*ginternals.Reference, error) {
	return r.dotGit.Reference(ginternals.Head)
}

// CurrentBranch returns the short name of the branch HEAD is
// attached to, or an empty string if HEAD is detached
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", err
	}
	if head.Type() != ginternals.SymbolicReference {
		return "", nil
	}
	return gitpath.LocalBranchShortName(head.SymbolicTarget()), nil
}

// Reference returns the reference matching the given name
func (r *Repository) Reference(name string) (*ginternals.Reference, error) {
	return r.dotGit.Reference(name)
}

// Object returns the object matching the given oid
func (r *Repository) Object(oid ginternals.Oid) (*object.Object, error) {
	return r.dotGit.Object(oid)
}

// WriteObject adds an object to the odb
func (r *Repository) WriteObject(o *object.Object) (ginternals.Oid, error) {
	return r.dotGit.WriteObject(o)
}

// Commit returns the commit matching the given oid
func (r *Repository) Commit(oid ginternals.Oid) (*object.Commit, error) {
	o, err := r.dotGit.Object(oid)
	if err != nil {
		return nil, err
	}
	return o.AsCommit()
}

// Tree returns the tree matching the given oid
func (r *Repository) Tree(oid ginternals.Oid) (*object.Tree, error) {
	o, err := r.dotGit.Object(oid)
	if err != nil {
		return nil, err
	}
	return o.AsTree()
}

// Index returns the staging index of the repository
func (r *Repository) Index() (*ginternals.Index, error) {
	return r.dotGit.Index()
}

// workTreePath converts a user-provided path (relative to the
// working directory or absolute) into a path relative to the root
// of the working tree, using "/" separators.
// ErrPathOutsideRepo is returned if the path escapes the repo
func (r *Repository) workTreePath(p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.Config.WorkTreePath, p)
	}
	p = filepath.Clean(p)

	rel, err := filepath.Rel(r.Config.WorkTreePath, p)
	if err != nil {
		return "", xerrors.Errorf("%s: %w", p, ErrPathOutsideRepo)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", xerrors.Errorf("%s: %w", p, ErrPathOutsideRepo)
	}
	return rel, nil
}

// workTreeAbs converts a path relative to the root of the working
// tree into an absolute path usable with the working tree fs
func (r *Repository) workTreeAbs(p string) string {
	return filepath.Join(r.Config.WorkTreePath, filepath.FromSlash(p))
}
