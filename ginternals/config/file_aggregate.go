package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/ini.v1"
)

// Config keys of the core section
const (
	coreSection = "core"

	remoteSectionPrefix = `remote "`
	remoteURLKey        = "url"
)

var (
	// ErrRemoteExists is returned when creating a remote that is
	// already configured
	ErrRemoteExists = errors.New("remote already exists")

	// ErrRemoteNotFound is returned when acting on a remote that
	// isn't configured
	ErrRemoteNotFound = errors.New("remote not found")
)

// defaultLoadOption contains the params used to load the config files
//nolint:gochecknoglobals // Treat this as a const, don't ever change
// it from a method, even for testing
var defaultLoadOption = ini.LoadOptions{
	SkipUnrecognizableLines: true,
}

// defaultConfig generates a basic default git config using the
// most common options
func defaultConfig() (*ini.File, error) {
	cfg := ini.Empty(defaultLoadOption)

	core := cfg.Section(coreSection)
	coreCfg := []struct{ k, v string }{
		{"repositoryformatversion", "0"},
		{"filemode", "true"},
		{"bare", "false"},
		{"logallrefupdates", "true"},
	}
	for _, kv := range coreCfg {
		if _, err := core.NewKey(kv.k, kv.v); err != nil {
			return nil, fmt.Errorf("could not set core.%s: %w", kv.k, err)
		}
	}

	return cfg, nil
}

// Remote represents a configured remote
type Remote struct {
	Name string
	URL  string
}

// FileAggregate represents the config file of a repository
type FileAggregate struct {
	cfg   *Config
	local *ini.File
}

// LoadFileAggregate reads the repo's config file.
// A missing file yields the default configuration
func LoadFileAggregate(cfg *Config) (*FileAggregate, error) {
	data, err := afero.ReadFile(cfg.FS, cfg.LocalConfig)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("could not read %s: %w", cfg.LocalConfig, err)
		}
		local, err := defaultConfig()
		if err != nil {
			return nil, err
		}
		return &FileAggregate{cfg: cfg, local: local}, nil
	}

	local, err := ini.LoadSources(defaultLoadOption, data)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", cfg.LocalConfig, err)
	}
	return &FileAggregate{cfg: cfg, local: local}, nil
}

// Save persists the changes made to the config file.
// The file is replaced atomically: the content is first written to
// a temporary file that then takes the place of the current one
func (agg *FileAggregate) Save() error {
	buf := new(bytes.Buffer)
	if _, err := agg.local.WriteTo(buf); err != nil {
		return fmt.Errorf("could not serialize the config: %w", err)
	}

	// the temp file must live next to the config file so the rename
	// stays on the same filesystem
	tmp, err := afero.TempFile(agg.cfg.FS, filepath.Dir(agg.cfg.LocalConfig), "config-")
	if err != nil {
		return fmt.Errorf("could not create a temporary file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err = tmp.Write(buf.Bytes()); err != nil {
		tmp.Close() //nolint:errcheck // we already have an error to report
		return fmt.Errorf("could not write the config: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("could not close the config: %w", err)
	}
	if err = agg.cfg.FS.Rename(tmpName, agg.cfg.LocalConfig); err != nil {
		// some filesystems refuse to replace an existing file
		if rmErr := agg.cfg.FS.Remove(agg.cfg.LocalConfig); rmErr == nil {
			err = agg.cfg.FS.Rename(tmpName, agg.cfg.LocalConfig)
		}
		if err != nil {
			return fmt.Errorf("could not replace %s: %w", agg.cfg.LocalConfig, err)
		}
	}
	return nil
}

// DefaultBranch returns the branch name to use when creating a new
// repository
func (agg *FileAggregate) DefaultBranch() string {
	v := agg.local.Section("init").Key("defaultbranch").String()
	if v == "" {
		return "master"
	}
	return v
}

// Remotes returns all the configured remotes, sorted by name
func (agg *FileAggregate) Remotes() []Remote {
	var out []Remote
	for _, s := range agg.local.Sections() {
		name := remoteName(s.Name())
		if name == "" {
			continue
		}
		out = append(out, Remote{
			Name: name,
			URL:  s.Key(remoteURLKey).String(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Remote returns the remote with the given name.
// ErrRemoteNotFound is returned if the remote isn't configured
func (agg *FileAggregate) Remote(name string) (Remote, error) {
	s, err := agg.local.GetSection(remoteSectionName(name))
	if err != nil {
		return Remote{}, ErrRemoteNotFound
	}
	return Remote{
		Name: name,
		URL:  s.Key(remoteURLKey).String(),
	}, nil
}

// AddRemote adds a new remote.
// ErrRemoteExists is returned if the remote is already configured
func (agg *FileAggregate) AddRemote(name, url string) error {
	if _, err := agg.local.GetSection(remoteSectionName(name)); err == nil {
		return ErrRemoteExists
	}
	s, err := agg.local.NewSection(remoteSectionName(name))
	if err != nil {
		return fmt.Errorf("could not create the remote section: %w", err)
	}
	if _, err := s.NewKey(remoteURLKey, url); err != nil {
		return fmt.Errorf("could not set the remote url: %w", err)
	}
	return nil
}

// RemoveRemote deletes a remote.
// ErrRemoteNotFound is returned if the remote isn't configured
func (agg *FileAggregate) RemoveRemote(name string) error {
	if _, err := agg.local.GetSection(remoteSectionName(name)); err != nil {
		return ErrRemoteNotFound
	}
	agg.local.DeleteSection(remoteSectionName(name))
	return nil
}

// remoteSectionName returns the name of the ini section holding
// the given remote.
// Ex. for "origin" returns `remote "origin"`
func remoteSectionName(name string) string {
	return remoteSectionPrefix + name + `"`
}

// remoteName extracts the remote name out of an ini section name,
// or returns an empty string if the section isn't a remote
func remoteName(section string) string {
	if !strings.HasPrefix(section, remoteSectionPrefix) || !strings.HasSuffix(section, `"`) {
		return ""
	}
	return section[len(remoteSectionPrefix) : len(section)-1]
}
