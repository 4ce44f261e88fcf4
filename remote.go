package mingit

import (
	"github.com/Nivl/mingit/ginternals/config"
)

// DefaultRemote is the remote used when none is provided
const DefaultRemote = "origin"

// Remotes returns all the configured remotes, sorted by name
func (r *Repository) Remotes() []config.Remote {
	return r.cfgFile.Remotes()
}

// Remote returns the remote matching the given name.
// config.ErrRemoteNotFound is returned if the remote isn't
// configured
func (r *Repository) Remote(name string) (config.Remote, error) {
	return r.cfgFile.Remote(name)
}

// AddRemote adds a new remote and persists the config.
// config.ErrRemoteExists is returned if the remote already exists
func (r *Repository) AddRemote(name, url string) error {
	if err := r.cfgFile.AddRemote(name, url); err != nil {
		return err
	}
	return r.cfgFile.Save()
}

// RemoveRemote deletes a remote and persists the config.
// config.ErrRemoteNotFound is returned if the remote isn't
// configured
func (r *Repository) RemoveRemote(name string) error {
	if err := r.cfgFile.RemoveRemote(name); err != nil {
		return err
	}
	return r.cfgFile.Save()
}
