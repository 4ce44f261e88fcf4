package fsbackend

import (
	"os"

	"github.com/Nivl/mingit/ginternals/config"
	"golang.org/x/xerrors"
)

// setDefaultCfg persists the default git configuration for the
// repository, unless a config file already exists
func (b *Backend) setDefaultCfg() error {
	if _, err := b.fs.Stat(b.config.LocalConfig); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return xerrors.Errorf("could not check for an existing config: %w", err)
	}

	agg, err := config.LoadFileAggregate(b.config)
	if err != nil {
		return err
	}
	return agg.Save()
}
