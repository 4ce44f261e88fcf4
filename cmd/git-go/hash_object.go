package main

import (
	"fmt"
	"io"
	"io/ioutil"

	"github.com/Nivl/mingit/ginternals/object"
	"github.com/Nivl/mingit/internal/errutil"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

// hashObjectCmdFlags represents the flags accepted by the
// hash-object command
type hashObjectCmdFlags struct {
	typ   string
	write bool
}

func newHashObjectCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash-object FILE",
		Short: "Compute object ID and optionally create a blob from a file",
		Args:  cobra.ExactArgs(1),
	}

	flags := hashObjectCmdFlags{}
	cmd.Flags().StringVarP(&flags.typ, "type", "t", "blob", "Specify the type")
	cmd.Flags().BoolVarP(&flags.write, "write", "w", false, "Actually write the object into the object database.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return hashObjectCmd(cmd.OutOrStdout(), cfg, flags, args[0])
	}

	return cmd
}

func hashObjectCmd(out io.Writer, cfg *globalFlags, flags hashObjectCmdFlags, filePath string) (err error) {
	content, err := ioutil.ReadFile(filePath)
	if err != nil {
		return err
	}

	typ, err := object.NewTypeFromString(flags.typ)
	if err != nil {
		return xerrors.Errorf("unsupported object type %s: %w", flags.typ, err)
	}

	o := object.New(typ, content)
	// make sure the content is a valid instance of its type before
	// reporting (or persisting) anything
	switch typ {
	case object.TypeCommit:
		if _, err = o.AsCommit(); err != nil {
			return xerrors.Errorf("invalid commit file: %w", err)
		}
	case object.TypeTree:
		if _, err = o.AsTree(); err != nil {
			return xerrors.Errorf("invalid tree file: %w", err)
		}
	case object.TypeTag:
		if _, err = o.AsTag(); err != nil {
			return xerrors.Errorf("invalid tag file: %w", err)
		}
	case object.TypeBlob:
		// any content is a valid blob
	}

	if flags.write {
		r, err := loadRepository(cfg)
		if err != nil {
			return err
		}
		defer errutil.Close(r, &err)

		if _, err = r.WriteObject(o); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, o.ID().String())
	return nil
}
