package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/Nivl/mingit/ginternals/object"
	"github.com/Nivl/mingit/internal/errutil"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

// catFileCmdFlags represents the flags accepted by the cat-file
// command
type catFileCmdFlags struct {
	typeOnly    bool
	sizeOnly    bool
	prettyPrint bool
}

func newCatFileCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat-file (-t | -s | -p) OBJECT",
		Short: "Provide content or type and size information for repository objects",
		Args:  cobra.ExactArgs(1),
	}

	flags := catFileCmdFlags{}
	cmd.Flags().BoolVarP(&flags.typeOnly, "t", "t", false, "Instead of the content, show the object type identified by <object>.")
	cmd.Flags().BoolVarP(&flags.sizeOnly, "s", "s", false, "Instead of the content, show the object size identified by <object>.")
	cmd.Flags().BoolVarP(&flags.prettyPrint, "p", "p", false, "Pretty-print the contents of <object> based on its type.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return catFileCmd(cmd.OutOrStdout(), cfg, flags, args[0])
	}
	return cmd
}

func catFileCmd(out io.Writer, cfg *globalFlags, flags catFileCmdFlags, objectName string) (err error) {
	// Validate options
	set := 0
	for _, f := range []bool{flags.typeOnly, flags.sizeOnly, flags.prettyPrint} {
		if f {
			set++
		}
	}
	if set != 1 {
		return errors.New("exactly one of -t, -s, -p is required")
	}

	// run the command
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	oid, err := r.ResolveRevision(objectName)
	if err != nil {
		return xerrors.Errorf("not a valid object name %s: %w", objectName, err)
	}

	o, err := r.Object(oid)
	if err != nil {
		return err
	}

	switch {
	case flags.sizeOnly:
		fmt.Fprintln(out, strconv.Itoa(o.Size()))
	case flags.typeOnly:
		fmt.Fprintln(out, o.Type().String())
	case flags.prettyPrint:
		return prettyPrintObject(out, o)
	}
	return nil
}

func prettyPrintObject(out io.Writer, o *object.Object) error {
	switch o.Type() {
	case object.TypeCommit:
		c, err := o.AsCommit()
		if err != nil {
			return xerrors.Errorf("could not get commit: %w", err)
		}
		fmt.Fprintf(out, "tree %s\n", c.TreeID().String())
		for _, id := range c.ParentIDs() {
			fmt.Fprintf(out, "parent %s\n", id.String())
		}
		fmt.Fprintf(out, "author %s\n", c.AuthorSignature().String())
		fmt.Fprintf(out, "committer %s\n", c.CommitterSignature().String())
		fmt.Fprintln(out, "")
		fmt.Fprint(out, c.Message())
	case object.TypeTag:
		tag, err := o.AsTag()
		if err != nil {
			return xerrors.Errorf("could not get tag: %w", err)
		}
		fmt.Fprintf(out, "object %s\n", tag.Target().String())
		fmt.Fprintf(out, "type %s\n", tag.Type().String())
		fmt.Fprintf(out, "tag %s\n", tag.Name())
		fmt.Fprintf(out, "tagger %s\n", tag.Tagger().String())
		fmt.Fprintln(out, "")
		fmt.Fprint(out, tag.Message())
	case object.TypeTree:
		tree, err := o.AsTree()
		if err != nil {
			return xerrors.Errorf("could not get tree: %w", err)
		}
		for _, e := range tree.Entries() {
			fmt.Fprintf(out, "%06o %s %s\t%s\n", e.Mode, e.Mode.ObjectType().String(), e.ID.String(), e.Path)
		}
	case object.TypeBlob:
		fmt.Fprint(out, string(o.Bytes()))
	}
	return nil
}
