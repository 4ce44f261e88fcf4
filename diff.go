package mingit

import (
	"fmt"
	"os"
	"strings"

	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/ginternals/object"
	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/xerrors"
)

// diffContextLines is the number of unchanged lines shown around
// each change
const diffContextLines = 3

// Diff returns the unstaged changes as a unified diff: for every
// tracked file whose worktree content differs from the index, the
// line differences are emitted with 3 lines of context.
// The output is deterministic
func (r *Repository) Diff() (string, error) {
	idx, err := r.Index()
	if err != nil {
		return "", err
	}

	out := new(strings.Builder)
	for _, e := range idx.Entries() {
		abs := r.workTreeAbs(e.Path)

		o, err := r.dotGit.Object(e.ID)
		if err != nil {
			return "", xerrors.Errorf("could not load blob %s for %s: %w", e.ID.String(), e.Path, err)
		}
		oldContent := o.Bytes()

		fi, err := r.lstat(abs)
		if err != nil {
			if !os.IsNotExist(err) {
				return "", xerrors.Errorf("could not stat %s: %w", e.Path, err)
			}
			// deleted file: everything is removed
			writeFileDiff(out, e.Path, fileDiffParams{
				oldID:      e.ID,
				oldMode:    object.TreeObjectMode(e.Mode),
				oldContent: oldContent,
				deleted:    true,
			})
			continue
		}

		same, err := r.entryMatchesWorktree(e)
		if err != nil {
			return "", err
		}
		if same {
			continue
		}

		newContent, newMode, err := r.readBlobContent(abs, fi)
		if err != nil {
			return "", err
		}
		newID := object.New(object.TypeBlob, newContent).ID()
		if newID == e.ID && uint32(newMode) == e.Mode {
			// the stat cache was stale but the content matches
			continue
		}

		writeFileDiff(out, e.Path, fileDiffParams{
			oldID:      e.ID,
			oldMode:    object.TreeObjectMode(e.Mode),
			oldContent: oldContent,
			newID:      newID,
			newMode:    newMode,
			newContent: newContent,
		})
	}

	return out.String(), nil
}

type fileDiffParams struct {
	oldID      ginternals.Oid
	newID      ginternals.Oid
	oldMode    object.TreeObjectMode
	newMode    object.TreeObjectMode
	oldContent []byte
	newContent []byte
	deleted    bool
}

// writeFileDiff writes the git-style header and the hunks of a
// single file
func writeFileDiff(out *strings.Builder, path string, p fileDiffParams) {
	fmt.Fprintf(out, "diff --git a/%s b/%s\n", path, path)

	switch {
	case p.deleted:
		fmt.Fprintf(out, "deleted file mode %o\n", p.oldMode)
		fmt.Fprintf(out, "index %s..%s\n", shortOid(p.oldID), strings.Repeat("0", 7))
	case p.oldMode != p.newMode:
		fmt.Fprintf(out, "old mode %o\n", p.oldMode)
		fmt.Fprintf(out, "new mode %o\n", p.newMode)
		fmt.Fprintf(out, "index %s..%s\n", shortOid(p.oldID), shortOid(p.newID))
	default:
		fmt.Fprintf(out, "index %s..%s %o\n", shortOid(p.oldID), shortOid(p.newID), p.oldMode)
	}

	fmt.Fprintf(out, "--- a/%s\n", path)
	switch p.deleted {
	case true:
		out.WriteString("+++ /dev/null\n")
	case false:
		fmt.Fprintf(out, "+++ b/%s\n", path)
	}

	lines := diffLines(string(p.oldContent), string(p.newContent))
	for _, h := range buildHunks(lines) {
		fmt.Fprintf(out, "@@ -%s +%s @@\n", formatRange(h.oldStart, h.oldLines), formatRange(h.newStart, h.newLines))
		for _, l := range h.lines {
			out.WriteString(l)
		}
	}
}

func shortOid(oid ginternals.Oid) string {
	return oid.String()[:7]
}

// diffLine is a single line of a line-based diff
type diffLine struct {
	op   diffmatchpatch.Operation
	text string
	// noNL marks the final line of a side that doesn't end with a
	// newline
	noNL bool
}

// diffLines computes the line-based differences between two
// contents.
// The content is mapped line-by-line to runes so the quadratic diff
// algorithm runs on lines, not on bytes
func diffLines(oldContent, newContent string) []diffLine {
	dmp := diffmatchpatch.New()
	// a timeout would make the output depend on the machine
	dmp.DiffTimeout = 0

	oldRunes, newRunes, lineIndex := dmp.DiffLinesToRunes(oldContent, newContent)
	diffs := dmp.DiffMainRunes(oldRunes, newRunes, false)
	diffs = dmp.DiffCharsToLines(diffs, lineIndex)

	var out []diffLine
	for _, d := range diffs {
		segments := strings.SplitAfter(d.Text, "\n")
		for _, seg := range segments {
			if seg == "" {
				continue
			}
			l := diffLine{op: d.Type}
			l.text = strings.TrimSuffix(seg, "\n")
			l.noNL = !strings.HasSuffix(seg, "\n")
			out = append(out, l)
		}
	}
	return out
}

// hunk represents a group of nearby changes with their context
type hunk struct {
	oldStart, oldLines int
	newStart, newLines int
	lines              []string
}

// buildHunks groups the changed lines into hunks, surrounding each
// with up to diffContextLines lines of context. Changes separated by
// at most twice the context are merged in a single hunk
func buildHunks(lines []diffLine) []hunk {
	var hunks []hunk

	i := 0
	oldLn, newLn := 1, 1 // line numbers of lines[i]
	for i < len(lines) {
		if lines[i].op == diffmatchpatch.DiffEqual {
			oldLn++
			newLn++
			i++
			continue
		}

		// a change: open a hunk up to diffContextLines above it
		start := i - diffContextLines
		if start < 0 {
			start = 0
		}
		hOld := oldLn - (i - start)
		hNew := newLn - (i - start)

		// extend the hunk until the changes stop for good
		end := len(lines)
		eqRun := 0
		for j := i; j < len(lines); j++ {
			if lines[j].op != diffmatchpatch.DiffEqual {
				eqRun = 0
				continue
			}
			eqRun++
			if eqRun > diffContextLines*2 {
				end = j + 1 - eqRun + diffContextLines
				break
			}
		}
		if eqRun > diffContextLines && end == len(lines) {
			end = len(lines) - eqRun + diffContextLines
		}

		h := hunk{oldStart: hOld, newStart: hNew}
		for k := start; k < end; k++ {
			l := lines[k]
			var prefix byte
			switch l.op {
			case diffmatchpatch.DiffEqual:
				prefix = ' '
				h.oldLines++
				h.newLines++
			case diffmatchpatch.DiffDelete:
				prefix = '-'
				h.oldLines++
			case diffmatchpatch.DiffInsert:
				prefix = '+'
				h.newLines++
			}
			h.lines = append(h.lines, string(prefix)+l.text+"\n")
			if l.noNL {
				h.lines = append(h.lines, "\\ No newline at end of file\n")
			}
		}

		// unified format quirk: an empty range starts on the line
		// before the hunk
		if h.oldLines == 0 {
			h.oldStart--
		}
		if h.newLines == 0 {
			h.newStart--
		}

		hunks = append(hunks, h)
		i = end
		oldLn = hOld + h.oldLines
		newLn = hNew + h.newLines
	}

	return hunks
}

// formatRange renders one side of a hunk header, omitting the count
// when it is 1
func formatRange(start, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}
