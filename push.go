package mingit

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/ginternals/object"
	"github.com/Nivl/mingit/ginternals/packfile"
	"github.com/Nivl/mingit/ginternals/pktline"
	"github.com/Nivl/mingit/internal/gitpath"
	"golang.org/x/xerrors"
)

const (
	receivePackService = "git-receive-pack"

	// defaultPushTimeout bounds the whole push exchange
	defaultPushTimeout = 30 * time.Second
)

var (
	// ErrNoBranchToPush is returned when pushing with a detached or
	// unborn HEAD and no explicit branch
	ErrNoBranchToPush = errors.New("no branch to push")

	// ErrProtocol is returned when the remote end doesn't speak the
	// smart-HTTP protocol properly, or rejects the push
	ErrProtocol = errors.New("protocol error")
)

// PushOptions represents all the optional data used to push
type PushOptions struct {
	// Remote is the name of the remote to push to.
	// Defaults to origin
	Remote string
	// Branch is the short name of the branch to push.
	// Defaults to the current branch
	Branch string
	// Timeout bounds the network exchange.
	// Defaults to 30s
	Timeout time.Duration
	// Client is the HTTP client used to talk to the remote.
	// Defaults to a client using Timeout
	Client *http.Client
}

// PushResult describes the outcome reported by the remote
type PushResult struct {
	// Branch is the short name of the pushed branch
	Branch string
	// OldID is the id the remote branch had before the push,
	// NullOid for a new branch
	OldID ginternals.Oid
	// NewID is the id the remote branch now points to
	NewID ginternals.Oid
	// UpToDate is set when the remote was already at NewID and
	// nothing was sent
	UpToDate bool
}

// Push updates a branch of a remote repository to the local tip of
// that branch, using the smart-HTTP receive-pack protocol:
// the remote refs are discovered with a GET on
// $URL/info/refs?service=git-receive-pack, then the ref update and
// a packfile holding the missing objects are POSTed to
// $URL/git-receive-pack
// https://git-scm.com/docs/http-protocol
func (r *Repository) Push(opts PushOptions) (*PushResult, error) {
	remoteName := opts.Remote
	if remoteName == "" {
		remoteName = DefaultRemote
	}
	remote, err := r.Remote(remoteName)
	if err != nil {
		return nil, err
	}

	branch := opts.Branch
	if branch == "" {
		branch, err = r.CurrentBranch()
		if err != nil {
			return nil, err
		}
		if branch == "" {
			return nil, ErrNoBranchToPush
		}
	}

	refName := gitpath.LocalBranch(branch)
	ref, err := r.dotGit.Reference(refName)
	if err != nil {
		return nil, err
	}
	newID := ref.Target()
	if newID.IsZero() {
		return nil, xerrors.Errorf("branch %s: %w", branch, ErrUnbornBranch)
	}

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = defaultPushTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	remoteRefs, err := discoverRemoteRefs(client, remote.URL)
	if err != nil {
		return nil, err
	}

	oldID := remoteRefs[refName] // NullOid when the branch is unborn
	result := &PushResult{
		Branch: branch,
		OldID:  oldID,
		NewID:  newID,
	}
	if oldID == newID {
		result.UpToDate = true
		return result, nil
	}

	objects, err := r.objectsToSend(newID, oldID)
	if err != nil {
		return nil, err
	}

	body := new(bytes.Buffer)
	err = pktline.WritePacketf(body, "%s %s %s\x00report-status\n", oldID.String(), newID.String(), refName)
	if err != nil {
		return nil, err
	}
	if err = pktline.WriteFlush(body); err != nil {
		return nil, err
	}
	if _, err = packfile.WritePack(body, objects); err != nil {
		return nil, xerrors.Errorf("could not build the packfile: %w", err)
	}

	if err = sendPack(client, remote.URL, body, refName); err != nil {
		return nil, err
	}
	return result, nil
}

// discoverRemoteRefs fetches the refs the remote advertises for the
// receive-pack service
func discoverRemoteRefs(client *http.Client, remoteURL string) (map[string]ginternals.Oid, error) {
	u := fmt.Sprintf("%s/info/refs?service=%s", strings.TrimSuffix(remoteURL, "/"), url.QueryEscape(receivePackService))
	resp, err := client.Get(u)
	if err != nil {
		return nil, xerrors.Errorf("could not fetch the remote refs: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // nothing to do with the error

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, xerrors.Errorf("refs discovery returned %s: %w", resp.Status, ErrProtocol)
	}

	// The advertisement starts with "# service=git-receive-pack"
	// followed by a flush-pkt
	first, err := pktline.ReadPacket(resp.Body)
	if err != nil {
		return nil, xerrors.Errorf("could not read the service header: %w", err)
	}
	if !strings.HasPrefix(string(first), "# service="+receivePackService) {
		return nil, xerrors.Errorf("unexpected service header %q: %w", string(first), ErrProtocol)
	}
	if _, err := pktline.ReadPacket(resp.Body); !errors.Is(err, pktline.ErrFlush) {
		return nil, xerrors.Errorf("expected a flush-pkt after the service header: %w", ErrProtocol)
	}

	// Then one pkt-line per ref: "<oid> <refname>", the first one
	// also carries the server capabilities after a NUL
	refs := map[string]ginternals.Oid{}
	for {
		payload, err := pktline.ReadPacket(resp.Body)
		if errors.Is(err, pktline.ErrFlush) || errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, xerrors.Errorf("could not read a ref line: %w", err)
		}

		line := string(payload)
		if i := strings.IndexByte(line, '\x00'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSuffix(line, "\n")

		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			return nil, xerrors.Errorf("malformed ref line %q: %w", line, ErrProtocol)
		}
		oid, err := ginternals.NewOidFromStr(parts[0])
		if err != nil {
			return nil, xerrors.Errorf("malformed oid in ref line %q: %w", line, ErrProtocol)
		}

		// an empty repo advertises a fake "capabilities^{}" ref
		if parts[1] == "capabilities^{}" {
			continue
		}
		refs[parts[1]] = oid
	}
	return refs, nil
}

// sendPack POSTs the ref update and the packfile, and parses the
// report-status the remote sends back
func sendPack(client *http.Client, remoteURL string, body io.Reader, refName string) error {
	u := strings.TrimSuffix(remoteURL, "/") + "/" + receivePackService
	req, err := http.NewRequest(http.MethodPost, u, body)
	if err != nil {
		return xerrors.Errorf("could not create the request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-git-receive-pack-request")
	req.Header.Set("Accept", "application/x-git-receive-pack-result")

	resp, err := client.Do(req)
	if err != nil {
		return xerrors.Errorf("could not send the pack: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // nothing to do with the error

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return xerrors.Errorf("receive-pack returned %s: %w", resp.Status, ErrProtocol)
	}

	// report-status:
	//     unpack ok | unpack <error>
	//     ok <refname> | ng <refname> <reason>
	sawUnpack := false
	for {
		payload, err := pktline.ReadPacket(resp.Body)
		if errors.Is(err, pktline.ErrFlush) || errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return xerrors.Errorf("could not read the report-status: %w", err)
		}

		line := strings.TrimSuffix(string(payload), "\n")
		switch {
		case line == "unpack ok":
			sawUnpack = true
		case strings.HasPrefix(line, "unpack "):
			return xerrors.Errorf("remote failed to unpack: %s: %w", strings.TrimPrefix(line, "unpack "), ErrProtocol)
		case line == "ok "+refName:
			// the ref got updated
		case strings.HasPrefix(line, "ng "):
			return xerrors.Errorf("remote rejected %s: %w", strings.TrimPrefix(line, "ng "), ErrProtocol)
		}
	}

	if !sawUnpack {
		return xerrors.Errorf("remote sent no report-status: %w", ErrProtocol)
	}
	return nil
}

// objectsToSend returns every object reachable from newID that
// isn't reachable from oldID.
// When oldID isn't known locally the whole history of newID is
// sent: the remote ignores objects it already has
func (r *Repository) objectsToSend(newID, oldID ginternals.Oid) ([]*object.Object, error) {
	exclude := map[ginternals.Oid]struct{}{}
	if !oldID.IsZero() {
		has, err := r.dotGit.HasObject(oldID)
		if err != nil {
			return nil, err
		}
		if has {
			if err := r.walkReachable(oldID, exclude, nil); err != nil {
				return nil, err
			}
		}
	}

	var objects []*object.Object
	seen := map[ginternals.Oid]struct{}{}
	err := r.walkReachable(newID, seen, func(o *object.Object) {
		if _, excluded := exclude[o.ID()]; !excluded {
			objects = append(objects, o)
		}
	})
	if err != nil {
		return nil, err
	}
	return objects, nil
}

// walkReachable visits every object reachable from the given
// commit: the commits of its history, their trees, and every
// sub-tree and blob. fn is called once per object
func (r *Repository) walkReachable(from ginternals.Oid, seen map[ginternals.Oid]struct{}, fn func(o *object.Object)) error {
	stack := []ginternals.Oid{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		o, err := r.dotGit.Object(id)
		if err != nil {
			return xerrors.Errorf("could not load object %s: %w", id.String(), err)
		}
		if fn != nil {
			fn(o)
		}

		switch o.Type() {
		case object.TypeCommit:
			c, err := o.AsCommit()
			if err != nil {
				return err
			}
			stack = append(stack, c.TreeID())
			stack = append(stack, c.ParentIDs()...)
		case object.TypeTree:
			t, err := o.AsTree()
			if err != nil {
				return err
			}
			for _, e := range t.Entries() {
				stack = append(stack, e.ID)
			}
		case object.TypeBlob, object.TypeTag:
			// leaves
		}
	}
	return nil
}
