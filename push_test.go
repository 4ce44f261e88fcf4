package mingit_test

import (
	"encoding/binary"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mingit "github.com/Nivl/mingit"
	"github.com/Nivl/mingit/ginternals/config"
	"github.com/Nivl/mingit/ginternals/pktline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// receivePackServer is a minimal smart-HTTP receive-pack endpoint
// recording what it gets sent
type receivePackServer struct {
	// refs advertised during discovery, "<refname>" => "<oid>"
	refs map[string]string

	// status lines sent back after a push
	statusLines []string

	gotCommand string
	gotPack    []byte
}

func (s *receivePackServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/info/refs", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "git-receive-pack", r.URL.Query().Get("service"))
		w.Header().Set("Content-Type", "application/x-git-receive-pack-advertisement")

		require.NoError(t, pktline.WritePacketf(w, "# service=git-receive-pack\n"))
		require.NoError(t, pktline.WriteFlush(w))

		first := true
		writeRef := func(oid, name string) {
			line := oid + " " + name
			if first {
				line += "\x00report-status"
				first = false
			}
			require.NoError(t, pktline.WritePacketf(w, "%s\n", line))
		}
		if len(s.refs) == 0 {
			writeRef(strings.Repeat("0", 40), "capabilities^{}")
		}
		for name, oid := range s.refs {
			writeRef(oid, name)
		}
		require.NoError(t, pktline.WriteFlush(w))
	})

	mux.HandleFunc("/git-receive-pack", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/x-git-receive-pack-request", r.Header.Get("Content-Type"))

		payload, err := pktline.ReadPacket(r.Body)
		require.NoError(t, err)
		s.gotCommand = string(payload)

		_, err = pktline.ReadPacket(r.Body)
		require.ErrorIs(t, err, pktline.ErrFlush)

		s.gotPack, err = ioutil.ReadAll(r.Body)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/x-git-receive-pack-result")
		for _, line := range s.statusLines {
			require.NoError(t, pktline.WritePacketf(w, "%s\n", line))
		}
		require.NoError(t, pktline.WriteFlush(w))
	})

	return mux
}

func TestPush(t *testing.T) {
	t.Parallel()

	t.Run("pushing a new branch sends everything", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a", []byte("A\n"))
		sha := commitAll(t, r, "first")

		srv := &receivePackServer{
			statusLines: []string{"unpack ok", "ok refs/heads/master"},
		}
		ts := httptest.NewServer(srv.handler(t))
		t.Cleanup(ts.Close)

		require.NoError(t, r.AddRemote("origin", ts.URL))

		res, err := r.Push(mingit.PushOptions{})
		require.NoError(t, err)

		assert.Equal(t, "master", res.Branch)
		assert.True(t, res.OldID.IsZero())
		assert.Equal(t, sha, res.NewID.String())
		assert.False(t, res.UpToDate)

		t.Run("the command targets the branch", func(t *testing.T) {
			expected := strings.Repeat("0", 40) + " " + sha + " refs/heads/master\x00report-status\n"
			assert.Equal(t, expected, srv.gotCommand)
		})

		t.Run("the pack holds the commit, its tree and its blob", func(t *testing.T) {
			require.Greater(t, len(srv.gotPack), 12)
			assert.Equal(t, []byte("PACK"), srv.gotPack[:4])
			assert.Equal(t, uint32(3), binary.BigEndian.Uint32(srv.gotPack[8:12]))
		})
	})

	t.Run("pushing an up-to-date branch sends nothing", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a", []byte("A\n"))
		sha := commitAll(t, r, "first")

		srv := &receivePackServer{
			refs: map[string]string{"refs/heads/master": sha},
		}
		ts := httptest.NewServer(srv.handler(t))
		t.Cleanup(ts.Close)

		require.NoError(t, r.AddRemote("origin", ts.URL))

		res, err := r.Push(mingit.PushOptions{})
		require.NoError(t, err)
		assert.True(t, res.UpToDate)
		assert.Empty(t, srv.gotCommand)
	})

	t.Run("only the new objects are sent", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a", []byte("A\n"))
		c1 := commitAll(t, r, "first")
		writeWtFile(t, fs, "b", []byte("B\n"))
		commitAll(t, r, "second")

		srv := &receivePackServer{
			refs:        map[string]string{"refs/heads/master": c1},
			statusLines: []string{"unpack ok", "ok refs/heads/master"},
		}
		ts := httptest.NewServer(srv.handler(t))
		t.Cleanup(ts.Close)

		require.NoError(t, r.AddRemote("origin", ts.URL))

		res, err := r.Push(mingit.PushOptions{})
		require.NoError(t, err)
		assert.Equal(t, c1, res.OldID.String())

		// second commit + new root tree + blob for b: the blob for
		// a and the first commit are already on the remote
		require.Greater(t, len(srv.gotPack), 12)
		assert.Equal(t, uint32(3), binary.BigEndian.Uint32(srv.gotPack[8:12]))
	})

	t.Run("a rejected push fails", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a", []byte("A\n"))
		commitAll(t, r, "first")

		srv := &receivePackServer{
			statusLines: []string{"unpack ok", "ng refs/heads/master hook declined"},
		}
		ts := httptest.NewServer(srv.handler(t))
		t.Cleanup(ts.Close)

		require.NoError(t, r.AddRemote("origin", ts.URL))

		_, err := r.Push(mingit.PushOptions{})
		require.Error(t, err)
		assert.ErrorIs(t, err, mingit.ErrProtocol)
	})

	t.Run("a non-2xx discovery fails", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a", []byte("A\n"))
		commitAll(t, r, "first")

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusForbidden)
		}))
		t.Cleanup(ts.Close)

		require.NoError(t, r.AddRemote("origin", ts.URL))

		_, err := r.Push(mingit.PushOptions{})
		require.Error(t, err)
		assert.ErrorIs(t, err, mingit.ErrProtocol)
	})

	t.Run("pushing without a configured remote fails", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a", []byte("A\n"))
		commitAll(t, r, "first")

		_, err := r.Push(mingit.PushOptions{})
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrRemoteNotFound)
	})
}

func TestRemotes(t *testing.T) {
	t.Parallel()

	r, _ := newTestRepo(t)

	require.NoError(t, r.AddRemote("origin", "https://example.com/repo.git"))

	remote, err := r.Remote("origin")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/repo.git", remote.URL)

	remotes := r.Remotes()
	require.Len(t, remotes, 1)
	assert.Equal(t, "origin", remotes[0].Name)

	require.NoError(t, r.RemoveRemote("origin"))
	assert.Empty(t, r.Remotes())

	_, err = r.Remote("origin")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrRemoteNotFound)
}
