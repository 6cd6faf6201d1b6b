package mirror

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/maintlog/pkg/types"
)

const (
	testOwner = "bg-eng"
	testRepo  = "maint-data"
	testPath  = "logs/maintenance_records.csv"
)

// fakeGitHub serves the subset of the contents and git blob APIs the mirror
// uses, keyed by a single file.
type fakeGitHub struct {
	mu      sync.Mutex
	exists  bool
	content []byte
	sha     string
	version int
	// inline=false makes GET report encoding "none", as GitHub does for
	// files larger than 1 MB.
	inline bool

	gets    int
	puts    []putRequest
	failPut int // status to return on the next PUT, 0 for none.
	authErr bool
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch"`
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{inline: true}
}

func (f *fakeGitHub) seed(content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exists = true
	f.content = []byte(content)
	f.version++
	f.sha = fmt.Sprintf("sha-%d", f.version)
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.authErr {
		writeError(w, http.StatusUnauthorized, "Bad credentials")
		return
	}

	contentsPath := fmt.Sprintf("/repos/%s/%s/contents/%s", testOwner, testRepo, testPath)
	blobPrefix := fmt.Sprintf("/repos/%s/%s/git/blobs/", testOwner, testRepo)

	switch {
	case r.URL.Path == contentsPath && r.Method == http.MethodGet:
		f.gets++
		if !f.exists {
			writeError(w, http.StatusNotFound, "Not Found")
			return
		}
		body := map[string]any{
			"type": "file",
			"name": "maintenance_records.csv",
			"path": testPath,
			"sha":  f.sha,
			"size": len(f.content),
		}
		if f.inline {
			body["encoding"] = "base64"
			body["content"] = base64.StdEncoding.EncodeToString(f.content)
		} else {
			body["encoding"] = "none"
			body["content"] = ""
		}
		writeJSON(w, http.StatusOK, body)

	case r.URL.Path == contentsPath && r.Method == http.MethodPut:
		var req putRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.puts = append(f.puts, req)
		if f.failPut != 0 {
			status := f.failPut
			f.failPut = 0
			writeError(w, status, "injected failure")
			return
		}
		switch {
		case f.exists && req.SHA == "":
			writeError(w, http.StatusUnprocessableEntity, `"sha" wasn't supplied.`)
			return
		case f.exists && req.SHA != f.sha:
			writeError(w, http.StatusConflict, fmt.Sprintf("is at %s but expected %s", f.sha, req.SHA))
			return
		case !f.exists && req.SHA != "":
			writeError(w, http.StatusNotFound, "Not Found")
			return
		}
		data, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		status := http.StatusOK
		if !f.exists {
			status = http.StatusCreated
		}
		f.exists = true
		f.content = data
		f.version++
		f.sha = fmt.Sprintf("sha-%d", f.version)
		writeJSON(w, status, map[string]any{
			"content": map[string]any{"sha": f.sha, "path": testPath},
			"commit":  map[string]any{"sha": "commit-" + f.sha, "message": req.Message},
		})

	case strings.HasPrefix(r.URL.Path, blobPrefix) && r.Method == http.MethodGet:
		if strings.TrimPrefix(r.URL.Path, blobPrefix) != f.sha {
			writeError(w, http.StatusNotFound, "Not Found")
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(f.content)

	default:
		writeError(w, http.StatusNotFound, "Not Found")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func newTestMirror(t *testing.T, fake *fakeGitHub, opts ...Option) *GitHub {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	m, err := NewGitHub(types.RemoteConfig{
		Owner:  testOwner,
		Repo:   testRepo,
		Branch: "main",
		Path:   testPath,
		Token:  "ghp_test",
		APIURL: srv.URL,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
	require.NoError(t, err)
	return m
}

func TestNewGitHubRequiresToken(t *testing.T) {
	_, err := NewGitHub(types.RemoteConfig{Owner: "o", Repo: "r", Path: "p"}, nil)
	assert.ErrorIs(t, err, types.ErrRemoteAuthMissing)
}

func TestPushCreatesWhenAbsent(t *testing.T) {
	fake := newFakeGitHub()
	m := newTestMirror(t, fake)

	require.NoError(t, m.Push(context.Background(), []byte("a,b\n"), "add record"))

	require.Len(t, fake.puts, 1)
	assert.Empty(t, fake.puts[0].SHA)
	assert.Equal(t, "main", fake.puts[0].Branch)
	assert.Equal(t, "add record", fake.puts[0].Message)
	assert.Equal(t, "a,b\n", string(fake.content))
	assert.Equal(t, fake.sha, m.sha)
}

func TestPushUpdatesWithCurrentToken(t *testing.T) {
	fake := newFakeGitHub()
	fake.seed("old\n")
	m := newTestMirror(t, fake)

	require.NoError(t, m.Push(context.Background(), []byte("new\n"), "add record"))

	require.Len(t, fake.puts, 1)
	assert.Equal(t, "sha-1", fake.puts[0].SHA)
	assert.Equal(t, "new\n", string(fake.content))
	assert.Equal(t, 1, fake.gets)
}

func TestPushReusesRememberedToken(t *testing.T) {
	fake := newFakeGitHub()
	m := newTestMirror(t, fake)
	ctx := context.Background()

	require.NoError(t, m.Push(ctx, []byte("one\n"), "first"))
	require.NoError(t, m.Push(ctx, []byte("two\n"), "second"))

	require.Len(t, fake.puts, 2)
	assert.Equal(t, "sha-1", fake.puts[1].SHA)
	assert.Equal(t, 1, fake.gets, "second push should not re-read the token")
	assert.Equal(t, "two\n", string(fake.content))
}

func TestPushConflictSurfacesVersionConflict(t *testing.T) {
	fake := newFakeGitHub()
	m := newTestMirror(t, fake)
	ctx := context.Background()

	require.NoError(t, m.Push(ctx, []byte("mine\n"), "first"))
	// Another writer changes the file behind our back.
	fake.seed("theirs\n")

	err := m.Push(ctx, []byte("mine again\n"), "second")
	assert.ErrorIs(t, err, types.ErrRemoteSyncFailed)
	assert.ErrorIs(t, err, types.ErrVersionConflict)
	assert.Equal(t, "theirs\n", string(fake.content), "conflicting write must not clobber")
	assert.Empty(t, m.sha, "token should be forgotten after conflict")
}

func TestPushAfterForgetOverwrites(t *testing.T) {
	fake := newFakeGitHub()
	m := newTestMirror(t, fake)
	ctx := context.Background()

	require.NoError(t, m.Push(ctx, []byte("mine\n"), "first"))
	fake.seed("theirs\n")

	m.Forget()
	require.NoError(t, m.Push(ctx, []byte("resync\n"), "resync"))
	assert.Equal(t, "resync\n", string(fake.content))
}

func TestPushTransportFailure(t *testing.T) {
	fake := newFakeGitHub()
	fake.seed("x\n")
	fake.failPut = http.StatusBadGateway
	m := newTestMirror(t, fake)

	err := m.Push(context.Background(), []byte("y\n"), "msg")
	assert.ErrorIs(t, err, types.ErrRemoteSyncFailed)
	assert.NotErrorIs(t, err, types.ErrVersionConflict)
}

func TestPushBadCredentials(t *testing.T) {
	fake := newFakeGitHub()
	fake.authErr = true
	m := newTestMirror(t, fake)

	err := m.Push(context.Background(), []byte("y\n"), "msg")
	assert.ErrorIs(t, err, types.ErrRemoteSyncFailed)
}

func TestPullInlineContent(t *testing.T) {
	fake := newFakeGitHub()
	fake.seed("Timestamp,Equipment\n2026-03-01 08:00,CNC\n")
	m := newTestMirror(t, fake)

	data, err := m.Pull(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Timestamp,Equipment\n2026-03-01 08:00,CNC\n", string(data))
	assert.Equal(t, "sha-1", m.sha)
}

func TestPullLargeFileUsesBlobAPI(t *testing.T) {
	fake := newFakeGitHub()
	fake.inline = false
	fake.seed("big,table\n")
	m := newTestMirror(t, fake)

	data, err := m.Pull(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "big,table\n", string(data))
}

func TestPullNotFound(t *testing.T) {
	m := newTestMirror(t, newFakeGitHub())

	_, err := m.Pull(context.Background())
	assert.ErrorIs(t, err, types.ErrRemoteNotFound)
}

func TestStateFileDetectsConflictAcrossProcesses(t *testing.T) {
	fake := newFakeGitHub()
	state := filepath.Join(t.TempDir(), StateFile)
	ctx := context.Background()

	first := newTestMirror(t, fake, WithStateFile(state))
	require.NoError(t, first.Push(ctx, []byte("mine\n"), "first"))
	require.FileExists(t, state)

	// Another device pushes while this one is not running.
	fake.seed("theirs\n")

	second := newTestMirror(t, fake, WithStateFile(state))
	assert.Equal(t, "sha-1", second.sha)

	err := second.Push(ctx, []byte("mine again\n"), "second")
	assert.ErrorIs(t, err, types.ErrVersionConflict)
	assert.Equal(t, "theirs\n", string(fake.content), "conflicting write must not clobber")
	assert.NoFileExists(t, state, "state should be cleared after conflict")
}

func TestStateFileIgnoresOtherRemote(t *testing.T) {
	state := filepath.Join(t.TempDir(), StateFile)
	require.NoError(t, os.WriteFile(state, []byte("remote: someone/else@main:x.csv\nsha: sha-9\n"), 0o644))

	m := newTestMirror(t, newFakeGitHub(), WithStateFile(state))
	assert.Empty(t, m.sha)
}

func TestStateFileClearedByForget(t *testing.T) {
	fake := newFakeGitHub()
	state := filepath.Join(t.TempDir(), StateFile)
	m := newTestMirror(t, fake, WithStateFile(state))

	require.NoError(t, m.Push(context.Background(), []byte("one\n"), "first"))
	require.FileExists(t, state)

	m.Forget()
	assert.NoFileExists(t, state)
}
