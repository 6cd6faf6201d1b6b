package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/go-github/v68/github"

	"github.com/mesh-intelligence/maintlog/pkg/types"
)

// GitHub mirrors the table to a file in a GitHub repository through the
// contents API. The version token is the file's blob SHA.
type GitHub struct {
	client *github.Client
	owner  string
	repo   string
	branch string
	path   string
	logger *slog.Logger

	// statePath, when set, persists sha across processes.
	statePath string

	mu  sync.Mutex
	sha string // last-known version token; empty when unknown.
}

// Option configures a GitHub mirror.
type Option func(*GitHub)

// WithStateFile persists the last-known version token at path so a later
// process still pushes conditionally on the version it last saw.
func WithStateFile(path string) Option {
	return func(g *GitHub) {
		g.statePath = path
	}
}

// NewGitHub creates a mirror from cfg. Returns types.ErrRemoteAuthMissing
// when no token is configured.
func NewGitHub(cfg types.RemoteConfig, logger *slog.Logger, opts ...Option) (*GitHub, error) {
	if !cfg.HasCredentials() {
		return nil, types.ErrRemoteAuthMissing
	}

	client := github.NewClient(nil).WithAuthToken(cfg.Token)
	if cfg.APIURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse api_url: %w", err)
		}
		client.BaseURL = base
	}

	branch := cfg.Branch
	if branch == "" {
		branch = types.DefaultRemoteBranch
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	g := &GitHub{
		client: client,
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		branch: branch,
		path:   strings.TrimPrefix(cfg.Path, "/"),
		logger: logger,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.statePath != "" {
		sha, err := readState(g.statePath, g.String())
		if err != nil {
			g.logger.Warn("ignoring remote state file", "path", g.statePath, "error", err)
		}
		g.sha = sha
	}
	return g, nil
}

// String identifies the remote object for logs.
func (g *GitHub) String() string {
	return fmt.Sprintf("%s/%s@%s:%s", g.owner, g.repo, g.branch, g.path)
}

// Push updates the remote file with the remembered version token, learning
// the token first if none is known. A missing file is created.
func (g *GitHub) Push(ctx context.Context, content []byte, message string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	sha := g.sha
	if sha == "" {
		fc, err := g.stat(ctx)
		if errors.Is(err, types.ErrRemoteNotFound) {
			return g.create(ctx, content, message)
		}
		if err != nil {
			return err
		}
		sha = fc.GetSHA()
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		Content: content,
		SHA:     github.Ptr(sha),
		Branch:  github.Ptr(g.branch),
	}
	res, _, err := g.client.Repositories.UpdateFile(ctx, g.owner, g.repo, g.path, opts)
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			return g.create(ctx, content, message)
		}
		return g.fail("update", err)
	}

	g.remember(res.GetContent().GetSHA())
	g.logger.Debug("remote table updated", "remote", g.String(), "sha", g.sha)
	return nil
}

func (g *GitHub) create(ctx context.Context, content []byte, message string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		Content: content,
		Branch:  github.Ptr(g.branch),
	}
	res, _, err := g.client.Repositories.CreateFile(ctx, g.owner, g.repo, g.path, opts)
	if err != nil {
		return g.fail("create", err)
	}

	g.remember(res.GetContent().GetSHA())
	g.logger.Info("remote table created", "remote", g.String(), "sha", g.sha)
	return nil
}

// Pull downloads the remote file. Files too large for the contents API to
// inline are read through the git blob API.
func (g *GitHub) Pull(ctx context.Context) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	fc, err := g.stat(ctx)
	if err != nil {
		return nil, err
	}

	var data []byte
	if fc.Content != nil && fc.GetEncoding() != "none" {
		text, err := fc.GetContent()
		if err != nil {
			return nil, fmt.Errorf("%w: decoding content: %w", types.ErrRemoteSyncFailed, err)
		}
		data = []byte(text)
	} else {
		data, _, err = g.client.Git.GetBlobRaw(ctx, g.owner, g.repo, fc.GetSHA())
		if err != nil {
			return nil, g.fail("download blob", err)
		}
	}

	g.remember(fc.GetSHA())
	return data, nil
}

// Forget drops the remembered version token.
func (g *GitHub) Forget() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.remember("")
}

// remember sets the version token and, with a state file configured,
// records it there. The caller holds g.mu.
func (g *GitHub) remember(sha string) {
	g.sha = sha
	if g.statePath == "" {
		return
	}
	if err := writeState(g.statePath, g.String(), sha); err != nil {
		g.logger.Warn("remote state not saved", "path", g.statePath, "error", err)
	}
}

// stat fetches file metadata, including the current version token.
func (g *GitHub) stat(ctx context.Context) (*github.RepositoryContent, error) {
	opts := &github.RepositoryContentGetOptions{Ref: g.branch}
	fc, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, g.path, opts)
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", types.ErrRemoteNotFound, g.String())
		}
		return nil, g.fail("get", err)
	}
	if fc == nil {
		return nil, fmt.Errorf("%w: %s is a directory", types.ErrRemoteSyncFailed, g.String())
	}
	return fc, nil
}

// fail classifies a GitHub API error. Conflicts clear the remembered token.
func (g *GitHub) fail(op string, err error) error {
	switch statusCode(err) {
	case http.StatusConflict, http.StatusUnprocessableEntity:
		g.remember("")
		return fmt.Errorf("%w: %s %s: %w", types.ErrRemoteSyncFailed, op, g.String(), types.ErrVersionConflict)
	}
	return fmt.Errorf("%w: %s %s: %w", types.ErrRemoteSyncFailed, op, g.String(), err)
}

// statusCode extracts the HTTP status from a GitHub API error, or 0.
func statusCode(err error) int {
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return er.Response.StatusCode
	}
	return 0
}
