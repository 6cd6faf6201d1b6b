package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mesh-intelligence/maintlog/internal/cache"
	"github.com/mesh-intelligence/maintlog/internal/csvstore"
	"github.com/mesh-intelligence/maintlog/internal/imagecodec"
	"github.com/mesh-intelligence/maintlog/internal/mirror"
	"github.com/mesh-intelligence/maintlog/internal/repository"
	"github.com/mesh-intelligence/maintlog/pkg/types"
)

// openRepository wires the local store, codec, cache and, when credentials
// are configured, the GitHub mirror.
func (e *env) openRepository() (*repository.Repository, error) {
	var m mirror.Mirror
	if e.cfg.Remote.HasCredentials() {
		state := filepath.Join(filepath.Dir(e.cfg.LocalPath()), mirror.StateFile)
		gh, err := mirror.NewGitHub(e.cfg.Remote, e.logger, mirror.WithStateFile(state))
		if err != nil {
			return nil, exitError(exitSysError, fmt.Errorf("configure remote: %w", err))
		}
		m = gh
	}

	return repository.New(
		repository.OptionsFromConfig(e.cfg),
		csvstore.New(e.cfg.LocalPath(), e.logger),
		imagecodec.New(e.cfg.Image),
		m,
		cache.New(e.cfg.Cache.TTL),
		e.logger,
	), nil
}

// classify maps a repository error to an exit code.
func classify(err error) error {
	switch {
	case errors.Is(err, types.ErrMissingField),
		errors.Is(err, types.ErrInvalidOption),
		errors.Is(err, types.ErrInvalidImage),
		errors.Is(err, types.ErrNoPhoto),
		errors.Is(err, types.ErrRemoteAuthMissing),
		errors.Is(err, types.ErrRemoteNotFound):
		return exitError(exitUserError, err)
	default:
		return exitError(exitSysError, err)
	}
}
