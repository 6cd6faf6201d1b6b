package mirror

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// StateFile is the default name of the version state file kept next to the
// local table.
const StateFile = ".remote-state.yaml"

// remoteState is the on-disk form of the last-known version token. Remote
// names the object the token belongs to; a token recorded for a different
// remote is ignored.
type remoteState struct {
	Remote string `yaml:"remote"`
	SHA    string `yaml:"sha"`
}

// readState returns the token recorded for remote at path, or "" when the
// file is absent, unreadable or names another remote.
func readState(path, remote string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var st remoteState
	if err := yaml.Unmarshal(data, &st); err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}
	if st.Remote != remote {
		return "", nil
	}
	return st.SHA, nil
}

// writeState records sha for remote at path. An empty sha removes the file.
func writeState(path, remote, sha string) error {
	if sha == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}

	data, err := yaml.Marshal(remoteState{Remote: remote, SHA: sha})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
