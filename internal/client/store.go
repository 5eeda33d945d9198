package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"storefront_accounts/internal/model"
)

// Snapshot is what a session persists between runs
type Snapshot struct {
	Token string             `json:"token"`
	User  *model.AccountView `json:"user,omitempty"`
}

// Store persists a Snapshot. Implementations are not safe across processes.
type Store interface {
	Load() (Snapshot, error)
	Save(Snapshot) error
	Clear() error
}

// Earlier frontends stored the session under these keys
const (
	legacyTokenKey = "userToken"
	legacyUserKey  = "userInfo"
)

// FileStore keeps the snapshot in a JSON file readable only by its owner
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

// Load returns an empty snapshot when the file does not exist. A file written
// with the legacy keys is converted and rewritten once.
func (s *FileStore) Load() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read session file: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse session file: %w", err)
	}

	_, hasToken := raw["token"]
	_, hasLegacyToken := raw[legacyTokenKey]
	_, hasLegacyUser := raw[legacyUserKey]

	if hasToken || !(hasLegacyToken || hasLegacyUser) {
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return Snapshot{}, fmt.Errorf("failed to parse session file: %w", err)
		}
		if hasLegacyToken || hasLegacyUser {
			// Current keys win. Rewrite to drop the stale pair.
			return snap, s.Save(snap)
		}
		return snap, nil
	}

	snap, err := decodeLegacy(raw)
	if err != nil {
		return Snapshot{}, err
	}
	return snap, s.Save(snap)
}

func decodeLegacy(raw map[string]json.RawMessage) (Snapshot, error) {
	var snap Snapshot
	if v, ok := raw[legacyTokenKey]; ok {
		if err := json.Unmarshal(v, &snap.Token); err != nil {
			return Snapshot{}, fmt.Errorf("failed to parse legacy token: %w", err)
		}
	}
	if v, ok := raw[legacyUserKey]; ok {
		user, err := decodeLegacyUser(v)
		if err != nil {
			return Snapshot{}, err
		}
		snap.User = user
	}
	return snap, nil
}

// The legacy user entry was sometimes a JSON string holding the encoded object
func decodeLegacyUser(v json.RawMessage) (*model.AccountView, error) {
	var encoded string
	if err := json.Unmarshal(v, &encoded); err == nil {
		v = json.RawMessage(encoded)
	}
	if string(v) == "null" || len(v) == 0 {
		return nil, nil
	}
	var user model.AccountView
	if err := json.Unmarshal(v, &user); err != nil {
		return nil, fmt.Errorf("failed to parse legacy user: %w", err)
	}
	return &user, nil
}

// Save writes the snapshot atomically with mode 0600
func (s *FileStore) Save(snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set session file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
