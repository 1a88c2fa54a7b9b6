package settings

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/machenxing/bionic/core/errors"
)

// Repository loads and saves settings. Callers inject the implementation so
// the storage location never leaks into the transform layers.
type Repository interface {
	Load() (Settings, error)
	Save(Settings) error
}

// FileRepository persists settings as a JSON file.
type FileRepository struct {
	Path string
}

// NewFileRepository creates a repository backed by the given path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{Path: path}
}

// DefaultPath returns the per-user settings file location,
// <user config dir>/bionic/config.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "resolving user config directory")
	}
	return filepath.Join(dir, "bionic", "config.json"), nil
}

// Load reads settings from disk. A missing file yields the defaults; a
// corrupt file is a ParseError. Loaded values are clamped into range.
func (r *FileRepository) Load() (Settings, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Settings{}, errors.NewIO("read", r.Path, err)
	}

	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, &errors.ParseError{Format: "settings", Path: r.Path, Message: err.Error(), Err: err}
	}
	s.Clamp()
	return s, nil
}

// Save writes settings to disk atomically, creating parent directories as
// needed.
func (r *FileRepository) Save(s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding settings")
	}
	data = append(data, '\n')

	dir := filepath.Dir(r.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewIO("create", dir, err)
	}

	// Write via temp file and rename so a crash never truncates the config.
	tmp, err := os.CreateTemp(dir, ".config-*")
	if err != nil {
		return errors.NewIO("create", dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.NewIO("write", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("close", tmpPath, err)
	}
	if err := os.Rename(tmpPath, r.Path); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("rename", tmpPath, err)
	}
	return nil
}
