// Package settings reads the user-editable run settings.
package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"go-jobfilter-automation/internal/config"
)

// APIKeyEnv overrides the classifier key stored in the file.
const APIKeyEnv = "CLASSIFIER_API_KEY"

type Store interface {
	Load(ctx context.Context) (config.Settings, error)
}

// FileStore keeps settings in a YAML file. The file is reread on every Load.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns the stored settings. A missing file yields empty settings,
// which run with the default page limits.
func (s *FileStore) Load(ctx context.Context) (config.Settings, error) {
	if err := ctx.Err(); err != nil {
		return config.Settings{}, err
	}

	st, err := s.read()
	if err != nil {
		return config.Settings{}, err
	}
	if key := os.Getenv(APIKeyEnv); key != "" {
		st.ClassifierAPIKey = key
	}
	return st, nil
}

// Save writes settings back to the file. An empty API key keeps the one
// already stored.
func (s *FileStore) Save(ctx context.Context, st config.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if st.ClassifierAPIKey == "" {
		current, err := s.read()
		if err != nil {
			return err
		}
		st.ClassifierAPIKey = current.ClassifierAPIKey
	}

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// read loads the file as stored, without env overrides.
func (s *FileStore) read() (config.Settings, error) {
	var st config.Settings
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return config.Settings{}, fmt.Errorf("read settings: %w", err)
	default:
		if err := yaml.Unmarshal(data, &st); err != nil {
			return config.Settings{}, fmt.Errorf("parse settings %s: %w", s.path, err)
		}
	}
	return st, nil
}
