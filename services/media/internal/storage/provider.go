package storage

import (
	"fmt"

	"github.com/appetiteclub/apt"
)

const (
	BackendLocal = "local"
	BackendNoop  = "noop"
)

// Settings selects and configures the blob backend for uploaded images.
type Settings struct {
	Backend   string
	Directory string
}

// SettingsFromConfig reads storage.backend and storage.local.directory.
func SettingsFromConfig(config *apt.Config) Settings {
	return Settings{
		Backend:   config.GetStringOrDef("storage.backend", BackendLocal),
		Directory: config.GetStringOrDef("storage.local.directory", DefaultDirectory),
	}
}

// Open builds the backend named by s.
func (s Settings) Open() (MediaStorage, error) {
	switch s.Backend {
	case "", BackendLocal:
		local, err := NewLocalBackend(s.Directory)
		if err != nil {
			return nil, fmt.Errorf("local media storage at %q: %w", s.Directory, err)
		}
		return local, nil
	case BackendNoop:
		return NewNoopBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported media storage backend %q", s.Backend)
	}
}
