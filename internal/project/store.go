package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Paths locates the flat-file artifacts of a run.
type Paths struct {
	// CodeTemplate is the example server the first draft is modelled on.
	CodeTemplate string
	// ExecMain is the entry point of the generated project; it is what gets built.
	ExecMain string
	// APISchema receives the raw extracted endpoint JSON.
	APISchema string
}

// Store reads and writes the artifacts a run produces.
type Store struct {
	paths  Paths
	logger zerolog.Logger
}

// NewStore creates a new artifact store.
func NewStore(paths Paths, logger zerolog.Logger) *Store {
	return &Store{
		paths:  paths,
		logger: logger.With().Str("component", "project.store").Logger(),
	}
}

// Paths returns the configured artifact locations.
func (s *Store) Paths() Paths { return s.paths }

// ReadCodeTemplate returns the code template contents.
func (s *Store) ReadCodeTemplate() (string, error) {
	return readFile(s.paths.CodeTemplate)
}

// ReadExecMain returns the current contents of the generated entry point.
func (s *Store) ReadExecMain() (string, error) {
	return readFile(s.paths.ExecMain)
}

// SaveBackendCode overwrites the generated entry point.
func (s *Store) SaveBackendCode(code string) error {
	if err := writeFile(s.paths.ExecMain, []byte(code)); err != nil {
		return err
	}
	s.logger.Debug().Str("path", s.paths.ExecMain).Int("bytes", len(code)).Msg("backend code saved")
	return nil
}

// SaveAPIEndpoints writes the raw endpoint JSON exactly as the model returned it.
func (s *Store) SaveAPIEndpoints(raw string) error {
	if err := writeFile(s.paths.APISchema, []byte(raw)); err != nil {
		return err
	}
	s.logger.Debug().Str("path", s.paths.APISchema).Msg("api endpoints saved")
	return nil
}

// LoadAPIEndpoints reads back the saved endpoint JSON.
func (s *Store) LoadAPIEndpoints() ([]RouteObject, error) {
	raw, err := os.ReadFile(s.paths.APISchema)
	if err != nil {
		return nil, fmt.Errorf("read api schema: %w", err)
	}
	var routes []RouteObject
	if err := json.Unmarshal(raw, &routes); err != nil {
		return nil, fmt.Errorf("decode api schema %s: %w", s.paths.APISchema, err)
	}
	return routes, nil
}

func readFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("read file: empty path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}

func writeFile(path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("write file: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
