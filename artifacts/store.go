// Package artifacts manages the session artifacts directory: screenshots,
// downloaded files, extracted images, and the execution log all live under
// one flat root, and every path handed to the model is relative to it.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/BaSui01/visionagent/tools"
)

const executionLogName = "execution_log.json"

// Store is a flat, session-scoped artifact directory.
type Store struct {
	root   string
	logger *zap.Logger
}

// NewStore creates the artifacts directory if needed. root should already be
// session-scoped (for example <artifacts_dir>/<session_id>).
func NewStore(root string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifacts dir: %w", err)
	}
	return &Store{root: root, logger: logger}, nil
}

// Root returns the absolute artifacts directory.
func (s *Store) Root() string { return s.root }

// Normalize flattens a model-supplied output path to a bare file name under
// the root. Directory components are stripped, never created: the store is a
// single level deep regardless of what path the model invents.
func (s *Store) Normalize(path string) string {
	name := filepath.Base(filepath.Clean(path))
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "unnamed"
	}
	return name
}

// AbsPath returns the absolute location for a (normalized) artifact name.
func (s *Store) AbsPath(name string) string {
	return filepath.Join(s.root, s.Normalize(name))
}

// Save writes an artifact and returns its root-relative path.
func (s *Store) Save(name string, data []byte) (string, error) {
	name = s.Normalize(name)
	abs := filepath.Join(s.root, name)
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", fmt.Errorf("save artifact %s: %w", name, err)
	}
	s.logger.Debug("artifact saved", zap.String("name", name), zap.Int("bytes", len(data)))
	return name, nil
}

// ResolveInput locates an existing file for a model-supplied input path. The
// model often repeats paths with invented directory prefixes, so after the
// literal path the search falls back to the bare name under the artifacts
// root and the working directory.
func (s *Store) ResolveInput(path string) (string, error) {
	candidates := []string{
		path,
		filepath.Join(s.root, path),
		filepath.Join(s.root, s.Normalize(path)),
		s.Normalize(path),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", tools.NewToolError(tools.ErrKindNotFound, "file %q not found in artifacts", path)
}

// SaveExecutionLog overwrites the session's execution log snapshot.
func (s *Store) SaveExecutionLog(data []byte) error {
	return os.WriteFile(filepath.Join(s.root, executionLogName), data, 0o644)
}
