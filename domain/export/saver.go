package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Saver delivers an artifact to its destination and returns where it went.
type Saver interface {
	Save(ctx context.Context, a Artifact) (string, error)
}

// FileSaver writes artifacts into Dir, replacing any previous file of the same name.
type FileSaver struct{ Dir string }

func (s FileSaver) Save(ctx context.Context, a Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if a.Name == "" || filepath.Base(a.Name) != a.Name {
		return "", fmt.Errorf("save: invalid artifact name %q", a.Name)
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	path := filepath.Join(dir, a.Name)
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	return path, nil
}
