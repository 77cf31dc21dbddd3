package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Resolve joins a relative path onto base. Absolute paths and an empty base
// leave path unchanged.
func Resolve(base, path string) string {
	if base == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// Create opens path for writing, resolved against base, creating missing
// parent directories.
func Create(base, path string) (*os.File, error) {
	full := Resolve(base, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return os.Create(full)
}

// ToFile runs write against a freshly created file and returns the resolved
// path.
func ToFile(base, path string, write func(io.Writer) error) (string, error) {
	f, err := Create(base, path)
	if err != nil {
		return "", err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return "", err
	}
	return f.Name(), f.Close()
}
