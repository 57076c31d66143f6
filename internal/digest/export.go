package digest

import (
	"fmt"
	"os"
	"path/filepath"
)

// Export writes d in the named format. An out path ending in a separator or
// naming an existing directory gets the suggested file name appended. The
// written path is returned.
func Export(d *Digest, format, out string) (string, error) {
	f, err := FormatterFor(format)
	if err != nil {
		return "", err
	}
	path := out
	if path == "" {
		path = "."
	}
	if info, err := os.Stat(path); (err == nil && info.IsDir()) || os.IsPathSeparator(path[len(path)-1]) {
		path = filepath.Join(path, Filename(d, f))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	if err := f.Format(file, d); err != nil {
		file.Close()
		return "", fmt.Errorf("writing %s export: %w", f.Ext(), err)
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	return path, nil
}
