package upload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fileupload/internal/logging"
)

// ErrInvalidName is returned for file names that would leave the upload directory.
var ErrInvalidName = errors.New("upload: invalid file name")

// All returns the names of the entries directly under the upload directory.
func (p *Plugin) All() ([]string, error) {
	cfg, err := p.Effective()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("read upload directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// Read returns the contents of a stored file. name is relative to the upload directory.
func (p *Plugin) Read(name string) ([]byte, error) {
	fp, err := p.locate(name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(fp)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return b, nil
}

// Delete removes a stored file. name is relative to the upload directory.
func (p *Plugin) Delete(name string) error {
	fp, err := p.locate(name)
	if err != nil {
		return err
	}
	if err := os.Remove(fp); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	logging.Info("upload_deleted", logging.Fields{"path": fp})
	return nil
}

func (p *Plugin) locate(name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.Contains(name, "..") || strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	cfg, err := p.Effective()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg.Directory, filepath.FromSlash(name)), nil
}
