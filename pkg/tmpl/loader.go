package tmpl

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Loader returns template source by name.
type Loader interface {
	Load(name string) (string, error)
}

type MemoryLoader map[string]string

func (m MemoryLoader) Load(name string) (string, error) {
	if s, ok := m[name]; ok {
		return s, nil
	}
	return "", ErrTemplateNotFound{name}
}

// DirLoader loads templates from files below a set of directories; the
// first directory containing the name wins.
type DirLoader []string

func (d DirLoader) Load(name string) (string, error) {
	for _, dir := range d {
		b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return "", ErrTemplateNotFound{name}
}
