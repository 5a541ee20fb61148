// Package grammarsource provides ports.GrammarSource implementations over an
// fs.FS (embedded data) and over a memory-mapped directory on disk.
package grammarsource

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/baditaflorin/go_text_normalization/internal/ports"
	"github.com/edsrzf/mmap-go"
)

// FSSource reads grammar files from an fs.FS.
type FSSource struct {
	fsys fs.FS
}

// FromFS wraps fsys.
func FromFS(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// Read implements ports.GrammarSource.
func (s *FSSource) Read(name string, fn func([]byte) error) error {
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return err
	}
	return fn(data)
}

// DirSource maps grammar files from a directory read-only while they are
// parsed.
type DirSource struct {
	root string
}

// FromDir returns a source rooted at dir.
func FromDir(dir string) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("grammar dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("grammar dir %s: not a directory", dir)
	}
	return &DirSource{root: dir}, nil
}

// Read implements ports.GrammarSource.
func (s *DirSource) Read(name string, fn func([]byte) error) error {
	if !fs.ValidPath(name) || strings.Contains(name, `\`) {
		return &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	file, err := os.Open(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return fn(nil)
	}
	m, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return fmt.Errorf("mmap %s: %w", name, err)
	}
	ferr := fn(m)
	if err := m.Unmap(); err != nil && ferr == nil {
		return fmt.Errorf("unmap %s: %w", name, err)
	}
	return ferr
}

// Chain tries each source in order and returns the first that has the file.
type Chain []ports.GrammarSource

// Read implements ports.GrammarSource.
func (c Chain) Read(name string, fn func([]byte) error) error {
	for _, s := range c {
		err := s.Read(name, fn)
		if err == nil || !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}
