// Package images validates, stores and describes uploaded recipe images.
package images

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// RecipeSubdir is where recipe images live, relative to the media root.
const RecipeSubdir = "uploads/recipe"

// Storage manages image filesystem operations under one subdirectory of the media root.
// Thread-safe for concurrent operations.
type Storage struct {
	root   string // media root, served at /static/media/
	subdir string // slash-separated, relative to root
	dir    string // root joined with subdir
	mu     sync.RWMutex
}

// NewStorage creates a Storage for recipe images under mediaRoot.
func NewStorage(mediaRoot string) (*Storage, error) {
	return NewStorageWithSubdir(mediaRoot, RecipeSubdir)
}

// NewStorageWithSubdir creates a Storage whose files live in {mediaRoot}/{subdir}/.
func NewStorageWithSubdir(mediaRoot, subdir string) (*Storage, error) {
	if mediaRoot == "" {
		return nil, errors.New("media root cannot be empty")
	}
	if subdir == "" {
		return nil, errors.New("subdirectory cannot be empty")
	}

	dir := filepath.Join(mediaRoot, filepath.FromSlash(subdir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", subdir, err)
	}

	return &Storage{root: mediaRoot, subdir: subdir, dir: dir}, nil
}

// Root returns the media root directory.
func (s *Storage) Root() string {
	return s.root
}

// Save writes data under name, replacing any existing file.
// The write goes through a temp file so readers never see a partial image.
func (s *Storage) Save(name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write image file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write image file: %w", err)
	}
	//nolint:gosec // media is world-readable through the static route anyway
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod image file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("move image file: %w", err)
	}
	return nil
}

// Get reads the image stored under name.
func (s *Storage) Get(name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image %s not found: %w", name, err)
		}
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

// Exists reports whether an image is stored under name.
func (s *Storage) Exists(name string) bool {
	if checkName(name) != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.path(name))
	return err == nil
}

// Delete removes the image stored under name. Missing files are not an error.
func (s *Storage) Delete(name string) error {
	if err := checkName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

// RelPath returns the media-root-relative path recorded for name,
// e.g. "uploads/recipe/<name>".
func (s *Storage) RelPath(name string) string {
	return path.Join(s.subdir, name)
}

// NameFromRelPath is the inverse of RelPath. It returns "" for paths outside this storage.
func (s *Storage) NameFromRelPath(rel string) string {
	dir, name := path.Split(rel)
	if strings.TrimSuffix(dir, "/") != s.subdir || checkName(name) != nil {
		return ""
	}
	return name
}

// Path returns the filesystem path of name.
func (s *Storage) Path(name string) string {
	return s.path(name)
}

func (s *Storage) path(name string) string {
	return filepath.Join(s.dir, name)
}

// checkName rejects names that would escape the storage directory.
func checkName(name string) error {
	if name == "" {
		return errors.New("image name cannot be empty")
	}
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid image name %q", name)
	}
	return nil
}
