package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrTooLarge is returned by Save when the stream exceeds the size limit.
// The partial file is removed before returning.
var ErrTooLarge = errors.New("file exceeds size limit")

type FileEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	URL   string `json:"url,omitempty"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size,omitempty"`
}

var movieExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mkv": true, ".mov": true, ".wmv": true,
}

var subtitleExtensions = map[string]bool{
	".srt": true, ".vtt": true, ".ass": true, ".ssa": true, ".sub": true,
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
}

// Ext returns the lowercased extension of name, including the dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

func IsMovieFile(name string) bool {
	return movieExtensions[Ext(name)]
}

func IsSubtitleFile(name string) bool {
	return subtitleExtensions[Ext(name)]
}

func IsImageFile(name string) bool {
	return imageExtensions[Ext(name)]
}

// StoredFile describes a file written by Store.Save
type StoredFile struct {
	Name string `json:"name"`
	Path string `json:"path"` // absolute filesystem path
	URL  string `json:"url"`  // public path, e.g. /uploads/translator/<name>
	Size int64  `json:"size"`
}

// Store writes uploads into a single directory under generated names.
type Store struct {
	root      string
	urlPrefix string
}

func NewStore(root, urlPrefix string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{root: root, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

func (s *Store) Root() string {
	return s.root
}

// Save copies r into a new file named <uuid><ext>. Existing files are never
// overwritten. maxBytes <= 0 disables the size check.
func (s *Store) Save(ext string, r io.Reader, maxBytes int64) (*StoredFile, error) {
	name := uuid.NewString() + strings.ToLower(ext)
	fullPath := filepath.Join(s.root, name)

	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("write %s: %w", name, err)
	}
	if maxBytes > 0 && n > maxBytes {
		os.Remove(fullPath)
		return nil, ErrTooLarge
	}

	return &StoredFile{
		Name: name,
		Path: fullPath,
		URL:  s.URL(name),
		Size: n,
	}, nil
}

// URL returns the public path of a stored file name.
func (s *Store) URL(name string) string {
	return path.Join(s.urlPrefix, name)
}

// Remove deletes a stored file by name or URL. Missing files are not an error.
func (s *Store) Remove(nameOrURL string) error {
	if nameOrURL == "" {
		return nil
	}
	name := path.Base(nameOrURL)
	if name == "." || name == "/" || name == ".." {
		return os.ErrPermission
	}
	err := os.Remove(filepath.Join(s.root, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns the stored files, skipping hidden entries.
func (s *Store) List() ([]*FileEntry, error) {
	entries, err := ListDirectory(s.root, ".")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		e.URL = s.URL(e.Name)
	}
	return entries, nil
}

func ListDirectory(basePath, relativePath string) ([]*FileEntry, error) {
	fullPath := filepath.Join(basePath, relativePath)

	// Prevent path traversal
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}
	absFull, err := filepath.Abs(fullPath)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(absFull, absBase) {
		return nil, os.ErrPermission
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, err
	}

	result := make([]*FileEntry, 0, len(entries))
	for _, entry := range entries {
		// Skip hidden files
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		fe := &FileEntry{
			Name:  entry.Name(),
			Path:  filepath.Join(relativePath, entry.Name()),
			IsDir: entry.IsDir(),
		}
		if !entry.IsDir() {
			fe.Size = info.Size()
		}
		result = append(result, fe)
	}
	return result, nil
}
