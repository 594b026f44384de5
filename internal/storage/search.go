package storage

import (
	"os"
	"path/filepath"
	"strings"
)

// Search walks the store for file names containing query (case-insensitive).
// An empty query matches everything.
func (s *Store) Search(query string, maxResults int) ([]*FileEntry, error) {
	query = strings.ToLower(query)
	results := make([]*FileEntry, 0)

	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip errors
		}
		if len(results) >= maxResults {
			return filepath.SkipAll
		}
		if path == s.root {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if strings.Contains(strings.ToLower(info.Name()), query) {
			rel, _ := filepath.Rel(s.root, path)
			results = append(results, &FileEntry{
				Name: info.Name(),
				Path: rel,
				URL:  s.URL(filepath.ToSlash(rel)),
				Size: info.Size(),
			})
		}
		return nil
	})
	return results, err
}
