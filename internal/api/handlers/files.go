package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cinehub/backoffice/internal/storage"
)

// FilesHandler lists and serves uploaded files.
type FilesHandler struct {
	translator *storage.Store
	roots      map[string]string // url prefix segment -> directory
}

// NewFilesHandler serves each store under /uploads/<segment>/.
func NewFilesHandler(translator *storage.Store, stores map[string]*storage.Store) *FilesHandler {
	roots := make(map[string]string, len(stores))
	for seg, s := range stores {
		roots[seg] = s.Root()
	}
	return &FilesHandler{translator: translator, roots: roots}
}

// ListUploads searches translator uploads by name (?q=).
func (h *FilesHandler) ListUploads(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := limitParam(r, "limit", 100)

	results, err := h.translator.Search(query, limit)
	if err != nil {
		fault500(w, "failed to list uploads", err)
		return
	}
	jsonResponse(w, map[string]interface{}{
		"query": query,
		"files": results,
		"count": len(results),
	}, http.StatusOK)
}

// Serve streams a stored file. Only flat names inside a known store are served.
func (h *FilesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/uploads/")
	seg, name, ok := strings.Cut(rest, "/")
	root, known := h.roots[seg]
	if !ok || !known || name == "" || strings.Contains(name, "/") || strings.HasPrefix(name, ".") {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(root, name))
}
