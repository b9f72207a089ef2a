package media

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// CacheControl is sent with every served image.
const CacheControl = "public, max-age=86400"

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ContentType maps an image filename to its MIME type.
func ContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// StaticHandler serves files from one directory. Mount it on a "/*" pattern.
type StaticHandler struct {
	dir string
}

// NewStaticHandler serves files under dir.
func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{dir: dir}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", ContentType(name))
	w.Header().Set("Cache-Control", CacheControl)
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// Register mounts /images/* and /thumbnails/* on r.
func (s *Service) Register(r chi.Router) {
	r.Get("/images/*", NewStaticHandler(s.imagesDir).ServeHTTP)
	r.Get("/thumbnails/*", NewStaticHandler(s.thumbsDir).ServeHTTP)
}
