package asset

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/inamate/pixeldraft/internal/typeid"
)

var ErrNotFound = errors.New("asset not found")

// Asset describes a stored export.
type Asset struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type"`
}

// Handler keeps rendered canvas images on disk and serves them back.
type Handler struct {
	dir string // directory to store asset files
}

// NewHandler creates a new asset handler that stores files in dir.
func NewHandler(dir string) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

// Save encodes img as PNG under a fresh asset id.
func (h *Handler) Save(img image.Image) (Asset, error) {
	assetID := typeid.NewAssetID()
	filename := assetID + ".png"
	filePath := filepath.Join(h.dir, filename)

	out, err := os.Create(filePath)
	if err != nil {
		return Asset{}, fmt.Errorf("create asset file: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(filePath)
		return Asset{}, fmt.Errorf("encode png: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(filePath)
		return Asset{}, fmt.Errorf("close asset file: %w", err)
	}

	b := img.Bounds()
	slog.Info("asset saved", "id", assetID, "width", b.Dx(), "height", b.Dy())
	return Asset{
		ID:     assetID,
		URL:    fmt.Sprintf("/assets/%s", filename),
		Width:  b.Dx(),
		Height: b.Dy(),
		Type:   "png",
	}, nil
}

// List returns the ids of stored assets.
func (h *Handler) List() ([]string, error) {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		return nil, fmt.Errorf("read asset dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".png") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".png"))
	}
	return ids, nil
}

// Serve returns an http.Handler that serves stored asset files with caching headers.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Asset IDs are unique, so files are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// Delete removes an asset file from disk.
func (h *Handler) Delete(assetID string) error {
	if err := typeid.Validate(assetID, typeid.Asset); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	if err := os.Remove(filepath.Join(h.dir, assetID+".png")); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, assetID)
		}
		return fmt.Errorf("delete asset: %w", err)
	}
	return nil
}

// HandleDelete handles DELETE /assets/{assetId}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["assetId"]
	if err := h.Delete(id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, "asset not found", http.StatusNotFound)
		case errors.Is(err, typeid.ErrInvalid):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			slog.Error("delete asset", "id", id, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
