package export

import (
	"bytes"
	"encoding/json"
	"image"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/inamate/pixeldraft/internal/asset"
)

const maxScale = 8

// Source supplies the current canvas view.
type Source interface {
	Frame() Frame
}

// Archive stores rendered images.
type Archive interface {
	Save(img image.Image) (asset.Asset, error)
}

type Handler struct {
	src     Source
	archive Archive
}

// NewHandler creates an export handler. archive may be nil, in which case
// ?save=1 is rejected.
func NewHandler(src Source, archive Archive) *Handler {
	return &Handler{src: src, archive: archive}
}

// ExportPNG handles GET /export/png. Query parameters: labels=1 draws
// shape ids, scale=N upscales, save=1 archives the image and returns its
// asset record instead of the bytes.
func (h *Handler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := DefaultOptions()
	opts.Labels = q.Get("labels") == "1"
	if s := q.Get("scale"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxScale {
			http.Error(w, "invalid scale: must be 1-8", http.StatusBadRequest)
			return
		}
		opts.Scale = n
	}

	img := Render(h.src.Frame(), opts)

	if q.Get("save") == "1" {
		if h.archive == nil {
			http.Error(w, "asset archive disabled", http.StatusNotImplemented)
			return
		}
		a, err := h.archive.Save(img)
		if err != nil {
			slog.Error("archive export", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(a)
		return
	}

	var buf bytes.Buffer
	if err := WritePNG(&buf, img); err != nil {
		slog.Error("export png", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="scene.png"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())

	slog.Info("export complete", "size", buf.Len(), "scale", opts.Scale)
}
