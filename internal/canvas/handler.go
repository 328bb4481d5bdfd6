package canvas

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/inamate/pixeldraft/internal/auth"
	"github.com/inamate/pixeldraft/internal/collab"
	"github.com/inamate/pixeldraft/internal/db"
	"github.com/inamate/pixeldraft/internal/document"
	"github.com/inamate/pixeldraft/internal/engine"
	"github.com/inamate/pixeldraft/internal/geom"
	"github.com/inamate/pixeldraft/internal/gesture"
	"github.com/inamate/pixeldraft/internal/raster"
	"github.com/inamate/pixeldraft/internal/scene"
)

const maxSceneSize = 4 << 20 // 4MB

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes registers the canvas API on r.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/scene", h.GetScene).Methods("GET")
	r.HandleFunc("/scene", h.ReplaceScene).Methods("PUT")
	r.HandleFunc("/scene/sample", h.LoadSample).Methods("POST")
	r.HandleFunc("/scene/render", h.Render).Methods("GET")
	r.HandleFunc("/scene/snapshots", h.ListSnapshots).Methods("GET")

	r.HandleFunc("/shapes", h.CreateShape).Methods("POST")
	r.HandleFunc("/shapes/{id:[0-9]+}", h.GetShape).Methods("GET")
	r.HandleFunc("/shapes/{id:[0-9]+}", h.DeleteShape).Methods("DELETE")
	r.HandleFunc("/shapes/{id:[0-9]+}/transforms", h.Transform).Methods("POST")
	r.HandleFunc("/shapes/{id:[0-9]+}/bake", h.Bake).Methods("POST")
	r.HandleFunc("/shapes/{id:[0-9]+}/style", h.EditStyle).Methods("PATCH")
	r.HandleFunc("/shapes/{id:[0-9]+}/pixels", h.Pixels).Methods("GET")

	r.HandleFunc("/hit-test", h.HitTest).Methods("POST")
	r.HandleFunc("/selection", h.Select).Methods("PUT")
	r.HandleFunc("/selection", h.ClearSelection).Methods("DELETE")

	r.HandleFunc("/gesture/tool", h.SetTool).Methods("POST")
	r.HandleFunc("/gesture/click", h.Click).Methods("POST")
	r.HandleFunc("/gesture/cancel", h.Cancel).Methods("POST")

	r.HandleFunc("/brush", h.SetBrush).Methods("POST")
	r.HandleFunc("/grid/toggle", h.ToggleGrid).Methods("POST")
	r.HandleFunc("/status", h.Status).Methods("GET")
}

type pointRequest struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Logical bool    `json:"logical"`
}

type toolRequest struct {
	Tool string `json:"tool"`
}

type selectRequest struct {
	ID int `json:"id"`
}

func (h *Handler) GetScene(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.SceneJSON()
	if err != nil {
		handleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ReplaceScene takes a full scene document. Malformed records are skipped
// and listed in the response.
func (h *Handler) ReplaceScene(w http.ResponseWriter, r *http.Request) {
	var doc json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSceneSize)).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	h.submit(w, r, collab.Operation{Type: collab.OpSceneReplace, Scene: doc}, http.StatusOK)
}

func (h *Handler) LoadSample(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.LoadSample(r.Context(), operator(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.View())
}

func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be 1-500"})
			return
		}
		limit = n
	}
	snaps, err := h.service.Snapshots(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if snaps == nil {
		snaps = []db.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (h *Handler) CreateShape(w http.ResponseWriter, r *http.Request) {
	var shape json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&shape); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	h.submit(w, r, collab.Operation{Type: collab.OpShapeCreate, Shape: shape}, http.StatusCreated)
}

func (h *Handler) GetShape(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Shape(shapeID(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) DeleteShape(w http.ResponseWriter, r *http.Request) {
	id := shapeID(r)
	if _, err := h.service.Submit(r.Context(), collab.Operation{Type: collab.OpShapeDelete, ShapeID: &id}, operator(r)); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Transform(w http.ResponseWriter, r *http.Request) {
	var t json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	id := shapeID(r)
	h.submit(w, r, collab.Operation{Type: collab.OpShapeTransform, ShapeID: &id, Transform: t}, http.StatusOK)
}

func (h *Handler) Bake(w http.ResponseWriter, r *http.Request) {
	id := shapeID(r)
	h.submit(w, r, collab.Operation{Type: collab.OpShapeBake, ShapeID: &id}, http.StatusOK)
}

func (h *Handler) EditStyle(w http.ResponseWriter, r *http.Request) {
	var style json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&style); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	id := shapeID(r)
	h.submit(w, r, collab.Operation{Type: collab.OpShapeStyle, ShapeID: &id, Style: style}, http.StatusOK)
}

func (h *Handler) Pixels(w http.ResponseWriter, r *http.Request) {
	px, err := h.service.Pixels(shapeID(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	out := make([][2]int, len(px))
	for i, p := range px {
		out[i] = [2]int{p.X, p.Y}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pixels": out})
}

// HitTest takes a logical point.
func (h *Handler) HitTest(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	writeJSON(w, http.StatusOK, h.service.HitTest(geom.Pt(req.X, req.Y)))
}

func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.service.Select(&req.ID); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Status())
}

func (h *Handler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.service.Select(nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetTool(w http.ResponseWriter, r *http.Request) {
	var req toolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if _, err := h.service.SetTool(req.Tool); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Status())
}

// Click takes a device point unless logical is set.
func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	res, err := h.service.Click(r.Context(), geom.Pt(req.X, req.Y), req.Logical, operator(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.service.Cancel()
	writeJSON(w, http.StatusOK, h.service.Status())
}

func (h *Handler) SetBrush(w http.ResponseWriter, r *http.Request) {
	var req BrushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	b, err := h.service.SetBrush(req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, brushReport(b))
}

func (h *Handler) ToggleGrid(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"grid": h.service.ToggleGrid()})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Status())
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, op collab.Operation, status int) {
	result, err := h.service.Submit(r.Context(), op, operator(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(result)
}

// shapeID reads the route id; the route pattern guarantees digits.
func shapeID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func operator(r *http.Request) string {
	if name := auth.OperatorFromContext(r.Context()); name != "" {
		return name
	}
	return "anonymous"
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scene.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, engine.ErrNoSelection),
		errors.Is(err, gesture.ErrIdle):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrUnknownOp),
		errors.Is(err, engine.ErrOffCanvas),
		errors.Is(err, gesture.ErrUnknownTool),
		errors.Is(err, raster.ErrUnknownAlgorithm),
		errors.Is(err, document.ErrInvalidGeometry),
		errors.Is(err, document.ErrInvalidStyle),
		errors.Is(err, document.ErrInvalidTransform),
		errors.Is(err, document.ErrMalformedRecord),
		errors.Is(err, document.ErrMalformedScene):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
