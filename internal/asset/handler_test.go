package asset

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	return img
}

func TestSaveAndServe(t *testing.T) {
	h := NewHandler(t.TempDir())
	a, err := h.Save(testImage())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(a.ID, "asset_") || a.Width != 4 || a.Height != 3 {
		t.Errorf("asset = %+v", a)
	}

	rec := httptest.NewRecorder()
	h.Serve().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, a.URL, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Cache-Control"), "immutable") {
		t.Errorf("cache-control = %q", rec.Header().Get("Cache-Control"))
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := img.At(1, 1).RGBA(); r != 0xffff {
		t.Errorf("pixel lost in round trip")
	}

	ids, err := h.List()
	if err != nil || len(ids) != 1 || ids[0] != a.ID {
		t.Errorf("List = %v, %v", ids, err)
	}
}

func TestDelete(t *testing.T) {
	h := NewHandler(t.TempDir())
	a, _ := h.Save(testImage())

	r := mux.NewRouter()
	r.HandleFunc("/assets/{assetId}", h.HandleDelete).Methods("DELETE")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/assets/"+a.ID, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if err := h.Delete(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
	if err := h.Delete("../scene"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("path-like id: %v", err)
	}
}
