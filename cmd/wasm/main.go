//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/pixeldraft/internal/document"
	"github.com/inamate/pixeldraft/internal/engine"
	"github.com/inamate/pixeldraft/internal/geom"
	"github.com/inamate/pixeldraft/internal/hittest"
)

var eng *engine.Engine

func main() {
	width, height := 1000, 700
	if w := js.Global().Get("pixeldraftCanvasWidth"); w.Type() == js.TypeNumber {
		width = w.Int()
	}
	if h := js.Global().Get("pixeldraftCanvasHeight"); h.Type() == js.TypeNumber {
		height = h.Int()
	}
	eng = engine.NewEngine(engine.Options{
		Width:     width,
		Height:    height,
		GridStep:  20,
		Tolerance: hittest.DefaultTolerance(),
	})

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("loadScene", js.FuncOf(loadScene))
	api.Set("loadSampleScene", js.FuncOf(loadSampleScene))
	api.Set("setTool", js.FuncOf(setTool))
	api.Set("click", js.FuncOf(click))
	api.Set("cancel", js.FuncOf(cancel))
	api.Set("deleteSelected", js.FuncOf(deleteSelected))
	api.Set("toggleGrid", js.FuncOf(toggleGrid))

	// --- Queries (frontend ← engine) ---
	api.Set("render", js.FuncOf(render))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	api.Set("getScene", js.FuncOf(getScene))
	api.Set("getStatus", js.FuncOf(getStatus))

	js.Global().Set("pixeldraftEngine", api)
	js.Global().Set("pixeldraftWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorValue(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func okValue() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// --- Command Handlers ---

func loadScene(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing scene JSON"})
	}
	shapes, warnings, err := document.DecodeScene([]byte(args[0].String()))
	if err != nil {
		return errorValue(err)
	}
	eng.Load(shapes, warnings)
	return js.ValueOf(map[string]interface{}{"ok": true, "skipped": len(warnings)})
}

func loadSampleScene(this js.Value, args []js.Value) interface{} {
	eng.LoadSample()
	return okValue()
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing tool"})
	}
	if err := eng.SetTool(args[0].String()); err != nil {
		return errorValue(err)
	}
	return okValue()
}

// click takes device coordinates from the canvas mouse event.
func click(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	res, err := eng.Click(geom.Pt(args[0].Float(), args[1].Float()))
	if err != nil {
		return errorValue(err)
	}
	data, _ := json.Marshal(res)
	return js.ValueOf(string(data))
}

func cancel(this js.Value, args []js.Value) interface{} {
	eng.Cancel()
	return nil
}

func deleteSelected(this js.Value, args []js.Value) interface{} {
	id, err := eng.DeleteSelected()
	if err != nil {
		return errorValue(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "id": id})
}

func toggleGrid(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.ToggleGrid())
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.RenderJSON())
}

// hitTest takes device coordinates.
func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	p := eng.Mapper().ScreenToLogical(geom.Pt(args[0].Float(), args[1].Float()))
	id, _, ok := eng.HitTest(p)
	if !ok {
		return js.ValueOf("")
	}
	return js.ValueOf(id)
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(engine.RectToJSON(eng.SelectionBounds()))
}

func getScene(this js.Value, args []js.Value) interface{} {
	data, err := document.EncodeScene(eng.Shapes())
	if err != nil {
		return errorValue(err)
	}
	return js.ValueOf(string(data))
}

func getStatus(this js.Value, args []js.Value) interface{} {
	data, _ := json.Marshal(map[string]interface{}{
		"status": eng.Status(),
		"state":  eng.State(),
		"grid":   eng.GridVisible(),
	})
	return js.ValueOf(string(data))
}
