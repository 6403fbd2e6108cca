package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"pizza-rush/internal/editor"
	"pizza-rush/internal/game"
	"pizza-rush/internal/render"
)

// maxLevelUpload caps uploaded level JSON at 2 MB.
const maxLevelUpload = 2 << 20

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.GetSnapshot())
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.GetSnapshot()
	writeJSON(w, map[string]interface{}{
		"tick":      h.engine.TickCount(),
		"sequence":  snap.Sequence,
		"editor":    snap.EditorMode,
		"obstacles": len(snap.Obstacles),
		"eventLog":  h.engine.EventLogStats(),
	})
}

func (h *routerHandlers) handleInput(w http.ResponseWriter, r *http.Request) {
	var in game.InputState
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, "Invalid input", http.StatusBadRequest)
		return
	}
	h.engine.ApplyInput(in)
	w.WriteHeader(http.StatusNoContent)
}

func (h *routerHandlers) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p := h.engine.Profile()
	ordered := game.OrderedUpgradeTracks()

	costs := make(map[string]int, len(ordered))
	tracks := make([]map[string]interface{}, 0, len(ordered))
	for _, tr := range ordered {
		cost := h.engine.UpgradeCost(tr.ID)
		costs[tr.ID] = cost
		tracks = append(tracks, map[string]interface{}{
			"id":       tr.ID,
			"name":     tr.Name,
			"level":    p.Upgrades[tr.ID],
			"maxLevel": tr.MaxLevel,
			"cost":     cost,
		})
	}
	writeJSON(w, map[string]interface{}{
		"profile":      p,
		"upgradeCosts": costs,
		"tracks":       tracks,
	})
}

func (h *routerHandlers) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Track string `json:"track"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Track == "" {
		writeError(w, "Track is required", http.StatusBadRequest)
		return
	}
	if _, ok := game.UpgradeTracks[req.Track]; !ok {
		writeError(w, "Unknown track", http.StatusBadRequest)
		return
	}
	if !h.engine.PurchaseUpgrade(req.Track) {
		writeError(w, "Cannot afford or maxed out", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]interface{}{"ok": true, "profile": h.engine.Profile()})
}

func (h *routerHandlers) handleGetRuns(w http.ResponseWriter, r *http.Request) {
	n := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			n = parsed
		}
	}
	writeJSON(w, h.engine.TopRuns(n))
}

func (h *routerHandlers) handleFinishRun(w http.ResponseWriter, r *http.Request) {
	key := h.engine.FinishRun()
	writeJSON(w, map[string]interface{}{"key": key})
}

func (h *routerHandlers) handleDownloadLevel(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "city"
	}
	data, err := h.engine.ExportLevel(name)
	if err != nil {
		writeError(w, "Export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.json"`)
	w.Write(data)
}

func (h *routerHandlers) handleUploadLevel(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxLevelUpload))
	if err != nil {
		writeError(w, "Read failed", http.StatusBadRequest)
		return
	}
	if err := h.engine.ImportLevel(data); err != nil {
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, map[string]interface{}{"ok": true})
}

func (h *routerHandlers) handleMinimap(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.GetSnapshot()
	m := render.NewMinimap(512, 250)
	png, err := m.Render(h.engine.City(), snap, snap.Rider.X, snap.Rider.Z)
	if err != nil {
		writeError(w, "Render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (h *routerHandlers) handleEditorEnter(w http.ResponseWriter, r *http.Request) {
	h.engine.EnterEditor()
	writeJSON(w, map[string]interface{}{"editor": true})
}

func (h *routerHandlers) handleEditorExit(w http.ResponseWriter, r *http.Request) {
	h.engine.ExitEditor()
	writeJSON(w, map[string]interface{}{"editor": false})
}

func (h *routerHandlers) handleEditorAction(w http.ResponseWriter, r *http.Request) {
	var a editor.Action
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, "Invalid action", http.StatusBadRequest)
		return
	}
	if err := h.engine.ApplyEditorAction(a); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, map[string]interface{}{"ok": true})
}

func (h *routerHandlers) handleEditorUndo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{"undone": h.engine.EditorUndo()})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
