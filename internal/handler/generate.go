package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/faucetdb/crudgen/internal/codegen"
	"github.com/faucetdb/crudgen/internal/model"
	"github.com/faucetdb/crudgen/internal/prompt"
	"github.com/faucetdb/crudgen/internal/session"
)

// CodeGenerator produces code from table metadata. *llm.Generator
// implements it.
type CodeGenerator interface {
	GenerateCRUD(ctx context.Context, in prompt.CRUDInput) (string, error)
	GenerateLayer(ctx context.Context, layer, className, properties, framework string) (string, error)
}

// StreamConfig sets the artificial per-word delay of the display stream.
type StreamConfig struct {
	WordDelay       time.Duration
	SchemaWordDelay time.Duration
}

// GenerateHandler runs code generation against the session's fetched
// columns.
type GenerateHandler struct {
	store     *session.Store
	generator CodeGenerator
	outputDir string
	stream    StreamConfig
	logger    *slog.Logger
}

// NewGenerateHandler creates a new GenerateHandler. Layer files are written
// below outputDir.
func NewGenerateHandler(store *session.Store, generator CodeGenerator, outputDir string, stream StreamConfig, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{
		store:     store,
		generator: generator,
		outputDir: outputDir,
		stream:    stream,
		logger:    logger,
	}
}

// generateCRUDRequest is the body of POST /generate/crud. Slots defaults to
// the single-table slot. Relationship names a logical relationship key
// ("first-second") whose direction is passed to the prompt.
type generateCRUDRequest struct {
	Slots        []model.Slot `json:"slots"`
	Framework    string       `json:"framework"`
	Relationship string       `json:"relationship"`
}

type slotResult struct {
	Slot  model.Slot `json:"slot"`
	Table string     `json:"table"`
	Code  string     `json:"code"`
}

// GenerateCRUD generates a full CRUD stack for each requested slot, stores
// the code in the slot and appends it to the conversation history.
// POST /api/v1/generate/crud
func (h *GenerateHandler) GenerateCRUD(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSession(w, r)
	if !ok || !h.requireGenerator(w) {
		return
	}
	var req generateCRUDRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Slots) == 0 {
		req.Slots = []model.Slot{model.SlotDefault}
	}
	for _, s := range req.Slots {
		if !s.Valid() {
			writeError(w, http.StatusBadRequest, "Unknown slot: "+string(s))
			return
		}
	}
	framework, ok := resolveFramework(w, req.Framework, req.Slots[0] != model.SlotDefault)
	if !ok {
		return
	}

	ctx := r.Context()
	var direction string
	if chosen(req.Relationship) {
		rels, err := h.store.Relationships(ctx, id)
		if err != nil {
			writeFailure(w, err, "Failed to load relationships")
			return
		}
		rel, found := rels[req.Relationship]
		if !found {
			writeError(w, http.StatusNotFound, "Relationship not found: "+req.Relationship)
			return
		}
		direction = rel.Direction
	}

	// A pair request generates for whichever slots hold columns and fails
	// only when none do.
	type pendingSlot struct {
		slot model.Slot
		set  model.ColumnSet
	}
	pending := make([]pendingSlot, 0, len(req.Slots))
	for _, slot := range req.Slots {
		set, err := h.store.Columns(ctx, id, slot)
		if errors.Is(err, session.ErrNotFound) {
			if len(req.Slots) == 1 {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("Fetch columns for the %s table first", slot))
				return
			}
			continue
		}
		if err != nil {
			writeFailure(w, err, "Failed to load columns")
			return
		}
		pending = append(pending, pendingSlot{slot: slot, set: set})
	}
	if len(pending) == 0 {
		writeError(w, http.StatusBadRequest, "Fetch columns for at least one table first")
		return
	}

	results := make([]slotResult, 0, len(pending))
	for _, p := range pending {
		slot, set := p.slot, p.set
		code, err := h.generator.GenerateCRUD(ctx, prompt.CRUDInput{
			Properties:    set.PropertyNames(),
			Framework:     framework,
			Relationships: set.Relationships,
			Direction:     direction,
		})
		if err != nil {
			h.logger.Error("generate crud", "table", set.Table, "error", err)
			writeFailure(w, err, "Failed to generate code")
			return
		}
		if err := h.store.SetGeneratedCode(ctx, id, slot, framework, code); err != nil {
			writeFailure(w, err, "Failed to store generated code")
			return
		}
		if _, err := h.store.AppendHistory(ctx, id, framework, code); err != nil {
			writeFailure(w, err, "Failed to record history")
			return
		}
		results = append(results, slotResult{Slot: slot, Table: set.Table, Code: code})
	}

	history, err := h.store.History(ctx, id)
	if err != nil {
		writeFailure(w, err, "Failed to load history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"framework": framework,
		"resource":  results,
		"history":   history,
	})
}

// generateLayersRequest is the body of POST /generate/layers.
type generateLayersRequest struct {
	Slot      model.Slot `json:"slot"`
	ClassName string     `json:"class_name"`
	Framework string     `json:"framework"`
	Layers    []string   `json:"layers"`
	Save      *bool      `json:"save"`
}

type layerResult struct {
	Layer string `json:"layer"`
	Code  string `json:"code"`
	Path  string `json:"path,omitempty"`
}

// GenerateLayers generates each layer of a class separately and, unless
// save is false, writes every layer to its source file.
// POST /api/v1/generate/layers
func (h *GenerateHandler) GenerateLayers(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSession(w, r)
	if !ok || !h.requireGenerator(w) {
		return
	}
	var req generateLayersRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Slot == "" {
		req.Slot = model.SlotDefault
	}
	if !req.Slot.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown slot: "+string(req.Slot))
		return
	}
	if !codegen.ValidClassName(req.ClassName) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid class name: %q", req.ClassName))
		return
	}
	framework, ok := resolveFramework(w, req.Framework, false)
	if !ok {
		return
	}
	layers := req.Layers
	if len(layers) == 0 {
		layers = codegen.Layers
	}
	for _, l := range layers {
		if _, known := codegen.Folders[l]; !known {
			writeError(w, http.StatusBadRequest, "Unknown layer: "+l)
			return
		}
	}
	save := req.Save == nil || *req.Save

	ctx := r.Context()
	set, err := h.store.Columns(ctx, id, req.Slot)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusBadRequest, "Fetch columns first")
		return
	}
	if err != nil {
		writeFailure(w, err, "Failed to load columns")
		return
	}

	writer := codegen.NewWriter(h.outputDir, framework)
	results := make([]layerResult, 0, len(layers))
	blobs := make([]string, 0, len(layers))
	for _, layer := range layers {
		code, err := h.generator.GenerateLayer(ctx, layer, req.ClassName, set.PropertyNames(), framework)
		if err != nil {
			h.logger.Error("generate layer", "layer", layer, "class", req.ClassName, "error", err)
			writeFailure(w, err, "Failed to generate "+layer)
			return
		}
		res := layerResult{Layer: layer, Code: code}
		if save {
			if res.Path, err = writer.Save(layer, req.ClassName, code); err != nil {
				writeFailure(w, err, "Failed to save "+layer)
				return
			}
			h.logger.Info("layer saved", "layer", layer, "path", res.Path)
		}
		results = append(results, res)
		blobs = append(blobs, code)
	}

	combined := strings.Join(blobs, "\n\n")
	if err := h.store.SetGeneratedCode(ctx, id, req.Slot, framework, combined); err != nil {
		writeFailure(w, err, "Failed to store generated code")
		return
	}
	if _, err := h.store.AppendHistory(ctx, id, framework, combined); err != nil {
		writeFailure(w, err, "Failed to record history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"class_name": req.ClassName,
		"framework":  framework,
		"resource":   results,
	})
}

// Stream replays the latest generated code of a slot as Server-Sent
// Events, one word per event. The delay is cosmetic; the text is already
// complete. ?view=schema selects the schema editor's slower pace.
// GET /api/v1/generate/stream
func (h *GenerateHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSession(w, r)
	if !ok {
		return
	}
	slot, ok := querySlot(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown slot: "+queryString(r, "slot"))
		return
	}
	code, err := h.store.GeneratedCode(r.Context(), id, slot)
	if err != nil {
		writeFailure(w, err, "No generated code")
		return
	}

	delay := h.stream.WordDelay
	if queryString(r, "view") == "schema" {
		delay = h.stream.SchemaWordDelay
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)

	ctx := r.Context()
	for i, word := range streamWords(code) {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
		if err := writeEvent(w, "word", map[string]string{"text": word}); err != nil {
			return
		}
		rc.Flush()
	}
	writeEvent(w, "done", map[string]int{"chars": len(code)})
	rc.Flush()
}

// requireGenerator writes 503 when no generation model is configured.
func (h *GenerateHandler) requireGenerator(w http.ResponseWriter) bool {
	if h.generator == nil {
		writeError(w, http.StatusServiceUnavailable, "No generation model configured")
		return false
	}
	return true
}

// streamWords splits text on single spaces and keeps the separator on each
// word, so concatenating the events restores the text exactly.
func streamWords(text string) []string {
	parts := strings.Split(text, " ")
	for i := range parts[:len(parts)-1] {
		parts[i] += " "
	}
	return parts
}

func writeEvent(w http.ResponseWriter, event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}

// resolveFramework applies the per-flow default and validates the result.
// The schema editor flow defaults to .NET Core, everything else to Spring
// Boot.
func resolveFramework(w http.ResponseWriter, framework string, schemaFlow bool) (string, bool) {
	if !chosen(framework) {
		if schemaFlow {
			return prompt.DotNetCore, true
		}
		return prompt.SpringBoot, true
	}
	if !prompt.ValidFramework(framework) {
		writeError(w, http.StatusBadRequest, "Unsupported framework: "+framework,
			map[string]interface{}{"supported": prompt.Frameworks})
		return "", false
	}
	return framework, true
}
