package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/model"
	"github.com/faucetdb/crudgen/internal/session"
)

// SessionHandler exposes the visitor's session state.
type SessionHandler struct {
	store  *session.Store
	logger *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(store *session.Store, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{store: store, logger: logger}
}

// GetSession returns everything stored for the current session.
// GET /api/v1/session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSession(w, r)
	if !ok {
		return
	}
	state, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, err, "Failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// ResetSession clears the session's columns, code, history, pending columns
// and relationships.
// DELETE /api/v1/session
func (h *SessionHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSession(w, r)
	if !ok {
		return
	}
	if err := h.store.Reset(r.Context(), id); err != nil {
		writeFailure(w, err, "Failed to reset session")
		return
	}
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true, Message: "Session cleared"})
}

// History replays the conversation: every generated blob, oldest first.
// GET /api/v1/session/history
func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSession(w, r)
	if !ok {
		return
	}
	entries, err := h.store.History(r.Context(), id)
	if err != nil {
		writeFailure(w, err, "Failed to load history")
		return
	}
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resource":   entries,
		"transcript": strings.Join(texts, "\n\n"),
	})
}

// AddPendingColumn validates a column definition and appends it to the
// create-table list.
// POST /api/v1/session/pending-columns
func (h *SessionHandler) AddPendingColumn(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSession(w, r)
	if !ok {
		return
	}
	var col model.ColumnDef
	if err := readJSON(r, &col); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if !chosen(col.Type) {
		writeError(w, http.StatusBadRequest, "Select a column type")
		return
	}
	if err := connector.ValidateIdentifier(col.Name); err != nil {
		writeFailure(w, err, "Invalid column name")
		return
	}
	colType, err := connector.NormalizeType(col.Type)
	if err != nil {
		writeFailure(w, err, "Invalid column type")
		return
	}
	col.Type = colType

	ctx := r.Context()
	pending, err := h.store.PendingColumns(ctx, id)
	if err != nil {
		writeFailure(w, err, "Failed to load pending columns")
		return
	}
	for _, p := range pending {
		if strings.EqualFold(p.Name, col.Name) {
			writeError(w, http.StatusConflict, fmt.Sprintf("Column %s is already pending", col.Name))
			return
		}
	}
	if err := h.store.AddPendingColumn(ctx, id, col); err != nil {
		writeFailure(w, err, "Failed to add pending column")
		return
	}

	writePending(w, http.StatusCreated, append(pending, col))
}

// ClearPendingColumns empties the create-table list.
// DELETE /api/v1/session/pending-columns
func (h *SessionHandler) ClearPendingColumns(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSession(w, r)
	if !ok {
		return
	}
	if err := h.store.ClearPendingColumns(r.Context(), id); err != nil {
		writeFailure(w, err, "Failed to clear pending columns")
		return
	}
	writePending(w, http.StatusOK, nil)
}

func writePending(w http.ResponseWriter, status int, cols []model.ColumnDef) {
	if cols == nil {
		cols = []model.ColumnDef{}
	}
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = c.Definition()
	}
	writeJSON(w, status, map[string]interface{}{
		"resource":    cols,
		"definitions": defs,
	})
}

// ListRelationships returns the session's logical relationships.
// GET /api/v1/relationships
func (h *SessionHandler) ListRelationships(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSession(w, r)
	if !ok {
		return
	}
	rels, err := h.store.Relationships(r.Context(), id)
	if err != nil {
		writeFailure(w, err, "Failed to load relationships")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"resource": rels})
}

// PutRelationship declares a relationship between two tables, replacing
// any earlier one for the same pair.
// POST /api/v1/relationships
func (h *SessionHandler) PutRelationship(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSession(w, r)
	if !ok {
		return
	}
	var rel model.LogicalRelationship
	if err := readJSON(r, &rel); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if msg := validateRelationship(rel); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.store.PutRelationship(r.Context(), id, rel); err != nil {
		writeFailure(w, err, "Failed to save relationship")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"key":          rel.Key(),
		"relationship": rel,
		"message":      rel.String(),
	})
}

// DeleteRelationship removes the relationship named by ?key=first-second.
// DELETE /api/v1/relationships
func (h *SessionHandler) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSession(w, r)
	if !ok {
		return
	}
	key := queryString(r, "key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "Relationship key is required")
		return
	}
	if err := h.store.DeleteRelationship(r.Context(), id, key); err != nil {
		writeFailure(w, err, "Failed to delete relationship")
		return
	}
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true, Message: "Relationship " + key + " removed"})
}

// validateRelationship returns a user-facing message, or "" when rel is
// complete.
func validateRelationship(rel model.LogicalRelationship) string {
	if !chosen(rel.FirstTable) || !chosen(rel.SecondTable) {
		return "Select both tables"
	}
	if !slices.Contains(model.RelationshipTypes, rel.Type) {
		return fmt.Sprintf("Select a relationship type (%s)", strings.Join(model.RelationshipTypes, ", "))
	}
	if !slices.Contains(model.RelationshipDirections, rel.Direction) {
		return fmt.Sprintf("Select a relationship direction (%s)", strings.Join(model.RelationshipDirections, ", "))
	}
	return ""
}
