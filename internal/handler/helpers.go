package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/faucetdb/crudgen/internal/codegen"
	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/llm"
	"github.com/faucetdb/crudgen/internal/model"
	"github.com/faucetdb/crudgen/internal/server/middleware"
	"github.com/faucetdb/crudgen/internal/session"
)

// placeholder is the value the UI's drop-downs send when nothing is chosen.
const placeholder = "-select-"

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response using the standard error
// envelope. The optional ctx map provides additional context fields.
func writeError(w http.ResponseWriter, code int, message string, ctx ...map[string]interface{}) {
	var ctxMap map[string]interface{}
	if len(ctx) > 0 {
		ctxMap = ctx[0]
	}
	writeJSON(w, code, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    code,
			Message: message,
			Context: ctxMap,
		},
	})
}

// writeFailure classifies err and writes it with the error envelope.
func writeFailure(w http.ResponseWriter, err error, fallbackMsg string) {
	status, msg := classifyError(err, fallbackMsg)
	writeError(w, status, msg)
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// queryString extracts a string query parameter.
func queryString(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

// queryBool extracts a boolean query parameter. Returns false if the parameter
// is missing or not "true"/"1".
func queryBool(r *http.Request, key string) bool {
	val := r.URL.Query().Get(key)
	return val == "true" || val == "1"
}

// querySlot reads ?slot=, defaulting to the single-table slot.
func querySlot(r *http.Request) (model.Slot, bool) {
	slot := model.Slot(r.URL.Query().Get("slot"))
	if slot == "" {
		return model.SlotDefault, true
	}
	return slot, slot.Valid()
}

// sessionID returns the session attached by the session middleware.
func sessionID(ctx context.Context) string {
	return middleware.GetSessionID(ctx)
}

// requireSession writes 401 and returns false when the request carries no
// session.
func requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := sessionID(r.Context())
	if id == "" {
		writeError(w, http.StatusUnauthorized, "No session")
		return "", false
	}
	return id, true
}

// chosen reports whether a drop-down value was actually picked.
func chosen(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != placeholder
}

// classifyError maps known errors, then common database error text, to HTTP
// status codes. Returns (httpStatus, cleanMessage).
func classifyError(err error, fallbackMsg string) (int, string) {
	msg := fallbackMsg + ": " + err.Error()

	switch {
	case errors.Is(err, connector.ErrTableNotFound),
		errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, msg
	case errors.Is(err, connector.ErrInvalidIdentifier),
		errors.Is(err, connector.ErrInvalidType),
		errors.Is(err, connector.ErrInvalidChange),
		errors.Is(err, codegen.ErrInvalidClassName),
		errors.Is(err, codegen.ErrUnknownLayer):
		return http.StatusBadRequest, msg
	case errors.Is(err, llm.ErrUnexpectedResponse):
		return http.StatusBadGateway, msg
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, msg
	}
	return classifyDBError(err, fallbackMsg)
}

// classifyDBError maps common database errors to appropriate HTTP status codes.
// Returns (httpStatus, cleanMessage).
func classifyDBError(err error, fallbackMsg string) (int, string) {
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	// Duplicate tables/columns → 409 Conflict
	case strings.Contains(lower, "already exists") ||
		strings.Contains(lower, "duplicate column") ||
		strings.Contains(lower, "duplicate key") ||
		strings.Contains(lower, "duplicate entry"):
		return http.StatusConflict, fallbackMsg + ": " + msg

	// Table/column not found → 404
	case strings.Contains(lower, "no such table") ||
		strings.Contains(lower, "no such column") ||
		strings.Contains(lower, "relation") && strings.Contains(lower, "does not exist") ||
		strings.Contains(lower, "doesn't exist") ||
		strings.Contains(lower, "unknown column") ||
		strings.Contains(lower, "can't drop"):
		return http.StatusNotFound, fallbackMsg + ": " + msg

	// Constraint problems from DDL → 400 Bad Request
	case strings.Contains(lower, "foreign key") ||
		strings.Contains(lower, "multiple primary key"):
		return http.StatusBadRequest, fallbackMsg + ": " + msg

	default:
		return http.StatusInternalServerError, fallbackMsg + ": " + msg
	}
}
