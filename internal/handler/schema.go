package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/model"
	"github.com/faucetdb/crudgen/internal/session"
)

// SchemaHandler handles table inspection and DDL on the configured
// datasource.
type SchemaHandler struct {
	registry *connector.Registry
	store    *session.Store
	logger   *slog.Logger
}

// NewSchemaHandler creates a new SchemaHandler.
func NewSchemaHandler(registry *connector.Registry, store *session.Store, logger *slog.Logger) *SchemaHandler {
	return &SchemaHandler{
		registry: registry,
		store:    store,
		logger:   logger,
	}
}

func (h *SchemaHandler) conn(w http.ResponseWriter) (connector.Connector, bool) {
	conn, err := h.registry.Default()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Datasource not connected: "+err.Error())
		return nil, false
	}
	return conn, true
}

// ListTables returns the names of all tables in the datasource.
// GET /api/v1/tables
func (h *SchemaHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.conn(w)
	if !ok {
		return
	}
	names, err := conn.GetTableNames(r.Context())
	if err != nil {
		writeFailure(w, err, "Failed to list tables")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"resource": names})
}

// DescribeTable returns the full structure of one table.
// GET /api/v1/tables/{table}
func (h *SchemaHandler) DescribeTable(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.conn(w)
	if !ok {
		return
	}
	table, err := conn.IntrospectTable(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		writeFailure(w, err, "Failed to describe table")
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// FetchColumns reads a table's plain columns and foreign-key map and keeps
// them in the session slot named by ?slot=.
// POST /api/v1/tables/{table}/columns
func (h *SchemaHandler) FetchColumns(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSession(w, r)
	if !ok {
		return
	}
	slot, ok := querySlot(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown slot: "+queryString(r, "slot"))
		return
	}
	table := chi.URLParam(r, "table")
	if !chosen(table) {
		writeError(w, http.StatusBadRequest, "Select a table first")
		return
	}
	conn, ok := h.conn(w)
	if !ok {
		return
	}

	set, err := connector.FetchTableColumns(r.Context(), conn, table)
	if err != nil {
		writeFailure(w, err, "Failed to fetch columns")
		return
	}
	if err := h.store.SetColumns(r.Context(), id, slot, set); err != nil {
		writeFailure(w, err, "Failed to store columns")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"slot":           slot,
		"table":          set.Table,
		"columns":        set.Columns,
		"relationships":  set.Relationships,
		"property_names": set.PropertyNames(),
	})
}

// createTableRequest is the body of POST /schema/tables. Without columns the
// session's pending column list is used.
type createTableRequest struct {
	Table   string            `json:"table"`
	Columns []model.ColumnDef `json:"columns"`
}

// CreateTable creates a table from the body's columns or the pending list.
// With ?dry_run=true the statement is returned without being executed.
// POST /api/v1/schema/tables
func (h *SchemaHandler) CreateTable(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req createTableRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Table == "" {
		writeError(w, http.StatusBadRequest, "Table name is required")
		return
	}

	fromPending := len(req.Columns) == 0
	if fromPending {
		pending, err := h.store.PendingColumns(r.Context(), id)
		if err != nil {
			writeFailure(w, err, "Failed to load pending columns")
			return
		}
		if len(pending) == 0 {
			writeError(w, http.StatusBadRequest, "Add at least one column before creating a table")
			return
		}
		req.Columns = pending
	}

	conn, ok := h.conn(w)
	if !ok {
		return
	}
	stmt, err := conn.BuildCreateTable(req.Table, req.Columns)
	if err != nil {
		writeFailure(w, err, "Invalid table definition")
		return
	}
	if queryBool(r, "dry_run") {
		writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true, Message: "Dry run", SQL: stmt})
		return
	}

	if err := conn.CreateTable(r.Context(), req.Table, req.Columns); err != nil {
		writeFailure(w, err, "Failed to create table")
		return
	}
	if fromPending {
		if err := h.store.ClearPendingColumns(r.Context(), id); err != nil {
			h.logger.Warn("clear pending columns", "session_id", id, "error", err)
		}
	}
	h.logger.Info("table created", "table", req.Table, "columns", len(req.Columns))

	writeJSON(w, http.StatusCreated, model.SuccessResponse{
		Success: true,
		Message: fmt.Sprintf("Table %s created successfully", req.Table),
		SQL:     stmt,
	})
}

// DropTable drops a table if it exists.
// DELETE /api/v1/schema/tables/{table}
func (h *SchemaHandler) DropTable(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	if !chosen(table) {
		writeError(w, http.StatusBadRequest, "Select a table first")
		return
	}
	conn, ok := h.conn(w)
	if !ok {
		return
	}
	stmt, err := conn.BuildDropTable(table)
	if err != nil {
		writeFailure(w, err, "Invalid table name")
		return
	}
	if queryBool(r, "dry_run") {
		writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true, Message: "Dry run", SQL: stmt})
		return
	}

	if err := conn.DropTable(r.Context(), table); err != nil {
		writeFailure(w, err, "Failed to drop table")
		return
	}
	h.logger.Info("table dropped", "table", table)

	writeJSON(w, http.StatusOK, model.SuccessResponse{
		Success: true,
		Message: fmt.Sprintf("Table %s dropped successfully", table),
		SQL:     stmt,
	})
}

// columnRequest is the body of the column endpoints.
type columnRequest struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	NewName string `json:"new_name"`
}

// AddColumn adds a column to a table.
// POST /api/v1/schema/tables/{table}/columns
func (h *SchemaHandler) AddColumn(w http.ResponseWriter, r *http.Request) {
	var req columnRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if !chosen(req.Type) {
		writeError(w, http.StatusBadRequest, "Select a column type")
		return
	}
	h.alter(w, r, connector.SchemaChange{
		Type:    connector.ChangeAddColumn,
		Column:  req.Name,
		ColType: req.Type,
	}, "added to")
}

// DropColumn removes a column from a table.
// DELETE /api/v1/schema/tables/{table}/columns/{column}
func (h *SchemaHandler) DropColumn(w http.ResponseWriter, r *http.Request) {
	h.alter(w, r, connector.SchemaChange{
		Type:   connector.ChangeDropColumn,
		Column: chi.URLParam(r, "column"),
	}, "removed from")
}

// RenameColumn renames a column. On MySQL the body's type is used for the
// CHANGE clause and defaults to VARCHAR(255).
// PATCH /api/v1/schema/tables/{table}/columns/{column}
func (h *SchemaHandler) RenameColumn(w http.ResponseWriter, r *http.Request) {
	var req columnRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	colType := req.Type
	if !chosen(colType) {
		colType = ""
	}
	h.alter(w, r, connector.SchemaChange{
		Type:    connector.ChangeRenameColumn,
		Column:  chi.URLParam(r, "column"),
		NewName: req.NewName,
		ColType: colType,
	}, "renamed in")
}

func (h *SchemaHandler) alter(w http.ResponseWriter, r *http.Request, change connector.SchemaChange, verb string) {
	table := chi.URLParam(r, "table")
	if !chosen(table) {
		writeError(w, http.StatusBadRequest, "Select a table first")
		return
	}
	conn, ok := h.conn(w)
	if !ok {
		return
	}
	stmt, err := conn.BuildAlterTable(table, change)
	if err != nil {
		writeFailure(w, err, "Invalid column change")
		return
	}
	if queryBool(r, "dry_run") {
		writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true, Message: "Dry run", SQL: stmt})
		return
	}

	if err := conn.AlterTable(r.Context(), table, []connector.SchemaChange{change}); err != nil {
		writeFailure(w, err, "Failed to alter table")
		return
	}
	h.logger.Info("table altered", "table", table, "change", change.Type, "column", change.Column)

	writeJSON(w, http.StatusOK, model.SuccessResponse{
		Success: true,
		Message: fmt.Sprintf("Column %s %s table %s successfully", change.Column, verb, table),
		SQL:     stmt,
	})
}
