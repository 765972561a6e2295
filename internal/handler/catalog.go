package handler

import (
	"net/http"

	"github.com/faucetdb/crudgen/internal/codegen"
	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/model"
	"github.com/faucetdb/crudgen/internal/prompt"
)

// Frameworks lists the target frameworks.
// GET /api/v1/frameworks
func Frameworks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"resource": prompt.Frameworks})
}

// Datatypes lists the column types the schema editor accepts.
// GET /api/v1/datatypes
func Datatypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"resource": connector.Datatypes})
}

// Layers lists the generated layers with their output folders, plus the
// relationship vocabulary used by the schema editor.
// GET /api/v1/layers
func Layers(w http.ResponseWriter, r *http.Request) {
	layers := make([]map[string]string, len(codegen.Layers))
	for i, l := range codegen.Layers {
		layers[i] = map[string]string{"name": l, "folder": codegen.Folders[l]}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resource":                layers,
		"relationship_types":      model.RelationshipTypes,
		"relationship_directions": model.RelationshipDirections,
	})
}
