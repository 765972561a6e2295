// Package prompt builds the natural-language instructions sent to the
// generation model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/faucetdb/crudgen/internal/model"
)

// Target frameworks.
const (
	SpringBoot = "Spring Boot"
	DotNetCore = ".NET Core"
)

// Frameworks lists the frameworks code can be generated for.
var Frameworks = []string{SpringBoot, DotNetCore}

// ValidFramework reports whether name is one of Frameworks.
func ValidFramework(name string) bool {
	for _, f := range Frameworks {
		if f == name {
			return true
		}
	}
	return false
}

// CRUDInput is what a full CRUD prompt is built from.
type CRUDInput struct {
	Properties    string            // comma-joined column names
	Framework     string            // one of Frameworks
	Relationships map[string]string // fk column -> referenced table; may be empty
	Direction     string            // Bidirectional, Unidirectional or empty
}

// CRUD asks for every layer of a CRUD stack at once. Relationship metadata
// is appended only when the table has foreign keys.
func CRUD(in CRUDInput) string {
	var relInfo string
	if len(in.Relationships) > 0 {
		direction := ""
		if in.Direction != "" {
			direction = in.Direction + " "
		}
		relInfo = fmt.Sprintf(" It has %srelationships with other tables: %s.",
			direction, model.FormatRelationships(in.Relationships))
	}

	return fmt.Sprintf("Generate CRUD operations controller, service and its implemented class, "+
		"repository, DTO, and model layer, provide field level annotation in framework: %s, "+
		"for a class with properties: %s.%s "+
		"Ensure that the controller methods use ResponseEntity to handle HTTP status codes appropriately.",
		in.Framework, in.Properties, relInfo)
}

// Layer asks for a single layer of a class.
func Layer(layer, className, properties, framework string) string {
	return strings.Join([]string{
		fmt.Sprintf("Generate %s code in %s for a class named %s with properties: %s.",
			layer, framework, className, properties),
		"Provide appropriate annotations and methods for this layer.",
		fmt.Sprintf("Only provide code relevant to the %s. Do not include code for other layers.", layer),
	}, " ")
}
