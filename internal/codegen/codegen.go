// Package codegen holds the layer catalogue and writes generated layer code
// to disk.
package codegen

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/faucetdb/crudgen/internal/prompt"
)

// Layer names, in generation order.
const (
	Controller            = "Controller"
	Service               = "Service"
	ServiceImplementation = "ServiceImplementation"
	Repository            = "Repository"
	DTO                   = "DTO"
	Entity                = "Entity"
)

// Layers lists every layer in the order they are generated.
var Layers = []string{Controller, Service, ServiceImplementation, Repository, DTO, Entity}

// Folders maps each layer to its directory under the output base.
var Folders = map[string]string{
	Controller:            "controller",
	Service:               "service",
	ServiceImplementation: "service/impl",
	Repository:            "repository",
	DTO:                   "dto",
	Entity:                "entity",
}

var (
	ErrInvalidClassName = errors.New("invalid class name")
	ErrUnknownLayer     = errors.New("unknown layer")
)

var classNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidClassName reports whether name can be used as a class name.
func ValidClassName(name string) bool {
	return classNameRe.MatchString(name)
}

// Extension returns the source-file extension for framework.
func Extension(framework string) string {
	if framework == prompt.DotNetCore {
		return ".cs"
	}
	return ".java"
}

// Writer saves layer code below a base directory.
type Writer struct {
	baseDir   string
	framework string
}

// NewWriter returns a Writer rooted at baseDir for framework.
func NewWriter(baseDir, framework string) *Writer {
	return &Writer{baseDir: baseDir, framework: framework}
}

// Path returns where Save would put the file for layer and className.
func (w *Writer) Path(layer, className string) (string, error) {
	if !ValidClassName(className) {
		return "", fmt.Errorf("%w: %q", ErrInvalidClassName, className)
	}
	folder, ok := Folders[layer]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLayer, layer)
	}
	name := className + layer + Extension(w.framework)
	return filepath.Join(w.baseDir, filepath.FromSlash(folder), name), nil
}

// Save writes code for layer, creating directories as needed, and returns
// the file path. An existing file is overwritten.
func (w *Writer) Save(layer, className, code string) (string, error) {
	path, err := w.Path(layer, className)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create %s directory: %w", layer, err)
	}
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
