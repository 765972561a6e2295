package codegen

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/faucetdb/crudgen/internal/prompt"
)

func TestLayersHaveFolders(t *testing.T) {
	if len(Layers) != 6 {
		t.Fatalf("expected 6 layers, got %d", len(Layers))
	}
	for _, l := range Layers {
		if Folders[l] == "" {
			t.Errorf("layer %s has no folder", l)
		}
	}
}

func TestWriterSave(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, prompt.SpringBoot)

	path, err := w.Save(ServiceImplementation, "Employee", "class EmployeeServiceImplementation {}")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	want := filepath.Join(dir, "service", "impl", "EmployeeServiceImplementation.java")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "class EmployeeServiceImplementation {}" {
		t.Errorf("content = %q", data)
	}

	// Second save overwrites.
	if _, err := w.Save(ServiceImplementation, "Employee", "v2"); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "v2" {
		t.Errorf("content after overwrite = %q", data)
	}
}

func TestWriterDotNetExtension(t *testing.T) {
	w := NewWriter(t.TempDir(), prompt.DotNetCore)
	path, err := w.Path(Controller, "Order")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "OrderController.cs" {
		t.Errorf("file = %q", filepath.Base(path))
	}
}

func TestWriterRejectsBadInput(t *testing.T) {
	w := NewWriter(t.TempDir(), prompt.SpringBoot)

	for _, name := range []string{"", "../etc", "Emp loyee", "1Emp"} {
		if _, err := w.Save(Entity, name, "x"); !errors.Is(err, ErrInvalidClassName) {
			t.Errorf("Save(%q) error = %v, want ErrInvalidClassName", name, err)
		}
	}
	if _, err := w.Save("Mapper", "Employee", "x"); !errors.Is(err, ErrUnknownLayer) {
		t.Errorf("unknown layer error = %v", err)
	}
}
