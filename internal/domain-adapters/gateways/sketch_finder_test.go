package gateways

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ochairo/sketchci/internal/domain/interfaces"
)

func writeSketch(t *testing.T, dir, name string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0750); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("void setup() {}\nvoid loop() {}\n"), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newFinder(workspace string) *SketchFinder {
	return &SketchFinder{Workspace: workspace, Log: interfaces.NoOpLogger{}}
}

func TestFindSketchesInDirectoryTree(t *testing.T) {
	root := t.TempDir()
	writeSketch(t, filepath.Join(root, "examples", "Blink"), "Blink.ino")
	writeSketch(t, filepath.Join(root, "examples", "Fade"), "Fade.ino")
	writeSketch(t, filepath.Join(root, "examples", "Legacy"), "Legacy.pde")
	// Not a sketch, must be skipped.
	if err := os.MkdirAll(filepath.Join(root, "examples", "docs"), 0750); err != nil {
		t.Fatal(err)
	}

	sketches, err := newFinder(root).FindSketches([]string{root})
	if err != nil {
		t.Fatalf("FindSketches() error: %v", err)
	}
	if len(sketches) != 3 {
		t.Fatalf("expected 3 sketches, got %d: %v", len(sketches), sketches)
	}
	for _, expected := range []string{"Blink", "Fade", "Legacy"} {
		found := false
		for _, sketch := range sketches {
			if filepath.Base(sketch) == expected {
				found = true
			}
		}
		if !found {
			t.Errorf("sketch %s not found in %v", expected, sketches)
		}
	}
}

func TestFindSketchesDirectoryItselfQualifies(t *testing.T) {
	root := t.TempDir()
	writeSketch(t, root, "Top.ino")
	writeSketch(t, filepath.Join(root, "Nested"), "Nested.ino")

	sketches, err := newFinder(root).FindSketches([]string{root})
	if err != nil {
		t.Fatalf("FindSketches() error: %v", err)
	}
	// The root is itself a sketch and still gets searched for nested ones.
	if len(sketches) != 2 {
		t.Fatalf("expected 2 sketches, got %d: %v", len(sketches), sketches)
	}
	if sketches[0] != root {
		t.Errorf("sketches[0] = %s, want the root itself", sketches[0])
	}
}

func TestFindSketchesFilePath(t *testing.T) {
	root := t.TempDir()
	sketchFile := writeSketch(t, filepath.Join(root, "Blink"), "Blink.ino")
	// A sibling sketch below the file's directory must not be picked up.
	writeSketch(t, filepath.Join(root, "Blink", "Nested"), "Nested.ino")

	sketches, err := newFinder(root).FindSketches([]string{sketchFile})
	if err != nil {
		t.Fatalf("FindSketches() error: %v", err)
	}
	if len(sketches) != 1 || sketches[0] != filepath.Join(root, "Blink") {
		t.Errorf("sketches = %v, want just the file's directory", sketches)
	}
}

func TestFindSketchesErrors(t *testing.T) {
	root := t.TempDir()
	notASketch := filepath.Join(root, "README.md")
	if err := os.WriteFile(notASketch, []byte("docs"), 0600); err != nil {
		t.Fatal(err)
	}
	emptyDir := filepath.Join(root, "empty")
	if err := os.MkdirAll(emptyDir, 0750); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		root     string
		expected string
	}{
		{
			name:     "missing path",
			root:     filepath.Join(root, "nope"),
			expected: "doesn't exist",
		},
		{
			name:     "file without sketch extension",
			root:     notASketch,
			expected: "is not a sketch",
		},
		{
			name:     "directory without sketches",
			root:     emptyDir,
			expected: "no sketches were found in",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newFinder(root).FindSketches([]string{tt.root})
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.expected) {
				t.Errorf("error = %q, want it to contain %q", err, tt.expected)
			}
		})
	}
}
