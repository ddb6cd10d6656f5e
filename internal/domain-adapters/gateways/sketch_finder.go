package gateways

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/sketchci/internal/domain/interfaces"
)

// sketchExtensions are the file extensions that mark a directory as a
// compilable sketch.
var sketchExtensions = []string{".ino", ".pde"}

// SketchFinder discovers compilable sketch directories under root paths.
type SketchFinder struct {
	// Workspace is used only to shorten paths in human-targeted messages.
	Workspace string
	Log       interfaces.Logger
}

// FindSketches returns every sketch directory under the given roots, in root
// order with each root's matches sorted. Each root must exist and yield at
// least one sketch; anything else indicates a misconfigured input and is an
// error.
func (f *SketchFinder) FindSketches(roots []string) ([]string, error) {
	var sketches []string
	f.Log.Debug("Finding sketches under paths: " + strings.Join(roots, " "))

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("sketch path: %s doesn't exist", f.relative(root))
		}

		if !info.IsDir() {
			// A direct path to a sketch file selects its parent directory,
			// with no recursive search below it.
			if !hasSketchExtension(root) {
				return nil, fmt.Errorf("sketch path: %s is not a sketch", f.relative(root))
			}
			sketches = append(sketches, filepath.Dir(root))
			continue
		}

		rootMatches, err := findUnderDirectory(root)
		if err != nil {
			return nil, err
		}
		if len(rootMatches) == 0 {
			return nil, fmt.Errorf("no sketches were found in %s", f.relative(root))
		}
		sketches = append(sketches, rootMatches...)
	}

	return sketches, nil
}

// findUnderDirectory collects the directory itself, when it qualifies, plus
// every nested sketch directory. A sketch directory may contain further
// sketches; both are reported. The walk is lexically ordered, so repeated
// runs over the same tree yield the same list.
func findUnderDirectory(root string) ([]string, error) {
	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		isSketch, err := directoryIsSketch(path)
		if err != nil {
			return err
		}
		if isSketch {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", root, err)
	}
	return matches, nil
}

func directoryIsSketch(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if !entry.IsDir() && hasSketchExtension(entry.Name()) {
			return true, nil
		}
	}
	return false, nil
}

func hasSketchExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, sketchExtension := range sketchExtensions {
		if ext == sketchExtension {
			return true
		}
	}
	return false
}

func (f *SketchFinder) relative(path string) string {
	rel, err := filepath.Rel(f.Workspace, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
