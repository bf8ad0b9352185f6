// Package discovery walks a root directory for *.toolproof.yml and
// *.toolproof.macro.yml documents (spec.md 6), grounded on the teacher's
// registry.go loadConfig (a single os.ReadFile + yaml.Unmarshal, generalized
// here to a directory walk over many files).
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/toolproof/toolproof/types"
)

const (
	testSuffix  = ".toolproof.yml"
	macroSuffix = ".toolproof.macro.yml"
)

// Result holds everything one discovery pass found.
type Result struct {
	Tests  []*types.TestDocument
	Macros []*types.MacroDocument
}

// Discover walks root, parsing every *.toolproof.yml and
// *.toolproof.macro.yml file it finds.
func Discover(root string) (*Result, error) {
	result := &Result{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()

		switch {
		case strings.HasSuffix(name, macroSuffix):
			raw, readErr := os.ReadFile(path)
			if readErr != nil {
				return fmt.Errorf("reading %s: %w", path, readErr)
			}
			doc, parseErr := parseMacroDocument(path, raw)
			if parseErr != nil {
				return fmt.Errorf("parsing %s: %w", path, parseErr)
			}
			result.Macros = append(result.Macros, doc)
		case strings.HasSuffix(name, testSuffix):
			raw, readErr := os.ReadFile(path)
			if readErr != nil {
				return fmt.Errorf("reading %s: %w", path, readErr)
			}
			doc, parseErr := parseTestDocument(path, raw)
			if parseErr != nil {
				return fmt.Errorf("parsing %s: %w", path, parseErr)
			}
			result.Tests = append(result.Tests, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := checkUniqueNames(result.Tests); err != nil {
		return nil, err
	}

	return result, nil
}

// checkUniqueNames enforces "name is unique per discovery root" (spec.md 3).
func checkUniqueNames(docs []*types.TestDocument) error {
	seen := make(map[string]string, len(docs))
	for _, doc := range docs {
		if prior, ok := seen[doc.Name]; ok {
			return types.NewStepError(types.ErrResolutionError, "",
				fmt.Errorf("duplicate test name %q in %s and %s", doc.Name, prior, doc.Path))
		}
		seen[doc.Name] = doc.Path
	}
	return nil
}

// ReferenceLoaderFor returns a macro.ReferenceLoader-shaped function backed
// by a map keyed by absolute path, built once from a Discover result so
// reference expansion never re-reads a file from disk mid-run.
func (r *Result) ReferenceLoaderFor() func(absPath string) (*types.TestDocument, error) {
	byPath := make(map[string]*types.TestDocument, len(r.Tests))
	for _, doc := range r.Tests {
		byPath[doc.Path] = doc
	}
	return func(absPath string) (*types.TestDocument, error) {
		doc, ok := byPath[absPath]
		if !ok {
			return nil, types.NewStepError(types.ErrResolutionError, "",
				fmt.Errorf("referenced document not found: %s", absPath))
		}
		return doc, nil
	}
}
