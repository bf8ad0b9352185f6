package discovery

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// DefaultRoot walks upward from startDir looking for a go.mod, mirroring the
// teacher's testlist.go module-root resolution, and defaults the discovery
// root to that directory's tests/ subfolder if present, else the module
// directory itself — a convenience the distilled spec is silent on
// (RunSettings.Root empty).
func DefaultRoot(startDir string) (string, error) {
	moduleDir, err := findModuleDir(startDir)
	if err != nil {
		return "", err
	}

	testsDir := filepath.Join(moduleDir, "tests")
	if info, err := os.Stat(testsDir); err == nil && info.IsDir() {
		return testsDir, nil
	}
	return moduleDir, nil
}

func findModuleDir(startDir string) (string, error) {
	dir := startDir
	for {
		goModPath := filepath.Join(dir, "go.mod")
		if data, err := os.ReadFile(goModPath); err == nil {
			if _, err := modfile.Parse(goModPath, data, nil); err != nil {
				return "", fmt.Errorf("parsing %s: %w", goModPath, err)
			}
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod found above %s", startDir)
		}
		dir = parent
	}
}
