// Module resolution for the checker.
//
// Scanning arbitrary trees would flood the output with matches on
// unrelated code that happens to have methods named Borrow or Release.
// Before scanning a directory, the checker locates the enclosing go.mod
// and only proceeds if the module requires (or is) reflocal itself.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// reflocalModulePath is the module this checker looks for in go.mod
// require lists.
const reflocalModulePath = "github.com/kolkov/reflocal"

// findGoMod walks up from dir looking for a go.mod file.
//
// Returns the path to go.mod, or "" if the filesystem root is reached
// without finding one.
func findGoMod(dir string) string {
	for {
		modPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(modPath); err == nil {
			return modPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root.
			break
		}
		dir = parent
	}
	return ""
}

// usesReflocal reports whether the module described by the go.mod at
// goModPath is reflocal itself or requires it.
func usesReflocal(goModPath string) (bool, error) {
	data, err := os.ReadFile(goModPath)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", goModPath, err)
	}

	mf, err := modfile.Parse(goModPath, data, nil)
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", goModPath, err)
	}

	if mf.Module != nil && mf.Module.Mod.Path == reflocalModulePath {
		return true, nil
	}
	for _, req := range mf.Require {
		if req.Mod.Path == reflocalModulePath {
			return true, nil
		}
	}
	return false, nil
}
