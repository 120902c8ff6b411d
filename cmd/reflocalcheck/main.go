// Package main implements the reflocalcheck CLI tool.
//
// reflocalcheck scans Go source for borrow guards that are never
// released. A cell borrow must be paired with Release on every path,
// typically via defer; a missing Release leaks the borrow claim and
// makes every later exclusive borrow on that goroutine fail, or turns
// into a panic when the goroutine's storage is reclaimed.
//
// Usage:
//
//	reflocalcheck check ./...        # Check all packages under cwd
//	reflocalcheck check file.go      # Check a single file
//
// The check is a syntactic heuristic; see check.go for its limits.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch command := os.Args[1]; command {
	case "check":
		os.Exit(checkCommand(os.Args[2:]))
	case "version", "--version", "-v":
		fmt.Printf("reflocalcheck version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// checkCommand runs the leak check over the given paths (default ".").
// Returns the process exit code: 1 if any finding or error, 0 otherwise.
func checkCommand(args []string) int {
	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	exit := 0
	for _, path := range paths {
		// "./..." is go-tool spelling for a recursive walk.
		path = strings.TrimSuffix(path, "...")
		if path == "" {
			path = "."
		}

		findings, err := checkPath(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reflocalcheck: %v\n", err)
			exit = 1
			continue
		}
		for _, f := range findings {
			fmt.Println(f)
			exit = 1
		}
	}
	return exit
}

// checkPath checks one file or directory tree.
func checkPath(path string) ([]Finding, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	// Single files are checked unconditionally.
	if !info.IsDir() {
		return CheckFile(path)
	}

	// Directories are only scanned inside a module that uses reflocal;
	// anything else would drown the output in name-collision noise.
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	goMod := findGoMod(abs)
	if goMod == "" {
		fmt.Fprintf(os.Stderr, "reflocalcheck: %s: no go.mod found, skipping\n", path)
		return nil, nil
	}
	uses, err := usesReflocal(goMod)
	if err != nil {
		return nil, err
	}
	if !uses {
		fmt.Fprintf(os.Stderr, "reflocalcheck: %s: module does not require %s, skipping\n", path, reflocalModulePath)
		return nil, nil
	}

	var findings []Finding
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(p, ".go") {
			return nil
		}
		found, err := CheckFile(p)
		if err != nil {
			return err
		}
		findings = append(findings, found...)
		return nil
	})
	return findings, err
}

func printUsage() {
	fmt.Print(`reflocalcheck - borrow guard leak checker for reflocal

USAGE:
    reflocalcheck <command> [arguments]

COMMANDS:
    check      Report borrow guards that are never released
    version    Show version information
    help       Show this help message

EXAMPLES:
    # Check all packages under the current module
    reflocalcheck check ./...

    # Check a single file
    reflocalcheck check internal/worker/state.go

ABOUT:
    reflocalcheck pairs cell borrow calls (Borrow, BorrowMut, TryBorrow,
    TryBorrowMut) with Release calls on the same variable inside each
    function, and reports the ones with no Release and no escape via
    return. Projections (MapRef, SplitRefMut, ...) are understood to
    consume their input guard and produce new ones.

    The analysis is per-function and name-based. It will miss guards
    smuggled through struct fields or helper functions, and it cannot
    prove a Release runs on every path; treat reports as review prompts.

FOR MORE INFORMATION:
    Repository: https://github.com/kolkov/reflocal

`)
}
