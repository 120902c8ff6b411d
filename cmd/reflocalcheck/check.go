// AST-level leak detection for borrow guards.
//
// The checker parses Go source with go/parser, walks each function body
// and pairs borrow-family calls with Release calls on the same variable.
// A guard variable with no Release (direct or deferred) and no escape via
// return is reported as a leak candidate.
//
// The analysis is a per-function syntactic heuristic: it does not follow
// guards through channels, struct fields or helper functions, and it
// matches methods by name, not by type. It is meant to catch the common
// mistake, a borrow without a matching defer, cheaply, not to prove
// absence of leaks.

package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
)

// Finding describes one borrow guard with no visible release.
type Finding struct {
	File string // source file path
	Line int    // line of the borrow call
	Var  string // guard variable name
	Call string // borrow operation that produced the guard
}

func (f Finding) String() string {
	return fmt.Sprintf("%s:%d: guard %q from %s() is never released", f.File, f.Line, f.Var, f.Call)
}

// borrowMethods are the Cell methods whose result is a guard that must
// be released.
var borrowMethods = map[string]bool{
	"Borrow":       true,
	"BorrowMut":    true,
	"TryBorrow":    true,
	"TryBorrowMut": true,
}

// projectionFuncs consume their guard argument and produce new guards
// that must be released in its place.
var projectionFuncs = map[string]bool{
	"MapRef":      true,
	"MapRefMut":   true,
	"SplitRef":    true,
	"SplitRefMut": true,
}

// CheckFile parses one Go source file and reports unreleased guards.
func CheckFile(path string) ([]Finding, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return checkFile(fset, f), nil
}

// checkFile walks every function in the file and collects findings.
func checkFile(fset *token.FileSet, f *ast.File) []Finding {
	var findings []Finding

	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}
		findings = append(findings, checkFunc(fset, fn.Body)...)
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Line != findings[j].Line {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].Var < findings[j].Var
	})
	return findings
}

// borrowSite records where a guard variable was produced.
type borrowSite struct {
	call string
	pos  token.Pos
}

// checkFunc pairs borrows with releases inside one function body.
//
// Function literals are walked as part of the enclosing body: a guard
// borrowed outside a closure and released inside it (or vice versa)
// still pairs up, which matches how defer-in-helper patterns read.
func checkFunc(fset *token.FileSet, body *ast.BlockStmt) []Finding {
	borrows := make(map[string]borrowSite)
	released := make(map[string]bool)
	escaped := make(map[string]bool)

	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.AssignStmt:
			recordBorrowAssign(n, borrows)

		case *ast.CallExpr:
			// r.Release(), direct or via defer (the defer's call
			// expression is visited like any other).
			if sel, ok := n.Fun.(*ast.SelectorExpr); ok && sel.Sel.Name == "Release" {
				if id, ok := sel.X.(*ast.Ident); ok {
					released[id.Name] = true
				}
			}
			// MapRef(r, ...) and friends consume the guard argument.
			if projectionFuncs[calleeName(n)] && len(n.Args) > 0 {
				if id, ok := n.Args[0].(*ast.Ident); ok {
					released[id.Name] = true
				}
			}

		case *ast.ReturnStmt:
			// A returned guard is the caller's responsibility.
			for _, res := range n.Results {
				if id, ok := res.(*ast.Ident); ok {
					escaped[id.Name] = true
				}
			}
		}
		return true
	})

	var findings []Finding
	for name, site := range borrows {
		if released[name] || escaped[name] {
			continue
		}
		pos := fset.Position(site.pos)
		findings = append(findings, Finding{
			File: pos.Filename,
			Line: pos.Line,
			Var:  name,
			Call: site.call,
		})
	}
	return findings
}

// recordBorrowAssign records guard variables bound by an assignment whose
// RHS is a borrow or projection call.
//
// Handled shapes:
//
//	r := c.Borrow()
//	r, err := c.TryBorrow()
//	u := cell.MapRef(r, f)
//	a, b := cell.SplitRefMut(m, f)
func recordBorrowAssign(n *ast.AssignStmt, borrows map[string]borrowSite) {
	if len(n.Rhs) != 1 {
		return
	}
	call, ok := n.Rhs[0].(*ast.CallExpr)
	if !ok {
		return
	}

	name := calleeName(call)
	var guards []ast.Expr
	switch {
	case borrowMethods[name]:
		// Guard is the first result; an error may follow for try variants.
		guards = n.Lhs[:1]
	case projectionFuncs[name]:
		// Map yields one guard, Split yields two.
		guards = n.Lhs
	default:
		return
	}

	for _, lhs := range guards {
		id, ok := lhs.(*ast.Ident)
		if !ok || id.Name == "_" {
			continue
		}
		borrows[id.Name] = borrowSite{call: name, pos: call.Pos()}
	}
}

// calleeName returns the bare name of a call's function: the selector
// name for method and package-qualified calls, the identifier for plain
// calls, "" otherwise.
func calleeName(call *ast.CallExpr) string {
	switch fun := call.Fun.(type) {
	case *ast.SelectorExpr:
		return fun.Sel.Name
	case *ast.Ident:
		return fun.Name
	case *ast.IndexExpr:
		// Explicitly instantiated generic: MapRef[U](r, f).
		return exprName(fun.X)
	case *ast.IndexListExpr:
		// Fully instantiated generic: SplitRefMut[T, U, V](m, f).
		return exprName(fun.X)
	}
	return ""
}

// exprName returns the bare name of an identifier or selector expression.
func exprName(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return e.Sel.Name
	}
	return ""
}
