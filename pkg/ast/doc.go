// Package ast provides the resolved syntax tree consumed by the extraction
// analyzers, together with the walk and boundary-filter plumbing they share.
//
// The tree is produced by a Provider. Two implementations exist: tree-sitter
// (no compiler needed, file-local name resolution) and clang's JSON AST dump
// (fully resolved types, macro and include provenance).
//
// Analyzers never mutate the tree. They implement Visitor and are composed in
// a single Walk:
//
//	tu, err := provider.Parse(ctx, "main.cpp")
//	if err != nil {
//	    return err
//	}
//
//	sigs := signature.New(tu)
//	inputs := inputsite.New()
//	ast.Walk(tu, sigs, inputs)
package ast
