// Package loader loads route definition files and records which files each
// one includes.
//
// Definition files are YAML (".yaml", ".yml"), JSON (".json", read as YAML)
// or HCL (".hcl"). Three directives are understood:
//
//	!include path    (YAML tag)   {"$include": path}   include(path)
//	!fn name         (YAML tag)   {"$fn": name}        fn(name)
//	!expr source     (YAML tag)   {"$expr": source}    expr(source)
//
// An include is resolved relative to the including file and replaced by the
// included file's value. Files with other extensions are included as text.
// A function name resolves against the route.Registry; an expression source
// becomes a route.Expr.
//
// Every loaded file is kept in a Cache together with its includes (children)
// and the files including it (dependents). A file invalidated in the cache is
// reloaded on next use, and so is every file above it.
package loader
