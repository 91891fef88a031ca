// Package pkg provides the core libraries for Kintree family tree editing.
//
// # Overview
//
// Kintree keeps family trees (people joined by child, spouse and sibling
// relationships) in a database and lets you grow them one relative at a
// time. The pkg directory is organized into four main areas:
//
//  1. Domain model - [family], [generation], [orientation]
//  2. Presentation - [layout], [canvas]
//  3. Orchestration - [editor], [session]
//  4. Infrastructure - [store], [cache], [config], [treeio], [api]
//
// # Architecture
//
// The typical data flow through Kintree:
//
//	store.Store (sqlite, postgres, mongo, memory)
//	         ↓
//	    [family] graph (validated people + relationships)
//	         ↓
//	    [generation] levels + [layout] positions + [orientation] handles
//	         ↓
//	    [canvas] view (nodes, edges, junctions)
//	         ↓
//	    CLI table, TUI, HTTP JSON, DOT/SVG export
//
// Every change goes through an [editor.Editor], which validates against the
// in-memory graph, writes through the store and reloads.
//
// # Quick Start
//
//	s, _ := sqlite.Open(ctx, "family.db")
//	e := editor.New(s, "default", editor.Options{})
//	_ = e.Load(ctx) // seeds a root person in an empty tree
//
//	root := e.Graph().PersonIDs()[0]
//	_, _ = e.QuickAdd(ctx, root, editor.RelationSpouse)
//	child, _ := e.QuickAdd(ctx, root, editor.RelationChild) // child of both
//
//	fmt.Println(e.Levels()[child]) // 1
//
// # Main Packages
//
// [family] - People, relationships and the invariant-checked graph.
//
// [generation] - Generation levels from child relationships (longest lineage
// wins, cycles terminate) and the five-colour tier palette.
//
// [layout] - Position engines: the built-in layered engine, Graphviz, and a
// cache wrapper.
//
// [orientation] - Which side of a node an edge leaves and enters from.
//
// [canvas] - Projects the graph, positions and session into a renderable view.
//
// [editor] - Quick add, connect, delete, move, relayout and save.
//
// [session] - Locked/unlocked mode and selection, persisted per tree.
//
// [store] - Persistence interface with memory, SQLite, PostgreSQL and
// MongoDB backends.
//
// [cache] - Layout cache (file, Redis) and retry with backoff.
//
// [treeio] - JSON/YAML import and export, DOT and SVG rendering.
//
// [api] - HTTP editing API.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/editor/...             # Specific package
//	go test -run Example                 # Examples only
//
// [family]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/family
// [generation]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/generation
// [orientation]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/orientation
// [layout]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/layout
// [canvas]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/canvas
// [editor]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/editor
// [editor.Editor]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/editor#Editor
// [session]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/session
// [store]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/store
// [cache]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/config
// [treeio]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/treeio
// [api]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/api
package pkg
