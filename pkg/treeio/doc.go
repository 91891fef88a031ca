// Package treeio reads and writes family trees as files.
//
// # Formats
//
// JSON and YAML hold the full tree and can be imported again:
//
//	{
//	  "version": 1,
//	  "people": [
//	    {"id": "ada", "first_name": "Ada", "surname": "Byron", "alive": false},
//	    {"id": "bo", "first_name": "Bo", "alive": true}
//	  ],
//	  "relationships": [
//	    {"person_a": "ada", "person_b": "bo", "kind": "child"}
//	  ]
//	}
//
// Person fields use the same names as family.Person. IDs in a file are only
// used to connect relationships; [Import] assigns new IDs from the store.
//
// DOT and SVG are export-only renderings produced with Graphviz.
//
// # Validation
//
// [Read] checks every graph invariant (known endpoints, no duplicate or self
// relationships, at most one spouse per person) before anything is written.
// Errors name the offending record.
package treeio
