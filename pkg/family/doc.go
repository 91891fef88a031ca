// Package family provides the in-memory graph model of a family tree.
//
// # Overview
//
// A tree is a set of [Person] records connected by [Relationship] records.
// Relationships are a tagged variant with three kinds:
//
//   - [KindChild]: directional, PersonA is a parent of PersonB
//   - [KindSpouse]: symmetric in meaning, stored once per couple
//   - [KindSibling]: a convenience link used only when no shared parent exists
//
// Build relationships with [NewChild], [NewSpouse] and [NewSibling]; each
// constructor validates the kind-specific invariants up front.
//
// # Basic Usage
//
//	g := family.New()
//	_ = g.AddPerson(family.Person{ID: "ada", FirstName: "Ada", Alive: true})
//	_ = g.AddPerson(family.Person{ID: "bo", FirstName: "Bo", Alive: true})
//	rel := family.NewChild("ada", "bo")
//	rel.ID = "r1"
//	_ = g.AddRelationship(rel)
//
//	g.Parents("bo")  // [ada]
//	g.Children("ada") // [bo]
//
// # Invariants
//
// After every successful mutation the graph holds:
//   - no relationship references a missing person
//   - no person is related to itself
//   - no two relationships share (PersonA, PersonB, Kind); spouse and
//     sibling pairs are compared without regard to order
//   - a person has at most one spouse relationship
//
// Mutations that would break an invariant return a structured error from
// [github.com/matzehuels/kintree/pkg/errors] and leave the graph unchanged.
//
// # Ordering
//
// [Graph.People] and [Graph.Relationships] return records in insertion
// order, which is the order the store returned them in. Layout and default
// grid placement depend on this order being stable across loads.
//
// Graph is not safe for concurrent use without external synchronization.
package family
