package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/session"
)

// Relation is what a quick-added person is to the anchor.
type Relation string

const (
	RelationParent  Relation = "parent"
	RelationChild   Relation = "child"
	RelationSpouse  Relation = "spouse"
	RelationSibling Relation = "sibling"
)

// Relations lists every quick-add relation in menu order.
var Relations = []Relation{RelationChild, RelationSpouse, RelationSibling, RelationParent}

// ParseRelation converts a string into a Relation.
func ParseRelation(s string) (Relation, error) {
	r := Relation(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RelationParent, RelationChild, RelationSpouse, RelationSibling:
		return r, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown relation %q (want parent, child, spouse or sibling)", s)
}

// newID stands in for the person a plan creates until storage assigns an ID.
const newID = "(new)"

// plan is a validated quick-add: one new person plus the relationships that
// connect them, and optionally a spouse relationship to remove first.
type plan struct {
	name     string
	position family.Position
	rels     []family.Relationship
	replace  *family.Relationship
}

// QuickAdd creates a person related to anchorID and selects them. It returns
// the new person's ID.
//
//   - spouse: one spouse relationship; fails with ErrCodeSpouseConflict when
//     the anchor already has a spouse, unless SpousePolicyReplace is set
//   - child: a child relationship from the anchor and from the anchor's
//     spouse; without a spouse the Confirmer is asked first
//   - sibling: a child relationship from each of the anchor's parents, or
//     one sibling relationship when the anchor has none
//   - parent: one child relationship to the anchor; fails with
//     ErrCodeParentConflict when the anchor already has two parents
func (e *Editor) QuickAdd(ctx context.Context, anchorID string, rel Relation) (string, error) {
	var created string
	err := e.mutate(ctx, "quick_add_"+string(rel), session.ActionQuickAdd, func() error {
		p, err := e.plan(ctx, anchorID, rel)
		if err != nil {
			return err
		}
		created, err = e.apply(ctx, p)
		return err
	})
	if err != nil {
		return "", err
	}
	e.SelectNode(created)
	return created, nil
}

func (e *Editor) plan(ctx context.Context, anchorID string, rel Relation) (*plan, error) {
	anchor, err := e.requirePerson(anchorID)
	if err != nil {
		return nil, err
	}
	g := e.Graph()
	at := e.Positions()[anchorID]
	off := e.opts.Offset

	p := &plan{name: "New " + string(rel)}
	switch rel {
	case RelationSpouse:
		if old, ok := g.SpouseRelationship(anchorID); ok {
			if e.opts.SpousePolicy != SpousePolicyReplace {
				return nil, errors.New(errors.ErrCodeSpouseConflict,
					"%s already has a spouse", displayName(anchor))
			}
			p.replace = &old
		}
		p.position = family.Position{X: at.X + off, Y: at.Y}
		p.rels = []family.Relationship{family.NewSpouse(anchorID, newID)}

	case RelationChild:
		p.position = family.Position{X: at.X, Y: at.Y + off}
		p.rels = []family.Relationship{family.NewChild(anchorID, newID)}
		if spouse, ok := g.Spouse(anchorID); ok {
			sp := e.Positions()[spouse]
			p.position.X = (at.X + sp.X) / 2
			p.rels = append(p.rels, family.NewChild(spouse, newID))
		} else if err := e.confirm(ctx, fmt.Sprintf("%s has no spouse. Add a child with a single parent?", displayName(anchor))); err != nil {
			return nil, err
		}

	case RelationSibling:
		p.position = family.Position{X: at.X + off, Y: at.Y}
		parents := g.Parents(anchorID)
		for _, parent := range parents {
			p.rels = append(p.rels, family.NewChild(parent, newID))
		}
		if len(parents) == 0 {
			p.rels = []family.Relationship{family.NewSibling(anchorID, newID)}
		}

	case RelationParent:
		if n := len(g.Parents(anchorID)); n >= 2 {
			return nil, errors.New(errors.ErrCodeParentConflict,
				"%s already has %d parents", displayName(anchor), n)
		}
		p.position = family.Position{X: at.X, Y: at.Y - off}
		p.rels = []family.Relationship{family.NewChild(newID, anchorID)}

	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown relation %q", rel)
	}

	if err := checkPlan(g, p); err != nil {
		return nil, err
	}
	return p, nil
}

// checkPlan applies the plan to a copy of the graph so every invariant is
// checked before anything is written.
func checkPlan(g *family.Graph, p *plan) error {
	trial := g.Clone()
	if p.replace != nil {
		trial.RemoveRelationship(p.replace.ID)
	}
	if err := trial.AddPerson(family.Person{ID: newID, FirstName: p.name}); err != nil {
		return err
	}
	for i, r := range p.rels {
		r.ID = fmt.Sprintf("%s-%d", newID, i)
		if err := trial.AddRelationship(r); err != nil {
			return err
		}
	}
	return nil
}

// apply writes a plan. If any write after the person creation fails, the
// person is deleted again, a replaced spouse relationship is restored, and
// the tree is reloaded.
func (e *Editor) apply(ctx context.Context, p *plan) (string, error) {
	person, err := e.store.CreatePerson(ctx, e.treeID, family.Fields{
		FirstName: family.Ptr(p.name),
		Alive:     family.Ptr(true),
		Position:  &p.position,
	})
	if err != nil {
		return "", errors.Persistence(err, "create person")
	}

	rels := make([]family.Relationship, len(p.rels))
	for i, r := range p.rels {
		if r.PersonA == newID {
			r.PersonA = person.ID
		}
		if r.PersonB == newID {
			r.PersonB = person.ID
		}
		rels[i] = r
	}

	removed := false
	if p.replace != nil {
		if err = e.store.DeleteRelationship(ctx, p.replace.ID); err == nil {
			removed = true
		}
	}
	if err == nil {
		_, err = e.store.CreateRelationships(ctx, e.treeID, rels)
	}
	if err != nil {
		e.compensate(ctx, person.ID, p.replace, removed)
		return "", errors.Persistence(err, "connect new %s", strings.TrimPrefix(p.name, "New "))
	}

	if err := e.reload(ctx); err != nil {
		return "", err
	}
	return person.ID, nil
}

func (e *Editor) compensate(ctx context.Context, personID string, replaced *family.Relationship, removed bool) {
	if err := e.store.DeletePerson(ctx, personID); err != nil {
		e.logger.Error("compensation failed: could not delete new person", "id", personID, "error", err)
	}
	if removed {
		restore := *replaced
		restore.ID = ""
		if _, err := e.store.CreateRelationships(ctx, e.treeID, []family.Relationship{restore}); err != nil {
			e.logger.Error("compensation failed: could not restore spouse", "error", err)
		}
	}
	if err := e.reload(ctx); err != nil {
		e.logger.Error("resync after failed quick add", "error", err)
	}
}

func displayName(p family.Person) string {
	if n := p.FullName(); n != "" {
		return n
	}
	return p.ID
}
