package editor

import (
	"context"
	"fmt"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/session"
)

// AddPerson creates an unconnected person. A nil Position places them on the
// default grid.
func (e *Editor) AddPerson(ctx context.Context, f family.Fields) (string, error) {
	var id string
	err := e.mutate(ctx, "add_person", session.ActionQuickAdd, func() error {
		if f.Alive == nil {
			f.Alive = family.Ptr(true)
		}
		if err := f.ValidateNew(); err != nil {
			return err
		}
		p, err := e.store.CreatePerson(ctx, e.treeID, f)
		if err != nil {
			return errors.Persistence(err, "create person")
		}
		id = p.ID
		return e.reload(ctx)
	})
	return id, err
}

// UpdatePerson applies the set fields to a person.
func (e *Editor) UpdatePerson(ctx context.Context, id string, f family.Fields) error {
	return e.mutate(ctx, "update_person", session.ActionEdit, func() error {
		if _, err := e.requirePerson(id); err != nil {
			return err
		}
		if err := f.Validate(); err != nil {
			return err
		}
		if _, err := e.store.UpdatePerson(ctx, id, f); err != nil {
			return errors.Persistence(err, "update person %s", id)
		}
		return e.reload(ctx)
	})
}

// DeletePerson removes a person and every relationship involving them.
func (e *Editor) DeletePerson(ctx context.Context, id string) error {
	return e.mutate(ctx, "delete_person", session.ActionDelete, func() error {
		p, err := e.requirePerson(id)
		if err != nil {
			return err
		}
		if err := e.confirm(ctx, fmt.Sprintf("Delete %s?", displayName(p))); err != nil {
			return err
		}
		if err := e.store.DeletePerson(ctx, id); err != nil {
			return errors.Persistence(err, "delete person %s", id)
		}
		return e.reload(ctx)
	})
}

// Connect creates a relationship between two existing people. For
// KindChild, a is the parent.
func (e *Editor) Connect(ctx context.Context, a, b string, kind family.Kind) (string, error) {
	var id string
	err := e.mutate(ctx, "connect_"+string(kind), session.ActionConnect, func() error {
		for _, pid := range []string{a, b} {
			if _, err := e.requirePerson(pid); err != nil {
				return err
			}
		}
		r := family.Relationship{PersonA: a, PersonB: b, Kind: kind}
		g := e.Graph()
		if err := g.CheckRelationship(r); err != nil {
			return err
		}
		if kind == family.KindChild && len(g.Parents(b)) >= 2 {
			child, _ := g.Person(b)
			return errors.New(errors.ErrCodeParentConflict, "%s already has two parents", displayName(child))
		}
		created, err := e.store.CreateRelationships(ctx, e.treeID, []family.Relationship{r})
		if err != nil {
			return errors.Persistence(err, "create %s relationship", kind)
		}
		if len(created) > 0 {
			id = created[0].ID
		}
		return e.reload(ctx)
	})
	return id, err
}

// Disconnect deletes one relationship.
func (e *Editor) Disconnect(ctx context.Context, relID string) error {
	return e.mutate(ctx, "disconnect", session.ActionConnect, func() error {
		if _, ok := e.Graph().Relationship(relID); !ok {
			return errors.New(errors.ErrCodeNotFound, "relationship %q not found", relID)
		}
		if err := e.store.DeleteRelationship(ctx, relID); err != nil {
			return errors.Persistence(err, "delete relationship %s", relID)
		}
		return e.reload(ctx)
	})
}
