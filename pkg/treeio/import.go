package treeio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

// Read decodes a JSON or YAML tree from r and validates it.
//
// Read returns an error if:
//   - the input is malformed
//   - the version is newer than [Version]
//   - a person has no ID or first name, or a duplicate ID
//   - a relationship references an unknown person, duplicates another, or
//     gives someone a second spouse
//
// Relationships without an ID are numbered "r1", "r2", ... in file order.
func Read(r io.Reader, format Format) (*Tree, error) {
	var t Tree
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&t); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&t); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	default:
		return nil, fmt.Errorf("cannot import %s files", format)
	}

	if t.Version > Version {
		return nil, fmt.Errorf("unsupported file version %d (max %d)", t.Version, Version)
	}
	t.Version = Version
	for _, p := range t.People {
		if err := errors.ValidateName(p.FirstName); err != nil {
			return nil, fmt.Errorf("person %s: %w", p.ID, err)
		}
	}
	for i := range t.Relationships {
		if t.Relationships[i].ID == "" {
			t.Relationships[i].ID = fmt.Sprintf("r%d", i+1)
		}
	}
	if _, err := family.Load(t.People, t.Relationships); err != nil {
		return nil, err
	}
	return &t, nil
}

// ReadFile reads a tree file, choosing the format from the extension.
func ReadFile(path string) (*Tree, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Import writes a validated tree into treeID and returns the mapping from
// file IDs to stored IDs. If creating the relationships fails, the people
// created so far are deleted again.
func Import(ctx context.Context, s store.Store, treeID string, t *Tree, logger *log.Logger) (map[string]string, error) {
	if logger == nil {
		logger = log.Default()
	}
	ids := make(map[string]string, len(t.People))
	rollback := func() {
		for _, id := range ids {
			if err := s.DeletePerson(ctx, id); err != nil {
				logger.Warn("rollback: delete person", "id", id, "error", err)
			}
		}
	}

	for _, p := range t.People {
		created, err := s.CreatePerson(ctx, treeID, family.FieldsOf(p))
		if err != nil {
			rollback()
			return nil, fmt.Errorf("create person %s: %w", p.ID, err)
		}
		ids[p.ID] = created.ID
	}

	rels := make([]family.Relationship, len(t.Relationships))
	for i, r := range t.Relationships {
		rels[i] = family.Relationship{PersonA: ids[r.PersonA], PersonB: ids[r.PersonB], Kind: r.Kind}
	}
	if len(rels) > 0 {
		if _, err := s.CreateRelationships(ctx, treeID, rels); err != nil {
			rollback()
			return nil, fmt.Errorf("create relationships: %w", err)
		}
	}

	logger.Info("imported tree", "tree", treeID, "people", len(ids), "relationships", len(rels))
	return ids, nil
}
