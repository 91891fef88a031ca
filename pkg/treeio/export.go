package treeio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/store"
)

// Version is the current file format version.
const Version = 1

// Format is a tree file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatDOT  Format = "dot"
	FormatSVG  Format = "svg"
)

// Importable reports whether files of format f can be read back.
func (f Format) Importable() bool { return f == FormatJSON || f == FormatYAML }

// ParseFormat converts a format name or file extension into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "dot", "gv":
		return FormatDOT, nil
	case "svg":
		return FormatSVG, nil
	}
	return "", fmt.Errorf("unknown format %q (want json, yaml, dot or svg)", s)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Tree is the file representation of one family tree.
type Tree struct {
	Version       int                   `json:"version" yaml:"version"`
	People        []family.Person       `json:"people" yaml:"people"`
	Relationships []family.Relationship `json:"relationships" yaml:"relationships"`
}

// FromGraph snapshots a graph.
func FromGraph(g *family.Graph) *Tree {
	return &Tree{Version: Version, People: g.People(), Relationships: g.Relationships()}
}

// Export reads a tree from a store.
func Export(ctx context.Context, s store.Store, treeID string) (*Tree, error) {
	people, err := s.FetchPeople(ctx, treeID)
	if err != nil {
		return nil, fmt.Errorf("fetch people: %w", err)
	}
	rels, err := s.FetchRelationships(ctx, treeID)
	if err != nil {
		return nil, fmt.Errorf("fetch relationships: %w", err)
	}
	return &Tree{Version: Version, People: people, Relationships: rels}, nil
}

// Write encodes t in the given format. DOT and SVG use opts for node
// geometry; SVG needs ctx for Graphviz.
func Write(ctx context.Context, w io.Writer, t *Tree, format Format, opts layout.Options) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	case FormatDOT:
		_, err := io.WriteString(w, layout.ToDOT(t.input(), opts))
		return err
	case FormatSVG:
		svg, err := layout.RenderSVG(ctx, t.input(), opts)
		if err != nil {
			return err
		}
		_, err = w.Write(svg)
		return err
	}
	return fmt.Errorf("unsupported format %q", format)
}

// WriteFile writes t to path, choosing the format from the extension.
func WriteFile(ctx context.Context, path string, t *Tree, opts layout.Options) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(ctx, f, t, format, opts)
}

func (t *Tree) input() layout.Input {
	return layout.Input{People: t.People, Relationships: t.Relationships}
}
