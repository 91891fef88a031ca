package editor

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/session"
)

// DefaultOffset is the distance between an anchor and a quick-added person.
const DefaultOffset = 250.0

// Seed person created when an empty tree is loaded.
var (
	SeedFirstName = "Root"
	SeedSurname   = "Person"
	SeedPosition  = struct{ X, Y float64 }{250, 150}
)

// SpousePolicy decides what quick-adding a spouse does when the anchor
// already has one.
type SpousePolicy string

const (
	// SpousePolicyReject fails with errors.ErrCodeSpouseConflict.
	SpousePolicyReject SpousePolicy = "reject"
	// SpousePolicyReplace deletes the existing spouse relationship first.
	SpousePolicyReplace SpousePolicy = "replace"
)

// Confirmer asks the user a yes/no question. Returning false cancels the
// operation with errors.ErrCodeCancelled.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) { return f(ctx, prompt) }

// Options configures an Editor. The zero value is usable.
type Options struct {
	// Engine runs Relayout. Defaults to the built-in layered engine.
	Engine layout.Engine
	// Layout is the node geometry shared by engines, grid and junctions.
	Layout layout.Options
	// Offset is the quick-add distance. Defaults to DefaultOffset.
	Offset       float64
	SpousePolicy SpousePolicy
	// Confirmer is asked before single-parent children and deletes.
	// Nil skips confirmation.
	Confirmer Confirmer
	// Junctions draws shared children from a junction node.
	Junctions bool
	// Session holds mode and selection. Defaults to a fresh unlocked state.
	Session *session.State
	Logger  *log.Logger
	// Now is used for ages. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	o.Layout = o.Layout.WithDefaults()
	if o.Engine == nil {
		o.Engine = layout.NewLayered(o.Layout)
	}
	if o.Offset <= 0 {
		o.Offset = DefaultOffset
	}
	if o.SpousePolicy == "" {
		o.SpousePolicy = SpousePolicyReject
	}
	if o.Session == nil {
		o.Session = session.NewState(session.ModeUnlocked)
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
