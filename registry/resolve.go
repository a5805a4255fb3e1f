package registry

import (
	"fmt"

	"github.com/nhollis/hl7toolkit/hl7"
	"github.com/nhollis/hl7toolkit/types"
)

// Leaf is the outcome of resolving one component (or subcomponent) against
// its descriptor: either a typed value or an error, never a single-point
// failure for the whole field (per C4's "typed access" contract).
type Leaf struct {
	Descriptor ComponentDescriptor
	Value      any
	Err        error
}

// castAdapter closes types.Cast over into the hl7.CastFunc shape, which is
// what lets hl7.Component expose TypedComponent/TypedSubComponent without
// hl7 importing types back (types already imports hl7 for *Delimiters).
func castAdapter(kind, raw string, delims *hl7.Delimiters, required bool, seq int) (any, error) {
	return types.Cast(types.Kind(kind), raw, delims, required, seq)
}

// ResolveComplex resolves every component of a hl7.Repetition against the
// ordered ComponentDescriptor list for complex-type code, delegating each
// primitive leaf to the types package and recursing into nested complex
// types (e.g. CX.assigning_authority: HD) via the subcomponents of the
// owning component.
func ResolveComplex(code string, rep hl7.Repetition, delims *hl7.Delimiters) ([]Leaf, error) {
	descs, ok := Lookup(code)
	if !ok {
		return nil, fmt.Errorf("registry: unknown complex type %q", code)
	}

	leaves := make([]Leaf, 0, len(descs))
	for _, d := range descs {
		comp, ok := rep.Component(d.Seq)

		if !d.IsComplex() {
			var v any
			var err error
			if ok {
				v, err = comp.TypedComponent(d.Type, castAdapter, d.Required, d.Seq, delims)
			} else {
				v, err = castAdapter(d.Type, "", delims, d.Required, d.Seq)
			}
			leaves = append(leaves, Leaf{Descriptor: d, Value: v, Err: err})
			continue
		}

		// Nested complex type: resolve against the component's
		// subcomponents, each mapped to the nested type's sequence.
		nested, err := resolveNestedComplex(d.Type, comp, delims)
		leaves = append(leaves, Leaf{Descriptor: d, Value: nested, Err: err})
	}
	return leaves, nil
}

func resolveNestedComplex(code string, comp hl7.Component, delims *hl7.Delimiters) ([]Leaf, error) {
	descs, ok := Lookup(code)
	if !ok {
		return nil, fmt.Errorf("registry: unknown complex type %q", code)
	}

	leaves := make([]Leaf, 0, len(descs))
	for _, d := range descs {
		if d.IsComplex() {
			// HL7 v2.x does not nest below subcomponents; a complex type
			// referenced at this depth resolves only its primitive leaf.
			var raw string
			if comp != nil {
				if sc, ok := comp.SubComponent(d.Seq); ok {
					raw = sc.Value()
				}
			}
			leaves = append(leaves, Leaf{Descriptor: d, Value: raw})
			continue
		}

		var v any
		var err error
		if comp != nil {
			v, err = comp.TypedSubComponent(d.Seq, d.Type, castAdapter, d.Required, delims)
		} else {
			v, err = castAdapter(d.Type, "", delims, d.Required, d.Seq)
		}
		leaves = append(leaves, Leaf{Descriptor: d, Value: v, Err: err})
	}
	return leaves, nil
}
