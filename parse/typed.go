package parse

import (
	"errors"
	"fmt"

	"github.com/nhollis/hl7toolkit/hl7"
	"github.com/nhollis/hl7toolkit/registry"
)

// ErrNoSuchLeaf is returned by GetTyped when idx does not locate a
// repetition within msg (unknown segment, out-of-range group, or
// out-of-range field-group ordinal).
var ErrNoSuchLeaf = errors.New("parse: no such leaf for typed access")

// GetTyped resolves idx to a repetition within msg and decomposes it
// against the registry descriptor for complexType, delegating each
// component to the types package. idx.Component is ignored: typed access
// always decomposes the whole repetition, since the caller is asking for
// every component's typed value, not one already-known leaf string.
//
// Mirrors C4's "typed access" contract: a failure in one component's cast
// never fails the whole field — inspect each Leaf's Err independently.
func GetTyped(msg hl7.Message, idx *hl7.Index, complexType string) ([]registry.Leaf, error) {
	segs := msg.Segments(idx.Segment)
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: segment %s", ErrNoSuchLeaf, idx.Segment)
	}
	group := idx.Group
	if group == 0 {
		group = 1
	}
	segOffset, err := resolveGroupOrdinal(group, len(segs))
	if err != nil {
		return nil, err
	}
	seg := segs[segOffset]

	field, ok := seg.Field(idx.Field)
	if !ok {
		return nil, fmt.Errorf("%w: field %d", ErrNoSuchLeaf, idx.Field)
	}

	fg := idx.FieldGroup
	if fg == 0 {
		fg = 1
	}
	repOffset, err := resolveGroupOrdinal(fg, max(field.RepetitionCount(), 1))
	if err != nil {
		return nil, err
	}
	rep, ok := field.Repetition(repOffset)
	if !ok {
		return nil, fmt.Errorf("%w: repetition %d", ErrNoSuchLeaf, fg)
	}

	return registry.ResolveComplex(complexType, rep, msg.Delimiters())
}

// resolveGroupOrdinal mirrors hl7's internal ordinal resolution (1-based,
// negative-from-end, 0 invalid) without exporting hl7's unexported helper.
func resolveGroupOrdinal(ordinal, n int) (int, error) {
	if ordinal == 0 {
		return 0, fmt.Errorf("%w: ordinal 0 is invalid", hl7.ErrIndexOutOfRange)
	}
	var zeroBased int
	if ordinal > 0 {
		zeroBased = ordinal - 1
	} else {
		zeroBased = n + ordinal
	}
	if zeroBased < 0 || zeroBased >= n {
		return 0, fmt.Errorf("%w: ordinal %d against length %d", hl7.ErrIndexOutOfRange, ordinal, n)
	}
	return zeroBased, nil
}
