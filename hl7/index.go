package hl7

import "fmt"

// Index is the SearchIndex tuple: a segment code plus four ordinals locating
// a leaf within that segment's group. Ordinals are 1-based; a negative
// ordinal counts backward from the end of its collection (-1 is the last
// element). A value of 0 for an ordinal that has been set is invalid.
//
// Group is the segment-group ordinal (which occurrence of the segment code).
// FieldGroup is the repetition ordinal within the field. Zero-valued Field
// and Component mean "not specified" (matching an entire segment or field).
type Index struct {
	Segment    string
	Group      int
	Field      int
	FieldGroup int
	Component  int
}

// NewIndex builds an Index from the given ordinals as passed; it applies no
// defaults. GetIndex reads a FieldGroup of 0 as the first repetition, and a
// Field or Component of 0 as "not specified".
func NewIndex(segment string, group, field, fieldGroup, component int) *Index {
	return &Index{Segment: segment, Group: group, Field: field, FieldGroup: fieldGroup, Component: component}
}

// resolveOrdinal converts a 1-based-or-negative ordinal against a
// collection of length n into a 0-based offset. Returns an error if the
// ordinal is 0 or out of range.
func resolveOrdinal(ordinal, n int) (int, error) {
	if ordinal == 0 {
		return 0, fmt.Errorf("%w: ordinal 0 is invalid", ErrIndexOutOfRange)
	}
	var zeroBased int
	if ordinal > 0 {
		zeroBased = ordinal - 1
	} else {
		zeroBased = n + ordinal
	}
	if zeroBased < 0 || zeroBased >= n {
		return 0, fmt.Errorf("%w: ordinal %d against length %d", ErrIndexOutOfRange, ordinal, n)
	}
	return zeroBased, nil
}

// GetIndex locates the leaf addressed by idx within the message.
func (m *message) GetIndex(idx *Index) (string, error) {
	seg, err := m.resolveSegment(idx)
	if err != nil {
		return "", err
	}
	if idx.Field == 0 {
		return "", nil
	}
	field, ok := seg.Field(idx.Field)
	if !ok {
		return "", fmt.Errorf("%w: field %d", ErrFieldNotFound, idx.Field)
	}

	fg := idx.FieldGroup
	if fg == 0 {
		fg = 1
	}
	repOffset, err := resolveOrdinal(fg, max(field.RepetitionCount(), 1))
	if err != nil {
		return "", err
	}
	rep, ok := field.Repetition(repOffset)
	if !ok {
		return "", nil
	}

	if idx.Component == 0 {
		return rep.Value(), nil
	}
	comp, err := resolveOrdinal(idx.Component, max(len(rep.Components()), 1))
	if err != nil {
		return "", err
	}
	c, ok := rep.Component(comp + 1)
	if !ok {
		return "", nil
	}
	return c.Value(), nil
}

// SetIndex sets the leaf addressed by idx to value.
func (m *message) SetIndex(idx *Index, value string) error {
	seg, err := m.resolveSegment(idx)
	if err != nil {
		return err
	}
	if idx.Field == 0 {
		return fmt.Errorf("%w: field is required for SetIndex", ErrInvalidLocation)
	}

	field, ok := seg.Field(idx.Field)
	if !ok {
		if err := seg.Set(fmt.Sprintf("%d", idx.Field), ""); err != nil {
			return err
		}
		if field, ok = seg.Field(idx.Field); !ok {
			return fmt.Errorf("%w: field %d", ErrFieldNotFound, idx.Field)
		}
	}

	var loc string
	if idx.FieldGroup != 0 {
		loc = fmt.Sprintf("[%d]", idx.FieldGroup-1)
	}
	if idx.Component != 0 {
		loc = fmt.Sprintf("%s.%d", loc, idx.Component)
	}
	return field.Set(loc, value)
}

func (m *message) resolveSegment(idx *Index) (Segment, error) {
	if idx == nil {
		return nil, fmt.Errorf("%w: nil index", ErrInvalidLocation)
	}
	segs := m.Segments(idx.Segment)
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSegmentNotFound, idx.Segment)
	}
	offset, err := resolveOrdinal(idx.Group, len(segs))
	if err != nil {
		return nil, err
	}
	return segs[offset], nil
}
