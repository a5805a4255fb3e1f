package hl7

// Typed access (casting a raw component or subcomponent value to its Go
// representation, per an HL7 data-type code) is not implemented in this
// package: hl7 has no notion of "ST" or "XPN", and the types package that
// does owns that, imports hl7 for *Delimiters — so hl7 cannot import it
// back. CastFunc is the seam that lets Component, Field, and Segment
// expose typed access without owning type semantics themselves: registry
// supplies a CastFunc that closes over types.Cast and hands it down
// through TypedComponent/TypedSubComponent/TypedField.

// CastFunc casts a raw string value to its typed Go representation for the
// HL7 data type named by kind. delims, required and seq are forwarded
// uninterpreted; the caller supplying the CastFunc (registry, via its
// ComponentDescriptor table) decides what they mean for a given kind.
//
// hl7.Component, hl7.Field, and hl7.Segment accept a CastFunc rather than
// importing a concrete caster, which is what lets them expose typed access
// while staying ignorant of the HL7 type system itself.
type CastFunc func(kind, raw string, delims *Delimiters, required bool, seq int) (any, error)
