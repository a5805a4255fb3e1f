// Package registry is the read-only field-descriptor table (C3): a static
// mapping from a two- or three-letter HL7 complex-type code to an ordered
// list of ComponentDescriptor records. It is built once at program start
// and never mutated; callers look up by complex-type code and index by
// sequence number.
package registry

import "github.com/nhollis/hl7toolkit/types"

// ComponentDescriptor describes one component position within a complex
// HL7 type.
type ComponentDescriptor struct {
	// Name is the human-readable component name (e.g. "family name").
	Name string
	// Type is either a primitive type code recognized by the types
	// package (ST, ID, IS, FT, TX, DTM, DT, TM, NM, SI, SNM) or another
	// complex-type code that resolves recursively via this registry.
	Type string
	// MaxLen is the maximum input length; 0 means unbounded.
	MaxLen int
	// Seq is the 1-based sequence (component) number.
	Seq int
	// TableID records an HL7 table id for coded values; "" if not
	// applicable. Only recorded, never validated against a value set
	// (spec Non-goals: no code-system lookup).
	TableID string
	// Required marks the component as mandatory; an empty input for a
	// required component yields RequiredMissing.
	Required bool
	// Truncate marks the component as truncate-on-overflow rather than
	// error-on-overflow.
	Truncate bool
}

// IsComplex reports whether d.Type names another complex type rather than
// a primitive recognized by the types package.
func (d ComponentDescriptor) IsComplex() bool {
	switch types.Kind(d.Type) {
	case types.ST, types.ID, types.IS, types.FT, types.TX, types.DTM, types.DT, types.TM, types.NM, types.SI, types.SNM:
		return false
	default:
		return true
	}
}

// registryTable is the static complex-type -> descriptor-list mapping.
// Populated once in init(); never mutated thereafter, so it is safe for
// unsynchronized concurrent reads.
var registryTable map[string][]ComponentDescriptor

func init() {
	registryTable = map[string][]ComponentDescriptor{
		// CX: Extended Composite ID with Check Digit
		"CX": {
			{Name: "id number", Type: string(types.ST), MaxLen: 15, Seq: 1, Required: true, Truncate: true},
			{Name: "check digit", Type: string(types.ST), MaxLen: 1, Seq: 2, Truncate: true},
			{Name: "check digit scheme", Type: string(types.ID), Seq: 3, TableID: "0061"},
			{Name: "assigning authority", Type: "HD", Seq: 4},
			{Name: "identifier type code", Type: string(types.ID), MaxLen: 5, Seq: 5, TableID: "0203", Truncate: true},
			{Name: "assigning facility", Type: "HD", Seq: 6},
		},
		// HD: Hierarchic Designator
		"HD": {
			{Name: "namespace id", Type: string(types.IS), MaxLen: 20, Seq: 1, TableID: "0300", Truncate: true},
			{Name: "universal id", Type: string(types.ST), MaxLen: 199, Seq: 2, Truncate: true},
			{Name: "universal id type", Type: string(types.ID), MaxLen: 6, Seq: 3, TableID: "0301", Truncate: true},
		},
		// XPN: Extended Person Name
		"XPN": {
			{Name: "family name", Type: string(types.ST), MaxLen: 194, Seq: 1, Required: true, Truncate: true},
			{Name: "given name", Type: string(types.ST), MaxLen: 30, Seq: 2, Truncate: true},
			{Name: "middle name", Type: string(types.ST), MaxLen: 30, Seq: 3, Truncate: true},
			{Name: "suffix", Type: string(types.ST), MaxLen: 20, Seq: 4, Truncate: true},
			{Name: "prefix", Type: string(types.ST), MaxLen: 20, Seq: 5, Truncate: true},
			{Name: "degree", Type: string(types.IS), MaxLen: 6, Seq: 6, TableID: "0360", Truncate: true},
			{Name: "name type code", Type: string(types.ID), MaxLen: 1, Seq: 7, TableID: "0200", Truncate: true},
		},
		// XAD: Extended Address
		"XAD": {
			{Name: "street address", Type: string(types.ST), MaxLen: 184, Seq: 1, Truncate: true},
			{Name: "other designation", Type: string(types.ST), MaxLen: 120, Seq: 2, Truncate: true},
			{Name: "city", Type: string(types.ST), MaxLen: 50, Seq: 3, Truncate: true},
			{Name: "state or province", Type: string(types.ST), MaxLen: 50, Seq: 4, Truncate: true},
			{Name: "zip or postal code", Type: string(types.ST), MaxLen: 12, Seq: 5, Truncate: true},
			{Name: "country", Type: string(types.ID), MaxLen: 3, Seq: 6, TableID: "0399", Truncate: true},
			{Name: "address type", Type: string(types.ID), MaxLen: 3, Seq: 7, TableID: "0190", Truncate: true},
		},
		// XTN: Extended Telecommunication Number
		"XTN": {
			{Name: "telephone number", Type: string(types.ST), MaxLen: 199, Seq: 1, Truncate: true},
			{Name: "use code", Type: string(types.ID), MaxLen: 3, Seq: 2, TableID: "0201", Truncate: true},
			{Name: "equipment type", Type: string(types.ID), MaxLen: 8, Seq: 3, TableID: "0202", Truncate: true},
			{Name: "email address", Type: string(types.ST), MaxLen: 199, Seq: 4, Truncate: true},
			{Name: "country code", Type: string(types.NM), MaxLen: 3, Seq: 5, Truncate: true},
			{Name: "area code", Type: string(types.NM), MaxLen: 3, Seq: 6, Truncate: true},
			{Name: "local number", Type: string(types.NM), MaxLen: 10, Seq: 7, Truncate: true},
		},
		// CE: Coded Element
		"CE": {
			{Name: "identifier", Type: string(types.ST), MaxLen: 20, Seq: 1, Required: true, Truncate: true},
			{Name: "text", Type: string(types.ST), MaxLen: 199, Seq: 2, Truncate: true},
			{Name: "name of coding system", Type: string(types.IS), MaxLen: 20, Seq: 3, TableID: "0396", Truncate: true},
			{Name: "alternate identifier", Type: string(types.ST), MaxLen: 20, Seq: 4, Truncate: true},
			{Name: "alternate text", Type: string(types.ST), MaxLen: 199, Seq: 5, Truncate: true},
			{Name: "name of alternate coding system", Type: string(types.IS), MaxLen: 20, Seq: 6, TableID: "0396", Truncate: true},
		},
		// CWE: Coded With Exceptions (CE superseded from v2.5)
		"CWE": {
			{Name: "identifier", Type: string(types.ST), MaxLen: 20, Seq: 1, Required: true, Truncate: true},
			{Name: "text", Type: string(types.ST), MaxLen: 199, Seq: 2, Truncate: true},
			{Name: "name of coding system", Type: string(types.IS), MaxLen: 20, Seq: 3, TableID: "0396", Truncate: true},
			{Name: "alternate identifier", Type: string(types.ST), MaxLen: 20, Seq: 4, Truncate: true},
			{Name: "alternate text", Type: string(types.ST), MaxLen: 199, Seq: 5, Truncate: true},
			{Name: "name of alternate coding system", Type: string(types.IS), MaxLen: 20, Seq: 6, TableID: "0396", Truncate: true},
		},
		// CQ: Composite Quantity with Units
		"CQ": {
			{Name: "quantity", Type: string(types.NM), Seq: 1, Required: true},
			{Name: "units", Type: "CE", Seq: 2},
		},
		// PL: Person Location
		"PL": {
			{Name: "point of care", Type: string(types.IS), MaxLen: 20, Seq: 1, TableID: "0302", Truncate: true},
			{Name: "room", Type: string(types.IS), MaxLen: 20, Seq: 2, TableID: "0303", Truncate: true},
			{Name: "bed", Type: string(types.IS), MaxLen: 20, Seq: 3, TableID: "0304", Truncate: true},
			{Name: "facility", Type: "HD", Seq: 4},
			{Name: "location status", Type: string(types.IS), MaxLen: 20, Seq: 5, TableID: "0306", Truncate: true},
			{Name: "person location type", Type: string(types.IS), MaxLen: 20, Seq: 6, TableID: "0305", Truncate: true},
			{Name: "building", Type: string(types.IS), MaxLen: 20, Seq: 7, TableID: "0307", Truncate: true},
		},
		// EI: Entity Identifier
		"EI": {
			{Name: "entity identifier", Type: string(types.ST), MaxLen: 199, Seq: 1, Required: true, Truncate: true},
			{Name: "namespace id", Type: string(types.IS), MaxLen: 20, Seq: 2, TableID: "0363", Truncate: true},
			{Name: "universal id", Type: string(types.ST), MaxLen: 199, Seq: 3, Truncate: true},
			{Name: "universal id type", Type: string(types.ID), MaxLen: 6, Seq: 4, TableID: "0301", Truncate: true},
		},
		// MSG: Message Type
		"MSG": {
			{Name: "message code", Type: string(types.ID), MaxLen: 3, Seq: 1, Required: true, TableID: "0076", Truncate: true},
			{Name: "trigger event", Type: string(types.ID), MaxLen: 3, Seq: 2, TableID: "0003", Truncate: true},
			{Name: "message structure", Type: string(types.ID), MaxLen: 10, Seq: 3, TableID: "0354", Truncate: true},
		},
		// PT: Processing Type
		"PT": {
			{Name: "processing id", Type: string(types.ID), MaxLen: 1, Seq: 1, Required: true, TableID: "0103", Truncate: true},
			{Name: "processing mode", Type: string(types.ID), MaxLen: 1, Seq: 2, TableID: "0207", Truncate: true},
		},
		// VID: Version Identifier
		"VID": {
			{Name: "version id", Type: string(types.ID), MaxLen: 5, Seq: 1, Required: true, TableID: "0104", Truncate: true},
			{Name: "internationalization code", Type: "CE", Seq: 2},
			{Name: "international version id", Type: "CE", Seq: 3},
		},
	}
}

// Lookup returns the ordered ComponentDescriptor list for complex-type
// code. The second return value is false if code is not registered.
func Lookup(code string) ([]ComponentDescriptor, bool) {
	d, ok := registryTable[code]
	return d, ok
}

// Descriptor returns the descriptor for sequence seq (1-based) within
// complex-type code. Returns false if either the type or the sequence
// number is not found.
func Descriptor(code string, seq int) (ComponentDescriptor, bool) {
	descs, ok := registryTable[code]
	if !ok {
		return ComponentDescriptor{}, false
	}
	for _, d := range descs {
		if d.Seq == seq {
			return d, true
		}
	}
	return ComponentDescriptor{}, false
}
