// Package search compiles search-coordinate expressions of the form
// SEG[(g)]-F[[r]][.c] into an hl7.Index usable by the parser's query
// operation (C5).
package search

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/nhollis/hl7toolkit/hl7"
	"github.com/nhollis/hl7toolkit/internal/regexcache"
)

// ErrInvalidExpression is returned when expr does not match the search
// grammar at all (a hard parse failure, distinct from an unknown segment
// code warning).
var ErrInvalidExpression = errors.New("invalid search expression")

const exprPattern = `^([A-Z][A-Z0-9]{2})(?:\((-?\d{1,4})\))?-(-?\d{1,4})(?:\[(-?\d{1,4})\])?(?:\.(-?\d{1,4}))?$`

// KnownSegments is the static, stably-ordered table of recognized HL7
// segment codes, each mapped to a small integer id. Unknown codes are not
// a hard failure (spec §4.5): Compile still succeeds for them but reports
// UnknownSegment in the Result.
var KnownSegments = []string{
	"MSH", "EVN", "PID", "PD1", "NK1", "PV1", "PV2", "DB1", "OBX", "AL1",
	"DG1", "DRG", "PR1", "ROL", "GT1", "IN1", "IN2", "IN3", "ACC", "UB1",
	"UB2", "ORC", "OBR", "NTE", "CTI", "BHS", "BTS", "FHS", "FTS", "MSA",
	"ERR", "SFT", "PRA", "PRD",
}

var segmentIDs = func() map[string]int {
	m := make(map[string]int, len(KnownSegments))
	for i, s := range KnownSegments {
		m[s] = i + 1
	}
	return m
}()

// Result is the outcome of compiling a search expression: the resolved
// Index, plus whether the segment code was recognized by KnownSegments.
// An unrecognized segment code is a warning, not a hard failure: the Index
// is still usable against a message that happens to carry that segment
// (common for Z-segments and vendor extensions).
type Result struct {
	Index          *hl7.Index
	SegmentID      int
	UnknownSegment bool
}

// Compile parses expr (SEG[(g)]-F[[r]][.c]) into a Result. Missing
// ordinals (group, repetition, component) default to 1.
func Compile(expr string) (Result, error) {
	re := regexcache.MustCompile(exprPattern)
	m := re.FindStringSubmatch(expr)
	if m == nil {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidExpression, expr)
	}

	segment := m[1]
	group, err := ordinalOrDefault(m[2])
	if err != nil {
		return Result{}, fmt.Errorf("%w: group ordinal in %q", ErrInvalidExpression, expr)
	}
	field, err := strconv.Atoi(m[3])
	if err != nil {
		return Result{}, fmt.Errorf("%w: field ordinal in %q", ErrInvalidExpression, expr)
	}
	fieldGroup, err := ordinalOrDefault(m[4])
	if err != nil {
		return Result{}, fmt.Errorf("%w: repetition ordinal in %q", ErrInvalidExpression, expr)
	}
	component, err := ordinalOrDefault0(m[5])
	if err != nil {
		return Result{}, fmt.Errorf("%w: component ordinal in %q", ErrInvalidExpression, expr)
	}

	id, known := segmentIDs[segment]

	return Result{
		Index:          hl7.NewIndex(segment, group, field, fieldGroup, component),
		SegmentID:      id,
		UnknownSegment: !known,
	}, nil
}

// ordinalOrDefault parses an optional ordinal string, defaulting to 1 when
// absent (group and repetition ordinals default to 1 per §4.5).
func ordinalOrDefault(s string) (int, error) {
	if s == "" {
		return 1, nil
	}
	return strconv.Atoi(s)
}

// ordinalOrDefault0 parses an optional component ordinal, defaulting to 0
// ("not specified", matching hl7.Index's convention) when absent.
func ordinalOrDefault0(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// SegmentID returns the stable integer id for a known segment code.
func SegmentID(code string) (int, bool) {
	id, ok := segmentIDs[code]
	return id, ok
}
