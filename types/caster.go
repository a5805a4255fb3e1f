package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nhollis/hl7toolkit/hl7"
	"github.com/nhollis/hl7toolkit/internal/regexcache"
)

// Kind identifies a primitive HL7 v2.x type.
type Kind string

const (
	ST  Kind = "ST"
	ID  Kind = "ID"
	IS  Kind = "IS"
	FT  Kind = "FT"
	TX  Kind = "TX"
	DTM Kind = "DTM"
	DT  Kind = "DT"
	TM  Kind = "TM"
	NM  Kind = "NM"
	SI  Kind = "SI"
	SNM Kind = "SNM"
)

// Truncation limits (applied before validation) per C2.
const (
	limitDTM = 24
	limitDT  = 8
	limitTM  = 16
	limitNM  = 16
	limitSI  = 4
	limitST  = 1000
	limitFT  = 65536
)

const (
	numericPattern = `^[+-]?(?:\d+\.\d+e\d+|\d+e\d+|\d+\.\d+|\d+)$`
	siPattern      = `^\d{1,4}$`
	snmPattern     = `^(?:\+|\d+)$`
)

// truncateRunes truncates s to at most n graphemes, approximated as runes
// (see DESIGN.md for why this toolkit does not use a true grapheme
// segmenter).
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// boundedPipeline applies C2's truncate-then-trim-then-(optionally)lowercase
// pipeline for bounded types.
func boundedPipeline(raw string, limit int, lower bool) string {
	s := truncateRunes(raw, limit)
	s = strings.TrimSpace(s)
	if lower {
		s = strings.ToLower(s)
	}
	return s
}

// rewriteRepetitionAsCRLF rewrites the configured repetition-separator
// character to CRLF, used by TX and FT.
func rewriteRepetitionAsCRLF(s string, delims *hl7.Delimiters) string {
	if delims == nil {
		return s
	}
	return strings.ReplaceAll(s, string(delims.Repetition), "\r\n")
}

// CastST casts a raw leaf to the ST (string) primitive. ST is bounded at
// 1000 graphemes; oversized input is an error, not truncated.
func CastST(raw string) (string, error) {
	n := len([]rune(raw))
	if n > limitST {
		return "", &TooLongError{Type: "ST", Limit: limitST, Actual: n}
	}
	return raw, nil
}

// CastID casts a raw leaf to the ID primitive. ID is unvalidated.
func CastID(raw string) (string, error) {
	return raw, nil
}

// CastIS casts a raw leaf to the IS (coded value) primitive, an alias of ST.
func CastIS(raw string) (string, error) {
	return CastST(raw)
}

// CastFT casts a raw leaf to the FT (formatted text) primitive: bounded at
// 65536 characters, repetition separator rewritten to CRLF.
func CastFT(raw string, delims *hl7.Delimiters) (string, error) {
	s := boundedPipeline(raw, limitFT, false)
	return rewriteRepetitionAsCRLF(s, delims), nil
}

// CastTX casts a raw leaf to the TX (text) primitive: unbounded by this
// toolkit's truncation table, repetition separator rewritten to CRLF.
func CastTX(raw string, delims *hl7.Delimiters) (string, error) {
	return rewriteRepetitionAsCRLF(raw, delims), nil
}

// CastNM casts a raw leaf to the NM (numeric) primitive.
func CastNM(raw string) (float64, error) {
	s := boundedPipeline(raw, limitNM, true)
	re := regexcache.MustCompile(numericPattern)
	if !re.MatchString(s) {
		return 0, &CastError{Type: string(NM), Input: raw, Reason: "does not match numeric gatekeeper"}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &CastError{Type: string(NM), Input: raw, Reason: err.Error()}
	}
	return v, nil
}

// CastSI casts a raw leaf to the SI (sequence id) primitive: a small
// non-negative integer of at most 4 digits.
func CastSI(raw string) (int, error) {
	s := boundedPipeline(raw, limitSI, true)
	re := regexcache.MustCompile(siPattern)
	if !re.MatchString(s) {
		return 0, &CastError{Type: string(SI), Input: raw, Reason: "does not match sequence-id gatekeeper"}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, &CastError{Type: string(SI), Input: raw, Reason: err.Error()}
	}
	return v, nil
}

// CastSNM casts a raw leaf to the SNM (phone-digit string) primitive: `+`
// and decimal digits only; empty input fails.
func CastSNM(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", &CastError{Type: string(SNM), Input: raw, Reason: "empty"}
	}
	re := regexcache.MustCompile(snmPattern)
	if !re.MatchString(s) {
		return "", &CastError{Type: string(SNM), Input: raw, Reason: "does not match phone-digit gatekeeper"}
	}
	return s, nil
}

// CastDTM casts a raw leaf to the DTM (date/time) primitive.
func CastDTM(raw string) (DateTime, error) {
	s := boundedPipeline(raw, limitDTM, true)
	dt, err := ParseDateTime(s)
	if err != nil {
		return DateTime{}, &CastError{Type: string(DTM), Input: raw, Reason: err.Error()}
	}
	return dt, nil
}

// CastDT casts a raw leaf to the DT (date) primitive.
func CastDT(raw string) (DateTime, error) {
	s := boundedPipeline(raw, limitDT, true)
	dt, err := ParseDateTime(s)
	if err != nil {
		return DateTime{}, &CastError{Type: string(DT), Input: raw, Reason: err.Error()}
	}
	return dt, nil
}

// CastTM casts a raw leaf to the TM (time) primitive. The value is
// prefixed with the epoch date "19700101" before parsing, per C2.
func CastTM(raw string) (DateTime, error) {
	s := boundedPipeline(raw, limitTM, true)
	dt, err := ParseDateTime("19700101" + s)
	if err != nil {
		return DateTime{}, &CastError{Type: string(TM), Input: raw, Reason: err.Error()}
	}
	return dt, nil
}

// Cast dispatches to the caster for kind, returning the typed result as
// `any`. delims is required for FT/TX (repetition-separator rewriting) and
// is ignored by other kinds. If required is true and raw is empty, returns
// RequiredMissingError{seq} instead of attempting the cast.
func Cast(kind Kind, raw string, delims *hl7.Delimiters, required bool, seq int) (any, error) {
	if required && raw == "" {
		return nil, &RequiredMissingError{Seq: seq}
	}
	switch kind {
	case ST:
		return CastST(raw)
	case ID:
		return CastID(raw)
	case IS:
		return CastIS(raw)
	case FT:
		return CastFT(raw, delims)
	case TX:
		return CastTX(raw, delims)
	case NM:
		return CastNM(raw)
	case SI:
		return CastSI(raw)
	case SNM:
		return CastSNM(raw)
	case DTM:
		return CastDTM(raw)
	case DT:
		return CastDT(raw)
	case TM:
		return CastTM(raw)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, kind)
	}
}
