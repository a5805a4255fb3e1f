// Package jsoncodec implements the stdin/stdout JSON interchange format
// (§6): a JSON object carrying a message's delimiter set and its ordered
// segments, each segment's fields decomposed into nested repetition and
// component string arrays. Subcomponents are not split into arrays of
// their own: a component's subcomponents stay in its string, joined by '&'.
//
// Uses encoding/json directly rather than a third-party codec: the
// interchange format here is this program's own JSON shape, not a
// standard one a schema-driven library would help with, and none of the
// pack's repos reach for a third-party JSON library for their own
// ad hoc wire formats.
package jsoncodec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nhollis/hl7toolkit/hl7"
	"github.com/nhollis/hl7toolkit/parse"
)

// DelimiterSet mirrors hl7.Delimiters for JSON transport.
type DelimiterSet struct {
	Field        string `json:"field"`
	Component    string `json:"component"`
	Repetition   string `json:"repetition"`
	Escape       string `json:"escape"`
	SubComponent string `json:"subcomponent"`
	Truncation   string `json:"truncation"`
}

func toDelimiterSet(d *hl7.Delimiters) DelimiterSet {
	return DelimiterSet{
		Field:        string(d.Field),
		Component:    string(d.Component),
		Repetition:   string(d.Repetition),
		Escape:       string(d.Escape),
		SubComponent: string(d.SubComponent),
		Truncation:   string(d.Truncation),
	}
}

func (d DelimiterSet) toHL7() (*hl7.Delimiters, error) {
	runeOf := func(s, field string) (rune, error) {
		r := []rune(s)
		if len(r) != 1 {
			return 0, fmt.Errorf("jsoncodec: delimiter %s must be exactly one character, got %q", field, s)
		}
		return r[0], nil
	}
	delims := &hl7.Delimiters{}
	var err error
	if delims.Field, err = runeOf(d.Field, "field"); err != nil {
		return nil, err
	}
	if delims.Component, err = runeOf(d.Component, "component"); err != nil {
		return nil, err
	}
	if delims.Repetition, err = runeOf(d.Repetition, "repetition"); err != nil {
		return nil, err
	}
	if delims.Escape, err = runeOf(d.Escape, "escape"); err != nil {
		return nil, err
	}
	if delims.SubComponent, err = runeOf(d.SubComponent, "subcomponent"); err != nil {
		return nil, err
	}
	if d.Truncation == "" {
		delims.Truncation = hl7.DefaultTruncationDelimiter
	} else if delims.Truncation, err = runeOf(d.Truncation, "truncation"); err != nil {
		return nil, err
	}
	return delims, nil
}

// SegmentDoc is one segment's code plus its fields, each field decomposed
// into [repetition][component]string; subcomponents stay inside the
// component string, joined by '&'.
type SegmentDoc struct {
	Code   string       `json:"code"`
	Fields [][][]string `json:"fields"`
}

// Document is the JSON interchange shape for a whole Message.
type Document struct {
	Delimiters DelimiterSet `json:"delimiters"`
	Segments   []SegmentDoc `json:"segments"`
}

// Encode converts msg to its JSON Document representation.
func Encode(msg hl7.Message) Document {
	delims := msg.Delimiters()
	doc := Document{Delimiters: toDelimiterSet(delims)}

	for _, seg := range msg.AllSegments() {
		doc.Segments = append(doc.Segments, SegmentDoc{
			Code:   seg.Name(),
			Fields: encodeFields(seg.AllFields()),
		})
	}
	return doc
}

func encodeFields(fields []hl7.Field) [][][]string {
	out := make([][][]string, 0, len(fields))
	for _, f := range fields {
		reps := f.Repetitions()
		if len(reps) == 0 && f.Value() != "" {
			// Raw fields such as MSH-1 and MSH-2 have no parsed repetitions.
			out = append(out, [][]string{{f.Value()}})
			continue
		}
		repOut := make([][]string, 0, len(reps))
		for _, r := range reps {
			comps := r.Components()
			compOut := make([]string, 0, len(comps))
			for _, c := range comps {
				subs := c.SubComponents()
				if len(subs) <= 1 {
					compOut = append(compOut, c.Value())
					continue
				}
				parts := make([]string, 0, len(subs))
				for _, sc := range subs {
					parts = append(parts, sc.Value())
				}
				compOut = append(compOut, strings.Join(parts, "&"))
			}
			repOut = append(repOut, compOut)
		}
		out = append(out, repOut)
	}
	return out
}

// Marshal encodes msg as an indented JSON document.
func Marshal(msg hl7.Message) ([]byte, error) {
	return json.MarshalIndent(Encode(msg), "", "  ")
}

// Decode reconstructs a Message from a Document by rebuilding the flat
// wire-format text (using the document's own delimiter set) and handing
// it to the parser, rather than re-implementing object construction here.
func Decode(doc Document) (hl7.Message, error) {
	delims, err := doc.Delimiters.toHL7()
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	for _, seg := range doc.Segments {
		sb.WriteString(seg.Code)
		isMSH := seg.Code == "MSH"
		for i, field := range seg.Fields {
			if isMSH && i == 0 {
				// MSH-1 is the field separator itself; already written as
				// part of the next field delimiter below, skip re-emitting
				// the field content.
				continue
			}
			sb.WriteRune(delims.Field)
			sb.WriteString(joinField(field, delims))
		}
		sb.WriteRune(hl7.SegmentTerminator)
	}

	return parse.New(parse.WithCustomDelimiters(delims)).Parse([]byte(sb.String()))
}

func joinField(reps [][]string, delims *hl7.Delimiters) string {
	repStrs := make([]string, 0, len(reps))
	for _, comps := range reps {
		repStrs = append(repStrs, strings.Join(comps, string(delims.Component)))
	}
	return strings.Join(repStrs, string(delims.Repetition))
}

// Unmarshal parses a JSON document produced by Marshal back into a Message.
func Unmarshal(data []byte) (hl7.Message, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("jsoncodec: invalid document: %w", err)
	}
	return Decode(doc)
}
