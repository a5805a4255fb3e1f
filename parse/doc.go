// Package parse provides HL7 v2.x message parsing functionality.
//
// The parse package converts raw HL7 message bytes — optionally MLLP-framed —
// into structured [hl7.Message] objects. It handles delimiter detection,
// segment splitting, field parsing, and the DoS-protection limits described
// below. There is no ParseString: callers pass []byte, converting from a
// string with a plain conversion if needed.
//
// # Basic Usage
//
//	p := parse.New()
//	msg, err := p.Parse(data)
//	if err != nil {
//	    log.Fatal("parse error:", err)
//	}
//
//	msgType := msg.Type()         // e.g., "ADT^A01"
//	controlID := msg.ControlID()  // e.g., "12345"
//	version := msg.Version()      // e.g., "2.5.1"
//
// ParseContext takes a context.Context, checked once before work begins and
// again before every 100th segment, so a caller can bound parsing of a very large
// message:
//
//	msg, err := p.ParseContext(ctx, data)
//
// # Parser Options
//
// New takes functional ParserOptions:
//
//	p := parse.New(parse.WithStrictMode(true))
//
//	p := parse.New(parse.WithAllowEmptySegments(true))
//
//	delims := &hl7.Delimiters{
//	    Field:        '|',
//	    Component:    '^',
//	    Repetition:   '~',
//	    Escape:       '\\',
//	    SubComponent: '&',
//	}
//	p := parse.New(parse.WithCustomDelimiters(delims))
//
//	p := parse.New(
//	    parse.WithMaxSegments(500),
//	    parse.WithMaxFieldLength(32768),
//	)
//
//	p := parse.New(parse.WithSegmentTerminator('\n'))
//
// # Delimiter Detection
//
// By default the parser reads delimiters straight off the MSH segment of
// the data it is given: the byte immediately after "MSH" is the field
// separator, and the four bytes that follow it (MSH-2) are, in order, the
// component, repetition, escape, and subcomponent separators. A standard
// MSH opens with "MSH|^~\&|...". WithCustomDelimiters skips this detection
// entirely and is the only way to parse a fragment that has no MSH.
//
// # Strict Mode
//
// Strict mode changes one thing: a blank segment (only whitespace between
// two segment terminators) is reported as ErrEmptySegment instead of being
// skipped, unless WithAllowEmptySegments is also set. Segment names and
// the rest of the structure are checked the same way in both modes;
// non-strict mode is the default.
//
// # DoS Protection
//
// Every Parser enforces two limits, both overridable via options:
//   - maxSegments (default 1000) — ErrTooManySegments once exceeded.
//   - maxFieldLength (default 65536 bytes) — ErrFieldTooLong once exceeded.
//
// # Error Handling
//
// Parse and ParseContext surface *hl7.ParseError for structural failures
// (missing MSH, malformed delimiters) and this package's own sentinels —
// ErrTooManySegments, ErrFieldTooLong, ErrEmptySegment, ErrContextCanceled —
// for the conditions named above; use errors.Is/errors.As to tell them
// apart.
//
// # Example: Complete Parsing Workflow
//
//	p := parse.New(
//	    parse.WithStrictMode(true),
//	    parse.WithMaxSegments(500),
//	)
//
//	msg, err := p.Parse(rawHL7Data)
//	if err != nil {
//	    return fmt.Errorf("failed to parse HL7 message: %w", err)
//	}
//
//	fmt.Printf("Message Type: %s\n", msg.Type())
//	fmt.Printf("Control ID: %s\n", msg.ControlID())
//	fmt.Printf("Version: %s\n", msg.Version())
//
//	patientID, _ := msg.Get("PID.3.1")
//	patientName, _ := msg.Get("PID.5")
//	dob, _ := msg.Get("PID.7")
//
//	fmt.Printf("Patient: %s (ID: %s, DOB: %s)\n",
//	    patientName, patientID, dob)
//
//	for _, obx := range msg.Segments("OBX") {
//	    obsID, _ := obx.Get("3")
//	    value, _ := obx.Get("5")
//	    units, _ := obx.Get("6")
//	    fmt.Printf("  %s: %s %s\n", obsID, value, units)
//	}
package parse
