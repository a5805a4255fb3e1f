// Package mllp provides MLLP (Minimal Lower Layer Protocol) framing for
// HL7 v2.x messages exchanged over TCP/IP.
//
// MLLP is the standard transport envelope for HL7 messages: a simple
// framing mechanism using control characters to delimit message
// boundaries.
//
// # MLLP Frame Format
//
// An MLLP frame consists of:
//   - Start Block: 0x0B (vertical tab, VT)
//   - HL7 Message Data
//   - End Block: 0x1C (file separator, FS)
//   - Carriage Return: 0x0D (CR)
//
// Frame structure:
//
//	<VT>...HL7 Message Data...<FS><CR>
//	 |                        |   |
//	 0x0B                   0x1C 0x0D
//
// A frame's payload is either content (an HL7 message) or a single
// control byte: AckByte or NakByte, acknowledging or rejecting the
// previous content frame at the transport level. Decode distinguishes
// the two; EncodeAck and EncodeNak build control frames directly.
//
// # Reading and Writing Frames
//
// Reader and Writer wrap a net.Conn (or any io.Reader/io.Writer) for
// streaming use:
//
//	reader := mllp.NewReader(conn, 0)
//	for {
//	    data, err := reader.ReadMessage()
//	    if err != nil {
//	        if errors.Is(err, io.EOF) {
//	            break
//	        }
//	        log.Fatal(err)
//	    }
//	    msg, _ := parser.Parse(data)
//	}
//
//	writer := mllp.NewWriter(conn)
//	if err := writer.WriteMessage(hl7Data); err != nil {
//	    log.Fatal(err)
//	}
//
// Frame and Unframe apply framing to (or strip it from) a single
// in-memory buffer, for callers that already have a complete message
// rather than a stream.
//
// # Filter Policies
//
// FilterPolicy controls how outbound content is sanitized for peers
// that can't tolerate non-printable bytes inside a frame: FilterNone
// passes content through, FilterEscape rewrites it as HL7 \Xhh\
// escapes, and FilterStrip removes it outright.
//
// The session and transport packages build on this package's framing
// and control bytes to implement the full source/destination MLLP
// session state machines; this package itself is concerned only with
// the wire-level envelope.
package mllp
