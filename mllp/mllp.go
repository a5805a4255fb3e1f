package mllp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/nhollis/hl7toolkit/hl7"
	"github.com/nhollis/hl7toolkit/internal/escape"
)

// MLLP (Minimal Lower Layer Protocol) framing bytes as defined in the
// HL7 v2.x standard for message transmission over TCP/IP.
const (
	// StartBlock is the start-of-message byte (0x0B, vertical tab).
	// Every MLLP message begins with this byte.
	StartBlock = 0x0B

	// EndBlock is the end-of-message byte (0x1C, file separator).
	// This byte signals the end of the HL7 message content.
	EndBlock = 0x1C

	// CarriageReturn follows the EndBlock (0x0D, carriage return).
	// The complete message terminator is EndBlock + CarriageReturn.
	CarriageReturn = 0x0D
)

// Common errors returned by MLLP operations.
var (
	// ErrInvalidStartBlock is returned when a message does not begin with StartBlock.
	ErrInvalidStartBlock = errors.New("mllp: message does not start with start block (0x0B)")

	// ErrInvalidEndBlock is returned when a message does not end with the proper trailer.
	ErrInvalidEndBlock = errors.New("mllp: message does not end with end block sequence (0x1C 0x0D)")

	// ErrMessageTooLarge is returned when a message exceeds the maximum allowed size.
	ErrMessageTooLarge = errors.New("mllp: message exceeds maximum allowed size")

	// ErrConnectionClosed is returned when the connection is closed unexpectedly.
	ErrConnectionClosed = errors.New("mllp: connection closed")

	// ErrNoStartBlock is returned by Decode when no start block is found.
	ErrNoStartBlock = errors.New("mllp: no start block found")

	// ErrNoEndBlock is returned by Decode when no end block is found after the start block.
	ErrNoEndBlock = errors.New("mllp: no end block found")
)

// Single-byte control frame payloads, carried inside the same SB/EB/CR
// envelope as content frames (C6). These acknowledge or reject a content
// frame at the transport layer, independent of any application-level ACK
// message built by the ack package.
const (
	// AckByte is the single-byte payload of an accept control frame.
	AckByte = 0x06
	// NakByte is the single-byte payload of a reject control frame.
	NakByte = 0x15
)

// FilterPolicy controls how outbound content is sanitized before framing.
type FilterPolicy int

const (
	// FilterNone passes content through unchanged.
	FilterNone FilterPolicy = iota
	// FilterEscape rewrites non-printable-ASCII bytes as HL7 \Xhh\ escapes.
	FilterEscape
	// FilterStrip removes non-printable-ASCII bytes outright.
	FilterStrip
)

// Payload is the decoded result of an MLLP frame: either control (a single
// ACK/NAK byte) or content (a text HL7 message).
type Payload struct {
	// Control is true if this frame carried a single ACK/NAK byte rather
	// than message content.
	Control bool
	// ControlByte is the single payload byte when Control is true; IsAck
	// and IsNak report whether it is AckByte or NakByte.
	ControlByte byte
	// Content is the decoded text payload when Control is false.
	Content []byte
}

// IsAck reports whether the payload is a control frame carrying AckByte.
func (p Payload) IsAck() bool {
	return p.Control && p.ControlByte == AckByte
}

// IsNak reports whether the payload is a control frame carrying NakByte.
func (p Payload) IsNak() bool {
	return p.Control && p.ControlByte == NakByte
}

// Apply runs content through the filter policy, escaping or stripping
// non-printable-ASCII bytes per §4.6's FILTER/ESCAPE policies. FilterNone
// returns content unchanged.
func (p FilterPolicy) Apply(content []byte, delims *hl7.Delimiters) []byte {
	switch p {
	case FilterEscape:
		return []byte(escape.New(delims).EscapeNonPrintable(string(content)))
	case FilterStrip:
		return []byte(escape.FilterNonPrintable(string(content)))
	default:
		return content
	}
}

// EncodeAck frames a transport-level accept control frame.
func EncodeAck() []byte {
	return Frame([]byte{AckByte})
}

// EncodeNak frames a transport-level reject control frame.
func EncodeNak() []byte {
	return Frame([]byte{NakByte})
}

// Decode scans data for the first SB and first EB after it and returns the
// framed payload. A single-byte slice between SB and EB is interpreted as
// a control frame (ACK/NAK); anything else is content. An empty input
// returns an empty content payload without error, leaving any retry
// decision to the caller.
func Decode(data []byte) (Payload, error) {
	if len(data) == 0 {
		return Payload{}, nil
	}

	start := bytes.IndexByte(data, StartBlock)
	if start < 0 {
		return Payload{}, ErrNoStartBlock
	}
	rest := data[start+1:]
	end := bytes.IndexByte(rest, EndBlock)
	if end < 0 {
		return Payload{}, ErrNoEndBlock
	}
	payload := rest[:end]

	if len(payload) == 1 {
		return Payload{Control: true, ControlByte: payload[0]}, nil
	}
	return Payload{Content: payload}, nil
}

// MaxMessageSize is the default maximum message size (16 MB).
// This can be overridden using configuration options.
const MaxMessageSize = 16 * 1024 * 1024

// Frame wraps raw HL7 message data with MLLP framing.
// The returned slice contains StartBlock + data + EndBlock + CarriageReturn.
func Frame(data []byte) []byte {
	result := make([]byte, len(data)+3)
	result[0] = StartBlock
	copy(result[1:], data)
	result[len(data)+1] = EndBlock
	result[len(data)+2] = CarriageReturn
	return result
}

// Unframe removes MLLP framing from a message and returns the raw HL7 data.
// Returns an error if the framing is invalid.
func Unframe(data []byte) ([]byte, error) {
	if len(data) < 3 {
		return nil, ErrInvalidStartBlock
	}

	if data[0] != StartBlock {
		return nil, ErrInvalidStartBlock
	}

	if len(data) < 3 || data[len(data)-2] != EndBlock || data[len(data)-1] != CarriageReturn {
		return nil, ErrInvalidEndBlock
	}

	return data[1 : len(data)-2], nil
}

// Reader wraps an io.Reader to read MLLP-framed messages.
type Reader struct {
	reader    *bufio.Reader
	maxSize   int
	buf       bytes.Buffer
	inMessage bool
}

// NewReader creates a new MLLP reader that reads from r.
// The maxSize parameter limits the maximum message size to prevent DoS attacks.
// If maxSize is 0, MaxMessageSize is used.
func NewReader(r io.Reader, maxSize int) *Reader {
	if maxSize <= 0 {
		maxSize = MaxMessageSize
	}
	return &Reader{
		reader:  bufio.NewReader(r),
		maxSize: maxSize,
	}
}

// ReadMessage reads the next MLLP-framed message from the underlying reader.
// It returns the raw HL7 message data without MLLP framing.
// Returns io.EOF when the connection is closed.
func (r *Reader) ReadMessage() ([]byte, error) {
	r.buf.Reset()
	r.inMessage = false

	for {
		b, err := r.reader.ReadByte()
		if err != nil {
			if err == io.EOF && r.buf.Len() > 0 {
				return nil, ErrConnectionClosed
			}
			return nil, err
		}

		if !r.inMessage {
			// Looking for start block
			if b == StartBlock {
				r.inMessage = true
				continue
			}
			// Ignore bytes before start block (common with keep-alive)
			continue
		}

		// Check for end block
		if b == EndBlock {
			// Read the expected carriage return
			next, err := r.reader.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("mllp: error reading after end block: %w", err)
			}
			if next != CarriageReturn {
				// Not a valid end sequence, include both bytes in message
				r.buf.WriteByte(b)
				r.buf.WriteByte(next)
				continue
			}
			// Valid message complete
			return r.buf.Bytes(), nil
		}

		// Regular message byte
		if r.buf.Len() >= r.maxSize {
			return nil, ErrMessageTooLarge
		}
		r.buf.WriteByte(b)
	}
}

// Writer wraps an io.Writer to write MLLP-framed messages.
type Writer struct {
	writer io.Writer
}

// NewWriter creates a new MLLP writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{writer: w}
}

// WriteMessage writes an HL7 message with MLLP framing to the underlying writer.
// It adds the start block before the message and end block + CR after.
func (w *Writer) WriteMessage(data []byte) error {
	// Write start block
	if _, err := w.writer.Write([]byte{StartBlock}); err != nil {
		return fmt.Errorf("mllp: error writing start block: %w", err)
	}

	// Write message data
	if _, err := w.writer.Write(data); err != nil {
		return fmt.Errorf("mllp: error writing message data: %w", err)
	}

	// Write end block and carriage return
	if _, err := w.writer.Write([]byte{EndBlock, CarriageReturn}); err != nil {
		return fmt.Errorf("mllp: error writing end block: %w", err)
	}

	return nil
}
