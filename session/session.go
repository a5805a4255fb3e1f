// Package session implements the MLLP session layer (C8): two finite
// state machines, one per role, built on top of transport's queue-based
// send/receive and mllp's framing codec.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nhollis/hl7toolkit/ack"
	"github.com/nhollis/hl7toolkit/hl7"
	"github.com/nhollis/hl7toolkit/mllp"
	"github.com/nhollis/hl7toolkit/transport"
)

// Session timing and retry constants, per the source and destination
// state machines.
const (
	RetrySource            = 5
	TimeoutSource          = 30 * time.Second
	TimeoutStepSource      = 1 * time.Second
	TimeoutDestination     = 60 * time.Second
	TimeoutStepDestination = 1 * time.Second
)

// State names the source-path finite state machine's states.
type State int

const (
	Idle State = iota
	Sending
	AwaitingAck
	Done
	Retry
	Failed
)

// ErrRemoteRejected is recorded as a retry's cause when the peer responds
// with a NAK control frame.
var ErrRemoteRejected = errors.New("session: remote rejected message")

// ErrAckTimeout is recorded as a retry's cause when no ACK/NAK arrives
// within TimeoutSource.
var ErrAckTimeout = errors.New("session: timed out awaiting acknowledgment")

// ErrReceiveTimeout is returned by ReceiveMessage when no payload arrives
// within TimeoutDestination.
var ErrReceiveTimeout = errors.New("session: receive timeout")

// SendFailedError is returned once SendMessage exhausts RetrySource
// attempts, wrapping the most recent attempt's failure.
type SendFailedError struct {
	LastErr error
}

func (e *SendFailedError) Error() string {
	return fmt.Sprintf("session: send failed after %d attempts: %v", RetrySource, e.LastErr)
}

func (e *SendFailedError) Unwrap() error { return e.LastErr }

// Channel is a bidirectional handle for one peer over a transport,
// carrying the filter policy and delimiters used to prepare outbound
// content.
type Channel struct {
	t      *transport.Transport
	peer   string
	filter mllp.FilterPolicy
	delims *hl7.Delimiters
}

// NewChannel builds a Channel bound to peer over t.
func NewChannel(t *transport.Transport, peer string, filter mllp.FilterPolicy, delims *hl7.Delimiters) *Channel {
	if delims == nil {
		delims = hl7.DefaultDelimiters()
	}
	return &Channel{t: t, peer: peer, filter: filter, delims: delims}
}

// SendMessage runs the source-path state machine: apply the filter
// policy, hand the frame to the peer's outbound queue, then poll for an
// ACK/NAK up to TimeoutSource. A NAK or timeout counts one retry, up to
// RetrySource attempts, after which SendMessage fails with
// SendFailedError wrapping the last attempt's cause.
func (c *Channel) SendMessage(ctx context.Context, payload []byte) error {
	content := c.filter.Apply(payload, c.delims)

	var lastErr error
	for attempt := 0; attempt < RetrySource; attempt++ {
		if err := c.t.Send(c.peer, content); err != nil {
			lastErr = err
			continue
		}

		acked, nak, err := c.awaitAck(ctx)
		if err != nil {
			return err
		}
		if acked {
			return nil
		}
		if nak {
			lastErr = ErrRemoteRejected
			continue
		}
		lastErr = ErrAckTimeout
	}
	return &SendFailedError{LastErr: lastErr}
}

// awaitAck polls the peer's inbound queue for a single-byte ACK/NAK
// control frame, up to TimeoutSource in TimeoutStepSource increments.
// Non-control frames observed here are not expected on this path (the
// peer should not interleave content while a reply is pending) and are
// ignored rather than misinterpreted as an acknowledgment.
func (c *Channel) awaitAck(ctx context.Context) (acked, nak bool, err error) {
	deadline := time.Now().Add(TimeoutSource)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return false, false, ctx.Err()
		}
		data := c.t.Receive(c.peer)
		if len(data) == 1 {
			switch data[0] {
			case mllp.AckByte:
				return true, false, nil
			case mllp.NakByte:
				return false, true, nil
			}
		}
		if err := sleepOrDone(ctx, TimeoutStepSource); err != nil {
			return false, false, err
		}
	}
	return false, false, nil
}

// ReceiveMessage runs the destination-path state machine: poll for any
// non-control payload, ignoring empty reads, up to TimeoutDestination in
// TimeoutStepDestination increments. ACK/NAK control frames are reserved
// for the source path's awaitAck poll and are ignored here. The caller is
// responsible for invoking Ack or Nak once it has committed (or failed to
// commit) the message; ReceiveMessage never auto-acknowledges.
func (c *Channel) ReceiveMessage(ctx context.Context) ([]byte, error) {
	deadline := time.Now().Add(TimeoutDestination)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		data := c.t.Receive(c.peer)
		if len(data) == 0 {
			if err := sleepOrDone(ctx, TimeoutStepDestination); err != nil {
				return nil, err
			}
			continue
		}
		if len(data) == 1 && (data[0] == mllp.AckByte || data[0] == mllp.NakByte) {
			continue
		}
		return data, nil
	}
	return nil, ErrReceiveTimeout
}

// Ack sends a transport-level accept control frame to the peer.
func (c *Channel) Ack() error {
	return c.t.Send(c.peer, []byte{mllp.AckByte})
}

// Nak sends a transport-level reject control frame to the peer.
func (c *Channel) Nak() error {
	return c.t.Send(c.peer, []byte{mllp.NakByte})
}

// ackBuilder generates ACK/NAK control IDs with uuid rather than the
// ack package's default timestamp-based generator, since the reply's own
// MSH-10 only needs to be unique, not ordered.
var ackBuilder = ack.NewBuilder(ack.WithControlIDFunc(uuid.NewString))

// BuildACK constructs a content-level HL7 acceptance ACK message for
// original, for callers that want to reply with a full MSA-bearing
// message rather than (or in addition to) a transport-level Ack.
func BuildACK(original hl7.Message) (hl7.Message, error) {
	return ackBuilder.Accept(original)
}

// BuildNAK constructs a content-level HL7 rejection ACK message for
// original, carrying reason in MSA-3. It takes the control ID from the
// parsed original; for an inbound frame that failed to parse there is no
// original, and BuildNAKForUnparseable builds the rejection instead.
func BuildNAK(original hl7.Message, reason string) (hl7.Message, error) {
	return ackBuilder.Reject(original, reason)
}

// BuildNAKForUnparseable constructs a rejection ACK when the inbound frame
// itself could not be parsed into a Message (so there is no MSH-10 to
// reflect back in MSA-2). A synthetic one-segment MSH carrying a fresh
// uuid as its control ID stands in for the unparseable original.
func BuildNAKForUnparseable(reason string, delims *hl7.Delimiters) (hl7.Message, error) {
	if delims == nil {
		delims = hl7.DefaultDelimiters()
	}
	msh := hl7.NewSegment("MSH")
	if err := msh.Set("10", uuid.NewString()); err != nil {
		return nil, err
	}
	synthetic := hl7.NewMessage(nil, delims)
	if err := synthetic.AddSegment(msh); err != nil {
		return nil, err
	}
	return ackBuilder.Reject(synthetic, reason)
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
