// Package ack provides HL7 v2.x acknowledgment (ACK) message generation.
//
// The ack package builds ACK messages in response to a parsed message,
// through the Builder interface rather than a single do-everything
// function: Accept, Reject, and Error cover the common cases, and Custom
// takes a fully populated ACK for anything those three don't fit.
//
// # ACK Message Structure
//
// An ACK message consists of:
//   - MSH: header mirrored from the original, with sending/receiving
//     application and facility swapped
//   - MSA: acknowledgment code (MSA-1), original control ID (MSA-2), and an
//     optional text message (MSA-3)
//   - ERR: present only when the ACK carries error information and its code
//     is AE/AR or CE/CR (see ACK.NeedsERRSegment)
//
// # Basic Usage
//
//	b := ack.NewBuilder()
//
//	ackMsg, err := b.Accept(original)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	response := ackMsg.Bytes()
//	conn.Write(response)
//
// Reject and Error take the original message plus a reason/cause:
//
//	ackMsg, err := b.Reject(original, "invalid message format")
//
//	ackMsg, err := b.Error(original, fmt.Errorf("patient ID not found"))
//
// Both fail with ErrNilMessage if original is nil and ErrMissingControlID
// if original has no MSH-10 to correlate the ACK against.
//
// # Acknowledgment Codes
//
// Code and its six values are independent of Builder: Accept/Reject/Error
// only ever produce AA/AR/AE, but Custom accepts any of them, including the
// commit-level codes:
//
//	ApplicationAccept (AA)  message received, validated, and accepted
//	ApplicationError  (AE)  message received but contains errors
//	ApplicationReject (AR)  message rejected outright
//	CommitAccept      (CA)  message committed to safe storage
//	CommitError       (CE)  commit attempted but failed
//	CommitReject      (CR)  commit rejected
//
// # Builder Options
//
// NewBuilder takes functional options:
//
//	b := ack.NewBuilder(
//	    ack.WithControlIDFunc(func() string { return nextID() }),
//	    ack.WithTimeFunc(time.Now),
//	)
//
// WithMessageFactory swaps in an alternate MessageFactory, which is how
// tests replace hl7.Message/hl7.Segment construction without going through
// the package's default factory.
//
// # Custom ACKs with Error Detail
//
// Custom takes an ACK value directly, which is how ERR-segment detail
// (error code, location, diagnostic text, severity) gets attached:
//
//	ackMsg, err := b.Custom(original, ack.ACK{
//	    Code:          ack.ApplicationError,
//	    ControlID:     original.ControlID(),
//	    TextMessage:   "validation failed",
//	    ErrorCode:     "101",
//	    ErrorLocation: "PID-3-1",
//	    ErrorMessage:  "patient identifier is required",
//	    Severity:      "E",
//	})
//
// NewAcceptACK, NewErrorACK, and NewRejectACK build the common ACK shapes
// for callers that want Custom's ERR-segment control without hand-filling
// every field; ACK.HasError and ACK.NeedsERRSegment decide whether the
// resulting message gets an ERR segment at all.
//
// # Example ACK Message
//
// For an incoming ADT^A01, a successful ACK looks like:
//
//	MSH|^~\&|RECEIVING_APP|RECEIVING_FAC|SENDING_APP|SENDING_FAC|20240115120000||ACK^A01|ACK12345|P|2.5.1
//	MSA|AA|MSG12345
//
// An error ACK:
//
//	MSH|^~\&|RECEIVING_APP|RECEIVING_FAC|SENDING_APP|SENDING_FAC|20240115120000||ACK^A01|ACK12346|P|2.5.1
//	MSA|AE|MSG12345|Patient ID not found
//	ERR|||100|E|||Patient identifier is required in PID-3
package ack
