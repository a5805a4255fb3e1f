package mllp

import (
	"testing"

	"github.com/nhollis/hl7toolkit/hl7"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeAck(t *testing.T) {
	framed := EncodeAck()
	p, err := Decode(framed)
	require.NoError(t, err)
	require.True(t, p.IsAck())
	require.False(t, p.IsNak())
}

func TestEncodeDecodeNak(t *testing.T) {
	framed := EncodeNak()
	p, err := Decode(framed)
	require.NoError(t, err)
	require.True(t, p.IsNak())
}

func TestDecode_Content(t *testing.T) {
	framed := Frame([]byte("MSH|^~\\&|A|B|C|D|20240101||ADT^A01|1|P|2.5"))
	p, err := Decode(framed)
	require.NoError(t, err)
	require.False(t, p.Control)
	require.Contains(t, string(p.Content), "MSH|")
}

func TestDecode_EmptyInputNoError(t *testing.T) {
	p, err := Decode(nil)
	require.NoError(t, err)
	require.Empty(t, p.Content)
	require.False(t, p.Control)
}

func TestDecode_NoStartBlock(t *testing.T) {
	_, err := Decode([]byte("no framing here"))
	require.ErrorIs(t, err, ErrNoStartBlock)
}

func TestDecode_NoEndBlock(t *testing.T) {
	_, err := Decode([]byte{StartBlock, 'a', 'b', 'c'})
	require.ErrorIs(t, err, ErrNoEndBlock)
}

func TestFilterPolicy_Apply(t *testing.T) {
	delims := hl7.DefaultDelimiters()
	content := []byte("abc\x01def")

	require.Equal(t, content, FilterNone.Apply(content, delims))
	require.Equal(t, []byte("abcdef"), FilterStrip.Apply(content, delims))
	require.Contains(t, string(FilterEscape.Apply(content, delims)), `\X01\`)
}
