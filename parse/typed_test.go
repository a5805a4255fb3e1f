package parse

import (
	"testing"

	"github.com/nhollis/hl7toolkit/hl7"
	"github.com/stretchr/testify/require"
)

func TestGetTyped_XPN(t *testing.T) {
	p := New()
	msg, err := p.Parse([]byte(simpleADT))
	require.NoError(t, err)

	idx := hl7.NewIndex("PID", 1, 5, 1, 0)
	leaves, err := GetTyped(msg, idx, "XPN")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(leaves), 2)
	require.Equal(t, "Doe", leaves[0].Value)
	require.Equal(t, "John", leaves[1].Value)
}

func TestGetTyped_UnknownSegment(t *testing.T) {
	p := New()
	msg, err := p.Parse([]byte(simpleADT))
	require.NoError(t, err)

	idx := hl7.NewIndex("ZZZ", 1, 5, 1, 0)
	_, err = GetTyped(msg, idx, "XPN")
	require.ErrorIs(t, err, ErrNoSuchLeaf)
}

func TestGetTyped_OutOfRangeGroup(t *testing.T) {
	p := New()
	msg, err := p.Parse([]byte(simpleADT))
	require.NoError(t, err)

	idx := hl7.NewIndex("PID", 2, 5, 1, 0)
	_, err = GetTyped(msg, idx, "XPN")
	require.ErrorIs(t, err, hl7.ErrIndexOutOfRange)
}
