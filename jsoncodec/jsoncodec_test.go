package jsoncodec

import (
	"testing"

	"github.com/nhollis/hl7toolkit/parse"
	"github.com/stretchr/testify/require"
)

const sampleADT = "MSH|^~\\&|SENDING|FACILITY|RECEIVING|FACILITY|202301011200||ADT^A01|MSG001|P|2.5\rPID|1||12345^^^MRN||Doe^John^A||19800101|M\r"

func TestEncode_RoundTripsThroughJSON(t *testing.T) {
	p := parse.New()
	msg, err := p.Parse([]byte(sampleADT))
	require.NoError(t, err)

	data, err := Marshal(msg)
	require.NoError(t, err)
	require.Contains(t, string(data), `"code": "PID"`)

	rebuilt, err := Unmarshal(data)
	require.NoError(t, err)

	v, err := rebuilt.Get("PID.5.1")
	require.NoError(t, err)
	require.Equal(t, "Doe", v)

	msh10, err := rebuilt.Get("MSH.10")
	require.NoError(t, err)
	require.Equal(t, "MSG001", msh10)
}

func TestEncode_NestsComponents(t *testing.T) {
	p := parse.New()
	msg, err := p.Parse([]byte(sampleADT))
	require.NoError(t, err)

	doc := Encode(msg)
	var pid *SegmentDoc
	for i := range doc.Segments {
		if doc.Segments[i].Code == "PID" {
			pid = &doc.Segments[i]
		}
	}
	require.NotNil(t, pid)
	// PID-3: "12345^^^MRN" -> repetition 0, 4 components
	require.Equal(t, "12345", pid.Fields[2][0][0])
	require.Equal(t, "MRN", pid.Fields[2][0][3])
}

func TestDecode_InvalidDelimiter(t *testing.T) {
	doc := Document{Delimiters: DelimiterSet{Field: "||"}}
	_, err := Decode(doc)
	require.Error(t, err)
}
