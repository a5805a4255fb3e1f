package session

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/nhollis/hl7toolkit/ack"
	"github.com/nhollis/hl7toolkit/hl7"
	"github.com/nhollis/hl7toolkit/mllp"
	"github.com/nhollis/hl7toolkit/transport"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func pairedTransports(t *testing.T) (client, server *transport.Transport, clientPeer, serverPeer string) {
	t.Helper()
	port := freePort(t)

	srv, err := transport.Listen("127.0.0.1", port)
	require.NoError(t, err)
	srv.Start()

	cli, err := transport.Connect("127.0.0.1", port)
	require.NoError(t, err)

	clientPeer = cli.ClientIDs()[0]
	require.Eventually(t, func() bool { return len(srv.ClientIDs()) == 1 }, time.Second, 10*time.Millisecond)
	serverPeer = srv.ClientIDs()[0]

	t.Cleanup(func() {
		cli.Close()
		srv.Close()
	})
	return cli, srv, clientPeer, serverPeer
}

func TestSendMessage_AckedImmediately(t *testing.T) {
	cli, srv, clientPeer, serverPeer := pairedTransports(t)

	serverChan := NewChannel(srv, serverPeer, mllp.FilterNone, nil)
	clientChan := NewChannel(cli, clientPeer, mllp.FilterNone, nil)

	done := make(chan error, 1)
	go func() {
		done <- clientChan.SendMessage(context.Background(), []byte("MSH|^~\\&|..."))
	}()

	payload, err := serverChan.ReceiveMessage(context.Background())
	require.NoError(t, err)
	require.Equal(t, "MSH|^~\\&|...", string(payload))

	require.NoError(t, serverChan.Ack())
	require.NoError(t, <-done)
}

func TestSendMessage_NakFailsAfterRetries(t *testing.T) {
	cli, srv, clientPeer, serverPeer := pairedTransports(t)

	serverChan := NewChannel(srv, serverPeer, mllp.FilterNone, nil)
	clientChan := NewChannel(cli, clientPeer, mllp.FilterNone, nil)

	go func() {
		for i := 0; i < RetrySource; i++ {
			_, _ = serverChan.ReceiveMessage(context.Background())
			_ = serverChan.Nak()
		}
	}()

	err := clientChan.SendMessage(context.Background(), []byte("MSH|^~\\&|..."))
	require.Error(t, err)
	var sendFailed *SendFailedError
	require.ErrorAs(t, err, &sendFailed)
	require.ErrorIs(t, err, ErrRemoteRejected)
}

func TestSendMessage_ContextCanceled(t *testing.T) {
	cli, _, clientPeer, _ := pairedTransports(t)
	clientChan := NewChannel(cli, clientPeer, mllp.FilterNone, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := clientChan.SendMessage(ctx, []byte("MSH|^~\\&|..."))
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuildACK(t *testing.T) {
	delims := hl7.DefaultDelimiters()
	msh := hl7.NewSegment("MSH")
	require.NoError(t, msh.Set("10", "CTRL1"))

	original := hl7.NewMessage(nil, delims)
	require.NoError(t, original.AddSegment(msh))

	reply, err := BuildACK(original)
	require.NoError(t, err)

	msa, ok := reply.Segment("MSA")
	require.True(t, ok)
	code, err := msa.Get("1")
	require.NoError(t, err)
	require.Equal(t, string(ack.ApplicationAccept), code)
}

func TestBuildNAKForUnparseable(t *testing.T) {
	reply, err := BuildNAKForUnparseable("no MSH segment found", nil)
	require.NoError(t, err)

	msa, ok := reply.Segment("MSA")
	require.True(t, ok)
	code, err := msa.Get("1")
	require.NoError(t, err)
	require.Equal(t, string(ack.ApplicationReject), code)

	reason, err := msa.Get("3")
	require.NoError(t, err)
	require.Equal(t, "no MSH segment found", reason)

	controlID, err := msa.Get("2")
	require.NoError(t, err)
	require.NotEmpty(t, controlID)
}
