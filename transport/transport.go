// Package transport is the lower transport layer (C7): a single type
// abstracting both a connecting client and a listening server over
// MLLP-framed TCP, exposing queue-based send/receive per peer instead of
// a request/response handler callback.
package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nhollis/hl7toolkit/mllp"
)

// Default bounds, mirroring the teacher's DoS-conscious defaults in
// mllp/options.go.
const (
	DefaultQueueDepth  = 256
	DefaultDialTimeout = 30 * time.Second
)

var (
	// ErrClosed is returned by Send/Receive after Close has been called.
	ErrClosed = errors.New("transport: closed")
	// ErrUnknownPeer is returned when peer does not name a connected peer.
	ErrUnknownPeer = errors.New("transport: unknown peer")
	// ErrQueueFull is returned by Send when the peer's outbound queue is full.
	ErrQueueFull = errors.New("transport: outbound queue full")
)

type role int

const (
	roleClient role = iota
	roleServer
)

// Transport is a single connecting-or-listening endpoint. Connect builds a
// client Transport with one peer already queued; Listen builds a server
// Transport whose Start spawns the accept loop.
type Transport struct {
	role        role
	addr        string
	queueDepth  int
	dialTimeout time.Duration

	listener net.Listener

	peersMu sync.RWMutex
	peers   map[string]*peerQueues

	closed atomic.Bool
	wg     sync.WaitGroup
}

// peerQueues holds the bounded inbound/outbound channels and reader/writer
// goroutines for one connected peer, keyed by its "host:port" address.
type peerQueues struct {
	conn     net.Conn
	inbound  chan []byte
	outbound chan []byte
	done     chan struct{}
	once     sync.Once
}

func (pq *peerQueues) close() {
	pq.once.Do(func() {
		close(pq.done)
		_ = pq.conn.Close()
	})
}

// Connect dials host:port and returns a client Transport with that single
// connection already registered as a peer.
func Connect(host string, port int, opts ...Option) (*Transport, error) {
	t := newTransport(roleClient, fmt.Sprintf("%s:%d", host, port), opts...)
	conn, err := net.DialTimeout("tcp", t.addr, t.dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("transport: connect %s: %w", t.addr, err)
	}
	t.addPeer(conn)
	return t, nil
}

// Listen prepares a server Transport bound to host:port. The accept loop
// does not run until Start is called.
func Listen(host string, port int, opts ...Option) (*Transport, error) {
	t := newTransport(roleServer, fmt.Sprintf("%s:%d", host, port), opts...)
	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", t.addr, err)
	}
	t.listener = ln
	return t, nil
}

func newTransport(r role, addr string, opts ...Option) *Transport {
	t := &Transport{
		role:        r,
		addr:        addr,
		queueDepth:  DefaultQueueDepth,
		dialTimeout: DefaultDialTimeout,
		peers:       make(map[string]*peerQueues),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Option configures a Transport at construction time.
type Option func(*Transport)

// WithQueueDepth sets the bound on each peer's inbound/outbound queues.
func WithQueueDepth(n int) Option {
	return func(t *Transport) {
		if n > 0 {
			t.queueDepth = n
		}
	}
}

// WithDialTimeout sets the client dial timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.dialTimeout = d
		}
	}
}

// Start spawns the server accept loop. It is a no-op for a client
// Transport (the connection is already established by Connect).
func (t *Transport) Start() {
	if t.role != roleServer || t.listener == nil {
		return
	}
	t.wg.Add(1)
	go t.acceptLoop()
}

func (t *Transport) acceptLoop() {
	defer t.wg.Done()
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			if t.closed.Load() {
				return
			}
			continue
		}
		t.addPeer(conn)
	}
}

func (t *Transport) addPeer(conn net.Conn) {
	pq := &peerQueues{
		conn:     conn,
		inbound:  make(chan []byte, t.queueDepth),
		outbound: make(chan []byte, t.queueDepth),
		done:     make(chan struct{}),
	}
	key := conn.RemoteAddr().String()

	t.peersMu.Lock()
	t.peers[key] = pq
	t.peersMu.Unlock()

	t.wg.Add(2)
	go t.drainInbound(key, pq)
	go t.drainOutbound(pq)
}

// drainInbound reads MLLP-framed content off conn, already unwrapped by
// mllp.Reader, and pushes the payload onto the peer's inbound queue.
// Control frames (ACK/NAK) arrive as a single byte; content frames arrive
// as the full decoded message text.
func (t *Transport) drainInbound(key string, pq *peerQueues) {
	defer t.wg.Done()
	defer t.removePeer(key)

	reader := mllp.NewReader(pq.conn, mllp.MaxMessageSize)
	for {
		data, err := reader.ReadMessage()
		if err != nil {
			return
		}
		select {
		case pq.inbound <- data:
		case <-pq.done:
			return
		}
	}
}

func (t *Transport) drainOutbound(pq *peerQueues) {
	defer t.wg.Done()
	writer := mllp.NewWriter(pq.conn)
	for {
		select {
		case data := <-pq.outbound:
			if err := writer.WriteMessage(data); err != nil {
				pq.close()
				return
			}
		case <-pq.done:
			return
		}
	}
}

func (t *Transport) removePeer(key string) {
	t.peersMu.Lock()
	pq, ok := t.peers[key]
	if ok {
		delete(t.peers, key)
	}
	t.peersMu.Unlock()
	if ok {
		pq.close()
	}
}

func (t *Transport) peer(id string) (*peerQueues, bool) {
	t.peersMu.RLock()
	defer t.peersMu.RUnlock()
	pq, ok := t.peers[id]
	return pq, ok
}

// Send enqueues unframed content (or a single ACK/NAK control byte) for
// delivery to peer; the outbound goroutine applies MLLP framing (C6)
// before writing to the socket. Returns ErrUnknownPeer if peer is not
// connected, ErrQueueFull if the outbound queue is saturated.
func (t *Transport) Send(peer string, data []byte) error {
	if t.closed.Load() {
		return ErrClosed
	}
	pq, ok := t.peer(peer)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, peer)
	}
	select {
	case pq.outbound <- data:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrQueueFull, peer)
	}
}

// Receive returns the next queued, already-unframed inbound payload for
// peer, or nil if nothing is queued. It never blocks. The caller inspects
// the length of the returned slice to distinguish a single-byte ACK/NAK
// control payload from message content.
func (t *Transport) Receive(peer string) []byte {
	pq, ok := t.peer(peer)
	if !ok {
		return nil
	}
	select {
	case data := <-pq.inbound:
		return data
	default:
		return nil
	}
}

// WaitIncoming reports whether peer currently has a queued inbound frame,
// without consuming it.
func (t *Transport) WaitIncoming(peer string) bool {
	pq, ok := t.peer(peer)
	if !ok {
		return false
	}
	return len(pq.inbound) > 0
}

// ClientIDs returns the currently connected peer addresses.
func (t *Transport) ClientIDs() []string {
	t.peersMu.RLock()
	defer t.peersMu.RUnlock()
	ids := make([]string, 0, len(t.peers))
	for id := range t.peers {
		ids = append(ids, id)
	}
	return ids
}

// AddressInfo returns the "host:port" this Transport is bound to (server)
// or connected to (client).
func (t *Transport) AddressInfo() string {
	if t.role == roleServer && t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.addr
}

// Close stops the accept loop (if any), closes all peer connections, and
// waits for their goroutines to exit.
func (t *Transport) Close() error {
	t.closed.Store(true)
	if t.listener != nil {
		_ = t.listener.Close()
	}
	t.peersMu.Lock()
	peers := make([]*peerQueues, 0, len(t.peers))
	for _, pq := range t.peers {
		peers = append(peers, pq)
	}
	t.peersMu.Unlock()
	for _, pq := range peers {
		pq.close()
	}
	t.wg.Wait()
	return nil
}
