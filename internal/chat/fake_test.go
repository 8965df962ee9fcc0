package chat

import (
	"sync"
	"time"
)

type fakeChannel struct {
	id      string
	sendErr error

	mu       sync.Mutex
	received []OutboundEvent
	done     chan struct{}
}

func newFakeChannel(id string) *fakeChannel {
	return &fakeChannel{id: id, done: make(chan struct{})}
}

func (f *fakeChannel) ID() string { return f.id }

func (f *fakeChannel) Done() <-chan struct{} { return f.done }

func (f *fakeChannel) Send(ev OutboundEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.received = append(f.received, ev)
	return nil
}

func (f *fakeChannel) getReceived() []OutboundEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]OutboundEvent(nil), f.received...)
}

// fakeConn feeds scripted frames to ReadPump and records writes. Once the
// script is exhausted, reads block until Close.
type fakeConn struct {
	reads  chan []byte
	closed chan struct{}
	once   sync.Once

	mu     sync.Mutex
	writes [][]byte
}

func newFakeConn(frames ...string) *fakeConn {
	c := &fakeConn{reads: make(chan []byte, len(frames)+8), closed: make(chan struct{})}
	for _, f := range frames {
		c.reads <- []byte(f)
	}
	return c
}

func (c *fakeConn) push(frame string) { c.reads <- []byte(frame) }

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-c.reads:
		return 1, data, nil
	case <-c.closed:
		return 0, nil, ErrChannelClosed
	}
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	select {
	case <-c.closed:
		return ErrChannelClosed
	default:
	}
	c.mu.Lock()
	c.writes = append(c.writes, data)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) getWrites() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.writes...)
}

func (c *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetReadLimit(int64)                {}
func (c *fakeConn) SetPongHandler(func(string) error) {}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// slowConn blocks writes until the gate opens, standing in for a peer that
// stops reading. Calls made after markReleased are counted.
type slowConn struct {
	*fakeConn
	gate    chan struct{}
	writing chan struct{}
	once    sync.Once

	mu       sync.Mutex
	released bool
	late     int
}

func newSlowConn(frames ...string) *slowConn {
	return &slowConn{
		fakeConn: newFakeConn(frames...),
		gate:     make(chan struct{}),
		writing:  make(chan struct{}),
	}
}

func (c *slowConn) touch() {
	c.mu.Lock()
	if c.released {
		c.late++
	}
	c.mu.Unlock()
}

func (c *slowConn) markReleased() {
	c.mu.Lock()
	c.released = true
	c.mu.Unlock()
}

func (c *slowConn) lateCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.late
}

func (c *slowConn) WriteMessage(mt int, data []byte) error {
	c.touch()
	c.once.Do(func() { close(c.writing) })
	<-c.gate
	c.touch()
	return c.fakeConn.WriteMessage(mt, data)
}

func (c *slowConn) SetWriteDeadline(t time.Time) error {
	c.touch()
	return c.fakeConn.SetWriteDeadline(t)
}
