package chat

import "github.com/pkg/errors"

var (
	ErrChannelClosed = errors.New("channel closed")
	ErrSendQueueFull = errors.New("send queue full")
)

// Channel is one live client connection as seen by the registry and router.
// Send must not block: it either enqueues the event or fails.
type Channel interface {
	ID() string
	Send(ev OutboundEvent) error
	// Done is closed once, when the underlying connection goes away.
	Done() <-chan struct{}
}
