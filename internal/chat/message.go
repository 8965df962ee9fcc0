package chat

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// EventType tags both inbound frames and outbound deliveries on the wire.
type EventType string

const (
	TypeJoin      EventType = "join"
	TypeBroadcast EventType = "broadcast"
	TypeDirect    EventType = "direct"
)

var ErrUnknownEvent = errors.New("unknown event type")

// InboundEvent is one of Join, Broadcast or Direct.
type InboundEvent interface {
	inbound()
}

// Join declares the identity of a freshly opened channel.
type Join struct {
	Handle string
}

// Broadcast carries no sender; the sender is whoever the channel is bound to.
type Broadcast struct {
	Text string
}

type Direct struct {
	To   string
	Text string
}

func (Join) inbound()      {}
func (Broadcast) inbound() {}
func (Direct) inbound()    {}

// OutboundEvent is what recipients receive. From is always filled by the server.
type OutboundEvent struct {
	Type EventType `json:"type"`
	From string    `json:"from"`
	Text string    `json:"text"`
}

// frame is the inbound wire shape. It has no sender field on purpose:
// anything a client claims about who it is gets dropped by the decoder.
type frame struct {
	Type   EventType `json:"type"`
	Handle string    `json:"handle,omitempty"`
	To     string    `json:"to,omitempty"`
	Text   string    `json:"text,omitempty"`
}

func DecodeInbound(data []byte) (InboundEvent, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decode inbound frame")
	}
	switch f.Type {
	case TypeJoin:
		return Join{Handle: f.Handle}, nil
	case TypeBroadcast:
		return Broadcast{Text: f.Text}, nil
	case TypeDirect:
		return Direct{To: f.To, Text: f.Text}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownEvent, "%q", f.Type)
	}
}

// EncodeInbound is the client-side counterpart of DecodeInbound.
func EncodeInbound(ev InboundEvent) ([]byte, error) {
	var f frame
	switch e := ev.(type) {
	case Join:
		f = frame{Type: TypeJoin, Handle: e.Handle}
	case Broadcast:
		f = frame{Type: TypeBroadcast, Text: e.Text}
	case Direct:
		f = frame{Type: TypeDirect, To: e.To, Text: e.Text}
	default:
		return nil, ErrUnknownEvent
	}
	return json.Marshal(&f)
}
