package chat

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

type RouterStats struct {
	Delivered uint64 `json:"delivered"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
}

// Router fans inbound events out to registry channels. It never reports
// delivery problems to the sender.
type Router struct {
	registry *Registry
	log      zerolog.Logger

	delivered atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

func NewRouter(registry *Registry, log zerolog.Logger) *Router {
	return &Router{
		registry: registry,
		log:      log.With().Str("component", "router").Logger(),
	}
}

// Route dispatches ev on behalf of sender. sender must come from the
// connection's session binding.
func (r *Router) Route(sender string, ev InboundEvent) {
	switch e := ev.(type) {
	case Broadcast:
		out := OutboundEvent{Type: TypeBroadcast, From: sender, Text: e.Text}
		for _, ch := range r.registry.Snapshot() {
			r.deliver(ch, out)
		}
	case Direct:
		ch, ok := r.registry.Lookup(e.To)
		if !ok {
			r.dropped.Add(1)
			r.log.Debug().Str("from", sender).Str("to", e.To).Msg("direct message to offline handle dropped")
			return
		}
		r.deliver(ch, OutboundEvent{Type: TypeDirect, From: sender, Text: e.Text})
	default:
		r.log.Debug().Str("from", sender).Msgf("ignoring %T", ev)
	}
}

func (r *Router) deliver(ch Channel, out OutboundEvent) {
	if err := ch.Send(out); err != nil {
		r.failed.Add(1)
		r.log.Warn().Err(err).Str("conn_id", ch.ID()).Str("type", string(out.Type)).Msg("delivery skipped")
		return
	}
	r.delivered.Add(1)
}

func (r *Router) Stats() RouterStats {
	return RouterStats{
		Delivered: r.delivered.Load(),
		Failed:    r.failed.Load(),
		Dropped:   r.dropped.Load(),
	}
}
