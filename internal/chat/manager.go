package chat

import (
	"strings"

	"github.com/rs/zerolog"
)

// Manager binds connections to handles and forwards their events to the
// router. It is the only thing the transport layer talks to.
type Manager struct {
	registry *Registry
	router   *Router
	log      zerolog.Logger
}

func NewManager(registry *Registry, router *Router, log zerolog.Logger) *Manager {
	return &Manager{
		registry: registry,
		router:   router,
		log:      log.With().Str("component", "manager").Logger(),
	}
}

func (m *Manager) Registry() *Registry { return m.registry }

func (m *Manager) Router() *Router { return m.router }

func (m *Manager) Opened(ch Channel) {
	m.log.Debug().Str("conn_id", ch.ID()).Msg("connection opened")
}

func (m *Manager) Join(ch Channel, handle string) {
	m.registry.Register(handle, ch)
	m.log.Info().Str("conn_id", ch.ID()).Str("handle", handle).Int("online", m.registry.Len()).Msg("joined")
}

func (m *Manager) Inbound(handle string, ev InboundEvent) {
	m.router.Route(handle, ev)
}

func (m *Manager) Closed(ch Channel, handle string) {
	if !m.registry.Unregister(handle, ch) {
		m.log.Debug().Str("conn_id", ch.ID()).Str("handle", handle).Msg("stale disconnect ignored")
		return
	}
	m.log.Info().Str("conn_id", ch.ID()).Str("handle", handle).Int("online", m.registry.Len()).Msg("left")
}

// Serve runs one connection until it drops and its writer has stopped.
// authenticated is the handle the session gate vouched for; a join may only
// claim that handle (letter case aside) and is bound to its stored spelling.
func (m *Manager) Serve(c *Client, authenticated string) {
	m.Opened(c)
	go c.WritePump()

	var handle string
	c.ReadPump(func(data []byte) {
		ev, err := DecodeInbound(data)
		if err != nil {
			m.log.Warn().Err(err).Str("conn_id", c.ID()).Msg("invalid frame")
			return
		}
		switch e := ev.(type) {
		case Join:
			if e.Handle != "" && !strings.EqualFold(e.Handle, authenticated) {
				m.log.Warn().Str("conn_id", c.ID()).Str("claimed", e.Handle).Str("handle", authenticated).Msg("join for foreign handle rejected")
				return
			}
			handle = authenticated
			m.Join(c, handle)
		default:
			if handle == "" {
				m.log.Debug().Str("conn_id", c.ID()).Msg("event before join dropped")
				return
			}
			m.Inbound(handle, ev)
		}
	})

	if handle != "" {
		m.Closed(c, handle)
	}
	// the transport reuses the socket once we return
	<-c.Stopped()
}
