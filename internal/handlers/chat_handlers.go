package handlers

import (
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"github.com/pelusa-v/pelusa-presence/internal/chat"
)

// WsHandler GET /api/ws (session required)
func (h *Handlers) WsHandler(c *websocket.Conn) {
	handle, _ := c.Locals(localHandle).(string)
	client := chat.NewClient(c, h.client, h.log)
	h.manager.Serve(client, handle)
}

// UpgradeHandler rejects plain HTTP requests to the websocket route.
func (h *Handlers) UpgradeHandler(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// OnlineHandler GET /api/online?exclude=handle
func (h *Handlers) OnlineHandler(c *fiber.Ctx) error {
	ex := strings.TrimSpace(c.Query("exclude"))
	online := lo.Filter(h.manager.Registry().Handles(), func(handle string, _ int) bool {
		return ex == "" || handle != ex
	})
	return c.JSON(online)
}

// HealthHandler GET /healthz
func (h *Handlers) HealthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"online": h.manager.Registry().Len(),
		"routed": h.manager.Router().Stats(),
	})
}
