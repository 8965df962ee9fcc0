package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/pelusa-v/pelusa-presence/internal/account"
	"github.com/pelusa-v/pelusa-presence/internal/chat"
)

type Handlers struct {
	manager      *chat.Manager
	gate         *account.Gate
	tokens       *account.Tokens
	client       chat.ClientConfig
	secureCookie bool
	log          zerolog.Logger
}

func New(manager *chat.Manager, gate *account.Gate, tokens *account.Tokens, client chat.ClientConfig, secureCookie bool, log zerolog.Logger) *Handlers {
	return &Handlers{
		manager:      manager,
		gate:         gate,
		tokens:       tokens,
		client:       client,
		secureCookie: secureCookie,
		log:          log.With().Str("component", "http").Logger(),
	}
}

// NewApp builds the fiber app with every route mounted. publicDir may be
// empty to skip static files.
func NewApp(h *Handlers, publicDir string) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	if publicDir != "" {
		app.Static("/", publicDir)
	}

	app.Get("/healthz", h.HealthHandler)

	api := app.Group("/api")
	api.Post("/register", h.RegisterHandler)
	api.Post("/login", h.LoginHandler)
	api.Post("/logout", h.LogoutHandler)

	api.Get("/me", h.RequireSession, h.MeHandler)
	api.Get("/search", h.RequireSession, h.SearchHandler) // ?q=&limit=
	api.Get("/online", h.RequireSession, h.OnlineHandler) // ?exclude=handle

	// WS
	api.Get("/ws", h.RequireSession, h.UpgradeHandler, websocket.New(h.WsHandler))

	return app
}
