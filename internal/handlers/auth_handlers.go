package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/pelusa-v/pelusa-presence/internal/account"
)

const (
	sessionCookie = "session"
	localHandle   = "handle"
)

type credentialsRequest struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

// RegisterHandler POST /api/register
func (h *Handlers) RegisterHandler(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	handle, err := h.gate.Register(c.UserContext(), strings.TrimSpace(req.Handle), req.Password)
	if err != nil {
		return h.authError(c, err)
	}
	if err := h.startSession(c, handle); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"handle": handle})
}

// LoginHandler POST /api/login
func (h *Handlers) LoginHandler(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	handle, err := h.gate.Authenticate(c.UserContext(), strings.TrimSpace(req.Handle), req.Password)
	if err != nil {
		return h.authError(c, err)
	}
	if err := h.startSession(c, handle); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"handle": handle})
}

// LogoutHandler POST /api/logout
func (h *Handlers) LogoutHandler(c *fiber.Ctx) error {
	c.ClearCookie(sessionCookie)
	return c.SendStatus(fiber.StatusNoContent)
}

// MeHandler GET /api/me (session required)
func (h *Handlers) MeHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"handle": c.Locals(localHandle)})
}

// SearchHandler GET /api/search?q=&limit= (session required)
func (h *Handlers) SearchHandler(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return c.JSON([]string{})
	}
	found, err := h.gate.Search(c.UserContext(), q, searchLimit(c.QueryInt("limit", defaultSearchLimit)))
	if err != nil {
		h.log.Error().Err(err).Str("q", q).Msg("search failed")
		return fiber.ErrInternalServerError
	}
	if found == nil {
		found = []string{}
	}
	return c.JSON(found)
}

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

func searchLimit(n int) int {
	switch {
	case n < 1:
		return defaultSearchLimit
	case n > maxSearchLimit:
		return maxSearchLimit
	}
	return n
}

// RequireSession resolves the session cookie or bearer token to a handle.
func (h *Handlers) RequireSession(c *fiber.Ctx) error {
	token := c.Cookies(sessionCookie)
	if token == "" {
		token = bearerToken(c.Get(fiber.HeaderAuthorization))
	}
	if token == "" {
		return fiber.ErrUnauthorized
	}
	handle, err := h.tokens.Parse(token)
	if err != nil {
		return fiber.ErrUnauthorized
	}
	c.Locals(localHandle, handle)
	return c.Next()
}

// bearerToken extracts the credentials of a Bearer authorization header.
// The scheme name is case-insensitive.
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (h *Handlers) startSession(c *fiber.Ctx, handle string) error {
	token, err := h.tokens.Issue(handle)
	if err != nil {
		h.log.Error().Err(err).Str("handle", handle).Msg("issue token")
		return fiber.ErrInternalServerError
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.tokens.TTL()),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

func (h *Handlers) authError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, account.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_input"})
	case errors.Is(err, account.ErrDuplicateHandle):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "duplicate_handle"})
	case errors.Is(err, account.ErrInvalidCredential):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_credential"})
	default:
		h.log.Error().Err(err).Msg("auth request failed")
		return fiber.ErrInternalServerError
	}
}
