package account

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	ErrDuplicateHandle   = errors.New("handle already registered")
	ErrInvalidCredential = errors.New("invalid handle or password")
	ErrInvalidInput      = errors.New("invalid handle or password format")
)

// Gate creates accounts and checks credentials. Its only output consumed by
// the chat core is a validated handle.
type Gate struct {
	store *Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewGate(store *Store, log zerolog.Logger) *Gate {
	return &Gate{
		store: store,
		log:   log.With().Str("component", "gate").Logger(),
		now:   time.Now,
	}
}

// Register creates an account and returns its handle.
func (g *Gate) Register(ctx context.Context, handle, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	creds := Credentials{Handle: handle, Password: password}
	if err := creds.Validate(); err != nil {
		return "", errors.Wrap(ErrInvalidInput, err.Error())
	}
	hash, err := HashPassword(password)
	if err != nil {
		return "", err
	}
	err = g.store.Create(Account{Handle: handle, PasswordHash: hash, CreatedAt: g.now().UTC()})
	if err != nil {
		return "", err
	}
	g.log.Info().Str("handle", handle).Msg("account created")
	return handle, nil
}

// Authenticate returns the stored spelling of handle when password matches.
func (g *Gate) Authenticate(ctx context.Context, handle, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	acc, err := g.store.Get(handle)
	if errors.Is(err, ErrNotFound) {
		return "", ErrInvalidCredential
	}
	if err != nil {
		return "", err
	}
	ok, err := ComparePassword(password, acc.PasswordHash)
	if err != nil {
		g.log.Error().Err(err).Str("handle", acc.Handle).Msg("stored hash unreadable")
		return "", ErrInvalidCredential
	}
	if !ok {
		return "", ErrInvalidCredential
	}
	return acc.Handle, nil
}

func (g *Gate) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.store.Search(query, limit)
}
