package config

import (
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/pelusa-v/pelusa-presence/internal/chat"
)

type Config struct {
	Host      string `env:"CHAT_HOST,default=127.0.0.1"`
	Port      int    `env:"CHAT_PORT,default=3000"`
	PublicDir string `env:"PUBLIC_DIR,default=./public"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`

	SendBufferSize int           `env:"SEND_BUFFER_SIZE,default=16"`
	MaxMessageSize int           `env:"MAX_MESSAGE_SIZE,default=4096"`
	WriteWait      time.Duration `env:"WRITE_WAIT,default=10s"`
	PongWait       time.Duration `env:"PONG_WAIT,default=60s"`

	BadgerPath     string `env:"BADGER_PATH,default=./data/accounts"`
	BadgerInMemory bool   `env:"BADGER_IN_MEMORY,default=false"`

	TokenSecret  string        `env:"TOKEN_SECRET,required=true"`
	TokenTTL     time.Duration `env:"TOKEN_TTL,default=24h"`
	CookieSecure bool          `env:"COOKIE_SECURE,default=false"`
}

// Load reads an optional .env file, then the process environment.
func Load(files ...string) (Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load(files...)

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "read environment")
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("CHAT_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.SendBufferSize < 1 {
		return errors.New("SEND_BUFFER_SIZE must be >= 1")
	}
	if c.MaxMessageSize < 1 {
		return errors.New("MAX_MESSAGE_SIZE must be >= 1")
	}
	if c.PongWait <= 0 {
		return errors.New("PONG_WAIT must be > 0")
	}
	if c.WriteWait <= 0 {
		return errors.New("WRITE_WAIT must be > 0")
	}
	if len(c.TokenSecret) < 16 {
		return errors.New("TOKEN_SECRET must be at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be > 0")
	}
	if !c.BadgerInMemory && c.BadgerPath == "" {
		return errors.New("BADGER_PATH is required unless BADGER_IN_MEMORY is set")
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorePath is the badger directory, empty for an in-memory store.
func (c Config) StorePath() string {
	if c.BadgerInMemory {
		return ""
	}
	return c.BadgerPath
}

// Client derives the per-connection settings. Pings go out at 9/10 of the
// pong deadline.
func (c Config) Client() chat.ClientConfig {
	return chat.ClientConfig{
		SendBuffer:     c.SendBufferSize,
		WriteWait:      c.WriteWait,
		PongWait:       c.PongWait,
		PingPeriod:     c.PongWait * 9 / 10,
		MaxMessageSize: int64(c.MaxMessageSize),
	}
}
