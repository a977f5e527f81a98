package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultListen     = ":8080"
	DefaultTickRate   = 30
	DefaultMaxPlayers = 2
	DefaultServerURL  = "ws://localhost:8080/ws"
)

var ErrInvalid = errors.New("config: invalid")

// Config covers both the server and the client. Fields missing from the
// JSON file keep their defaults.
type Config struct {
	// Listen is the server's HTTP address.
	Listen string `json:"listen"`

	// TickRate is the number of game ticks per second.
	TickRate int `json:"tick_rate"`

	// MaxPlayers caps simultaneous connections; extras are turned away.
	MaxPlayers int `json:"max_players"`

	// DatabasePath is the session ledger DSN. Empty means in-memory.
	DatabasePath string `json:"database_path"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	// ServerURL is where the client connects.
	ServerURL string `json:"server_url"`
}

func Default() Config {
	return Config{
		Listen:     DefaultListen,
		TickRate:   DefaultTickRate,
		MaxPlayers: DefaultMaxPlayers,
		LogLevel:   "info",
		LogFormat:  "text",
		ServerURL:  DefaultServerURL,
	}
}

// Load reads a JSON config file over the defaults. An empty path returns
// the defaults.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.TickRate <= 0 || c.TickRate > 1000 {
		return fmt.Errorf("%w: tick_rate %d out of range 1..1000", ErrInvalid, c.TickRate)
	}
	if c.MaxPlayers <= 0 || c.MaxPlayers > 255 {
		return fmt.Errorf("%w: max_players %d out of range 1..255", ErrInvalid, c.MaxPlayers)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalid, c.LogFormat)
	}
	return nil
}

// Env returns a variable lookup over the process environment that falls
// back to the dotenv file at path. A missing file is not an error.
func Env(path string) (func(string) (string, bool), error) {
	file := map[string]string{}
	if path != "" {
		m, err := godotenv.Read(path)
		switch {
		case err == nil:
			file = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}, nil
}

// ApplyEnv overrides c with the DUEL_* variables lookup finds.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for key, dst := range map[string]*string{
		"DUEL_LISTEN":        &c.Listen,
		"DUEL_DATABASE_PATH": &c.DatabasePath,
		"DUEL_LOG_LEVEL":     &c.LogLevel,
		"DUEL_LOG_FORMAT":    &c.LogFormat,
		"DUEL_SERVER_URL":    &c.ServerURL,
	} {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	for key, dst := range map[string]*int{
		"DUEL_TICK_RATE":   &c.TickRate,
		"DUEL_MAX_PLAYERS": &c.MaxPlayers,
	} {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalid, key, v)
		}
		*dst = n
	}
	return nil
}

// TickInterval is the time between two ticks.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return l, nil
}
