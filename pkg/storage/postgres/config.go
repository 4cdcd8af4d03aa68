package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns        = 25
	defaultMinConns        = 2
	defaultMaxConnLifetime = 5 * time.Minute
)

// Config describes the execution store's connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32 // clamped to MaxConns
	MaxConnLifetime time.Duration
	ConnectTimeout  time.Duration // zero leaves the DSN's connect_timeout alone

	// MigrateOnStart applies the embedded schema migrations in New.
	MigrateOnStart bool
}

func (c *Config) defaults() {
	if c.MaxConns <= 0 {
		c.MaxConns = defaultMaxConns
	}
	if c.MinConns <= 0 {
		c.MinConns = defaultMinConns
	}
	c.MinConns = min(c.MinConns, c.MaxConns)
	if c.MaxConnLifetime <= 0 {
		c.MaxConnLifetime = defaultMaxConnLifetime
	}
}

// poolConfig parses the DSN and applies the pool limits on top of it.
func (c Config) poolConfig() (*pgxpool.Config, error) {
	c.defaults()
	pc, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	pc.MaxConns = c.MaxConns
	pc.MinConns = c.MinConns
	pc.MaxConnLifetime = c.MaxConnLifetime
	if c.ConnectTimeout > 0 {
		pc.ConnConfig.ConnectTimeout = c.ConnectTimeout
	}
	return pc, nil
}
