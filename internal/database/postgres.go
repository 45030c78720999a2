package database

import (
	"fmt"
	"net/url"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
)

// PostgresDSN builds a pgx connection URL from cfg.
func PostgresDSN(cfg Config) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Database,
	}
	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}
	q := url.Values{}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q.Set("sslmode", sslMode)
	if cfg.ConnectionTimeout > 0 {
		q.Set("connect_timeout", fmt.Sprintf("%d", int(cfg.ConnectionTimeout.Seconds())))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// NewPostgresDatabase opens and pings a PostgreSQL pool through pgx.
func NewPostgresDatabase(cfg Config, logger zerolog.Logger) (*SQLDatabase, error) {
	db, err := openPool("pgx", PostgresDSN(cfg), cfg)
	if err != nil {
		return nil, err
	}
	return NewSQLDatabase(db, core.DialectPostgres, logger), nil
}
