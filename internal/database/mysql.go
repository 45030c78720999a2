package database

import (
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
)

// MySQLDSN builds a go-sql-driver DSN from cfg.
func MySQLDSN(cfg Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.Database
	mc.ParseTime = true
	if cfg.ConnectionTimeout > 0 {
		mc.Timeout = cfg.ConnectionTimeout
	}
	return mc.FormatDSN()
}

// NewMySQLDatabase opens and pings a MySQL pool.
func NewMySQLDatabase(cfg Config, logger zerolog.Logger) (*SQLDatabase, error) {
	db, err := openPool("mysql", MySQLDSN(cfg), cfg)
	if err != nil {
		return nil, err
	}
	return NewSQLDatabase(db, core.DialectMySQL, logger), nil
}
