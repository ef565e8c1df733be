package utils

import (
	"log/slog"
	"os"
	"strconv"
)

type Config struct {
	port             string
	hostname         string
	sqlitePath       string
	logRetentionDays int
}

func NewConfig() *Config {
	return &Config{
		port: func() string {
			port := os.Getenv("PORT")
			if port == "" {
				port = "8080"
			}
			slog.Debug("env", "PORT", port)
			return port
		}(),

		hostname: func() string {
			hostname := os.Getenv("HOSTNAME")
			if hostname == "" {
				slog.Error("HOSTNAME is not set")
				os.Exit(1)
			}
			slog.Debug("env", "HOSTNAME", hostname)
			return hostname
		}(),

		sqlitePath: func() string {
			sqlitePath := os.Getenv("SQLITE_PATH")
			if sqlitePath == "" {
				sqlitePath = "./sqlite.db"
			}
			slog.Debug("env", "SQLITE_PATH", sqlitePath)
			return sqlitePath
		}(),

		logRetentionDays: func() int {
			logRetentionDays := os.Getenv("LOG_RETENTION_DAYS")
			if logRetentionDays == "" {
				logRetentionDays = "90"
			}
			days, err := strconv.Atoi(logRetentionDays)
			if err != nil || days < 1 {
				slog.Error("invalid LOG_RETENTION_DAYS", "value", logRetentionDays)
				os.Exit(1)
			}
			slog.Debug("env", "LOG_RETENTION_DAYS", days)
			return days
		}(),
	}
}

// Get PORT env, default to 8080
func (c *Config) GetPort() string {
	return c.port
}

// Get HOSTNAME env, used as the domain part of calendar event UIDs
func (c *Config) GetHostname() string {
	return c.hostname
}

// Get SQLITE_PATH env, default to ./sqlite.db
func (c *Config) GetSqlitePath() string {
	return c.sqlitePath
}

// Get LOG_RETENTION_DAYS env, default to 90
func (c *Config) GetLogRetentionDays() int {
	return c.logRetentionDays
}
