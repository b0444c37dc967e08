package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds mpsd-mock configuration.
type Config struct {
	AppEnv   string // APP_ENV
	AppHost  string // APP_HOST
	HTTPPort string // APP_PORT or HTTP_PORT
	LogLevel string // LOG_LEVEL

	// VerboseLogging enables per-operation debug logging inside the
	// directory service.
	VerboseLogging bool

	// ReportEveryOps is the number of directory operations between metric
	// summaries; 0 disables the op-count trigger.
	ReportEveryOps int

	// ReportIntervalSec is the period of the background summary job in
	// seconds; 0 disables it.
	ReportIntervalSec int

	// WebSocket event feed
	WSReadBufferSize  int
	WSWriteBufferSize int
}

// Load loads config from environment (.env if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	reportOps, _ := strconv.Atoi(getEnv("MPSD_REPORT_EVERY_OPS", "100"))
	reportSec, _ := strconv.Atoi(getEnv("MPSD_REPORT_INTERVAL", "60"))
	readBuf, _ := strconv.Atoi(getEnv("WS_READ_BUFFER_SIZE", "4096"))
	writeBuf, _ := strconv.Atoi(getEnv("WS_WRITE_BUFFER_SIZE", "4096"))
	verbose, _ := strconv.ParseBool(getEnv("MPSD_VERBOSE_LOGGING", "false"))

	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		AppHost:           getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:          firstEnv("APP_PORT", "HTTP_PORT", "8095"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		VerboseLogging:    verbose,
		ReportEveryOps:    reportOps,
		ReportIntervalSec: reportSec,
		WSReadBufferSize:  readBuf,
		WSWriteBufferSize: writeBuf,
	}
	return cfg, nil
}

// Validate checks field sanity.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return errors.New("config: APP_PORT is required")
	}
	if c.ReportEveryOps < 0 {
		return errors.New("config: MPSD_REPORT_EVERY_OPS must be >= 0")
	}
	if c.ReportIntervalSec < 0 {
		return errors.New("config: MPSD_REPORT_INTERVAL must be >= 0")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	keys := keysAndDef[:len(keysAndDef)-1]
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
