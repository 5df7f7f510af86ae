/*
Package config loads process configuration from the environment.

PURPOSE:
  A .env file in the working directory is read first (when present), then
  real environment variables fill in or override values. Validate reports
  every problem at once so a misconfigured deploy fails with one message.

KEYS:
  PORT                         HTTP port (8080)
  DB_PATH                      SQLite path, ":memory:" allowed (fundledger.db)
  LOG_LEVEL / LOG_FORMAT       logrus level (info) and json|text (json)
  LEDGER_LOCALE                en|ko label set (en)
  EXPORT_TITLE_PREFIX          Export filename prefix (locale default)
  CORS_ORIGINS                 Comma separated origins (http://localhost:5173)
  AMQP_URL                     Empty disables change events
  AMQP_EXCHANGE / AMQP_QUEUE   (fundledger / ledger_changes)
  GOOGLE_SPREADSHEET_ID        Empty disables the Sheets mirror
  GOOGLE_SHEET_NAME            Mirror tab (locale sheet name)
  GOOGLE_SERVICE_ACCOUNT_JSON  Inline service account credentials
  GOOGLE_SERVICE_ACCOUNT_FILE  Path to service account credentials
  MIRROR_RESYNC_CRON           Full resync schedule (@every 1h)

SEE ALSO:
  - commands/: Each command calls Load and Validate
*/
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/warp/fund-ledger/workbook"
)

// Config holds every runtime setting.
type Config struct {
	// HTTP Server
	Port        string
	CORSOrigins []string

	// Database
	DBPath string

	// Logging
	LogLevel  string
	LogFormat string

	// Workbook
	Locale            string
	ExportTitlePrefix string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	MirrorResyncCron         string
}

// Load reads .env (if any) and the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("failed to read .env file")
	}
	return FromEnv()
}

// FromEnv reads the environment without touching .env.
func FromEnv() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),

		DBPath: getEnv("DB_PATH", "fundledger.db"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Locale:            getEnv("LEDGER_LOCALE", "en"),
		ExportTitlePrefix: getEnv("EXPORT_TITLE_PREFIX", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fundledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changes"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		MirrorResyncCron:         getEnv("MIRROR_RESYNC_CRON", "@every 1h"),
	}
}

// EventsEnabled reports whether change events should be published.
func (c *Config) EventsEnabled() bool {
	return c.AMQPURL != ""
}

// MirrorEnabled reports whether the Google Sheets mirror is configured.
func (c *Config) MirrorEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate returns an error listing every invalid setting.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DBPath == "" {
		errs = append(errs, "database path cannot be empty")
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}
	if f := strings.ToLower(c.LogFormat); f != "json" && f != "text" {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be json or text", c.LogFormat))
	}

	if !workbook.SupportedLocale(c.Locale) {
		errs = append(errs, fmt.Sprintf("invalid locale '%s': must be en or ko", c.Locale))
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.MirrorEnabled() {
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errs = append(errs, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for the sheets mirror")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
		if _, err := cron.ParseStandard(c.MirrorResyncCron); err != nil {
			errs = append(errs, fmt.Sprintf("invalid resync schedule '%s': %v", c.MirrorResyncCron, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
