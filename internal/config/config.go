package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"expensecart/internal/core"
)

type Config struct {
	// HTTP Server
	Port               string
	LogLevel           string
	RateLimitPerMinute int

	// Backend selection
	DataBackend string

	// Remote expense collection
	ExpensesAPIURL     string
	ExpensesCollection string
	RemoteTimeout      time.Duration

	// Local backends
	SQLiteDBPath   string
	MemorySeedFile string

	// AMQP (optional; events are disabled when AMQPURL is empty)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string // prefix; each process appends its own id

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Checkout
	ShippingFee        core.Money
	FreeShippingOver   core.Money
	VATPercent         int
	PaymentLatency     time.Duration
	PaymentFailureRate float64

	// Catalog
	CatalogCacheTTL time.Duration
}

var validBackends = []string{"remote", "memory", "sqlite", "sheets"}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend: getEnv("DATA_BACKEND", "remote"),

		ExpensesAPIURL:     getEnv("EXPENSES_API_URL", "http://localhost:3000"),
		ExpensesCollection: getEnv("EXPENSES_COLLECTION", "jsonExpenses"),
		RemoteTimeout:      getEnvDuration("REMOTE_TIMEOUT", 10*time.Second),

		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/expensecart.db"),
		MemorySeedFile: getEnv("MEMORY_SEED_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "expensecart"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expensecart_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Expenses"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		ShippingFee:        getEnvMoney("SHIPPING_FEE", core.Money{Cents: 500}),
		FreeShippingOver:   getEnvMoney("FREE_SHIPPING_OVER", core.Money{Cents: 4000}),
		VATPercent:         getEnvInt("VAT_PERCENT", 20),
		PaymentLatency:     getEnvDuration("PAYMENT_LATENCY", 800*time.Millisecond),
		PaymentFailureRate: getEnvFloat("PAYMENT_FAILURE_RATE", 0),

		CatalogCacheTTL: getEnvDuration("CATALOG_CACHE_TTL", 30*time.Second),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "remote":
		if u, err := url.Parse(c.ExpensesAPIURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid expenses API URL '%s': must be an absolute http(s) URL", c.ExpensesAPIURL))
		}
		if strings.Trim(c.ExpensesCollection, "/") == "" {
			errors = append(errors, "expenses collection cannot be empty when using remote backend")
		}
		if c.RemoteTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("invalid remote timeout %v: must be positive", c.RemoteTimeout))
		}

	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}

	case "memory":
		if c.MemorySeedFile != "" {
			if _, err := os.Stat(c.MemorySeedFile); err != nil {
				errors = append(errors, fmt.Sprintf("memory seed file does not exist: %s", c.MemorySeedFile))
			}
		}

	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasJSON && !hasFile && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided for sheets backend")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.VATPercent < 0 || c.VATPercent > 100 {
		errors = append(errors, fmt.Sprintf("invalid VAT percent %d: must be between 0 and 100", c.VATPercent))
	}
	if c.PaymentLatency < 0 {
		errors = append(errors, fmt.Sprintf("invalid payment latency %v: must not be negative", c.PaymentLatency))
	} else if c.PaymentLatency > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid payment latency %v: must be at most 1 minute", c.PaymentLatency))
	}
	if c.PaymentFailureRate < 0 || c.PaymentFailureRate > 1 {
		errors = append(errors, fmt.Sprintf("invalid payment failure rate %v: must be between 0 and 1", c.PaymentFailureRate))
	}
	if c.CatalogCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid catalog cache TTL %v: must not be negative", c.CatalogCacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvMoney reads a decimal amount such as "5.00" or "5,00".
func getEnvMoney(key string, defaultValue core.Money) core.Money {
	if value := os.Getenv(key); value != "" {
		if cents, err := core.ParseDecimalToCents(value); err == nil {
			return core.Money{Cents: cents}
		}
	}
	return defaultValue
}
