// Package config handles loading and managing application configuration.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Oxipay merchant configuration
	Oxipay OxipayConfig

	// Storefront public site configuration
	Store StoreConfig

	// Storefront core internal API configuration
	Core CoreConfig

	// Logging settings
	Log LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port    string
	GinMode string // "debug", "release", or "test"
}

// OxipayConfig holds the merchant's gateway configuration.
type OxipayConfig struct {
	MerchantID        string
	EncryptionKey     string
	UseSandbox        bool
	Region            string          // "AU" or "NZ"; anything else falls back to AU
	MinimumOrderTotal decimal.Decimal // 0 = no lower bound
	MaximumOrderTotal decimal.Decimal // 0 = no upper bound
	OnlineRefunds     bool
	HTTPTimeout       time.Duration
}

// StoreConfig holds the storefront's public-facing settings.
type StoreConfig struct {
	BaseURL      string
	Name         string
	CurrencyCode string
}

// CoreConfig holds storefront core internal API configuration.
type CoreConfig struct {
	BaseURL string
	APIKey  string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string // "json" or "console"
}

// Load reads configuration from the environment, after loading a local
// .env file when one is present. Returns a Config with all settings populated.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Oxipay: OxipayConfig{
			MerchantID:        getEnv("OXIPAY_MERCHANT_ID", ""),
			EncryptionKey:     getEnv("OXIPAY_ENCRYPTION_KEY", ""),
			UseSandbox:        getEnvBool("OXIPAY_USE_SANDBOX", true),
			Region:            getEnv("OXIPAY_REGION", "AU"),
			MinimumOrderTotal: getEnvDecimal("OXIPAY_MIN_ORDER_TOTAL", decimal.Zero),
			MaximumOrderTotal: getEnvDecimal("OXIPAY_MAX_ORDER_TOTAL", decimal.Zero),
			OnlineRefunds:     getEnvBool("OXIPAY_ONLINE_REFUNDS", true),
			HTTPTimeout:       time.Duration(getEnvInt("OXIPAY_HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Store: StoreConfig{
			BaseURL:      getEnv("STORE_BASE_URL", "http://localhost:3000"),
			Name:         getEnv("STORE_NAME", ""),
			CurrencyCode: getEnv("STORE_CURRENCY_CODE", "AUD"),
		},
		Core: CoreConfig{
			BaseURL: getEnv("STORE_CORE_URL", "http://localhost:8000"),
			APIKey:  getEnv("STORE_CORE_API_KEY", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
}

// getEnv retrieves an environment variable with a fallback default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer with a fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as a boolean with a fallback.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDecimal retrieves an environment variable as a decimal with a fallback.
func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if decVal, err := decimal.NewFromString(value); err == nil {
			return decVal
		}
	}
	return defaultValue
}
