package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string
	LogLevel string

	PricingServiceURL string
	CouponServiceURL  string
	OrderServiceURL   string
	HTTPTimeout       time.Duration

	RabbitMQURL     string
	RabbitMQQueue   string
	ChannelPoolSize int

	RedisURL         string
	SuccessRecordTTL time.Duration

	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	StoreName             string

	ColorSuffixes       []string
	PricingMaxAttempts  int
	PricingRetryBackoff time.Duration

	GatewayTimeout time.Duration
	EnableTracing  bool
}

// fileConfig is the optional YAML overlay read from CONFIG_FILE.
type fileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	Services struct {
		Pricing string `yaml:"pricing"`
		Coupon  string `yaml:"coupon"`
		Order   string `yaml:"order"`
	} `yaml:"services"`
	Shipping struct {
		FreeThreshold string `yaml:"free_threshold"`
		Fee           string `yaml:"fee"`
	} `yaml:"shipping"`
	ColorSuffixes []string `yaml:"color_suffixes"`
	StoreName     string   `yaml:"store_name"`
}

func LoadConfig() (*Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(path); err != nil {
			return nil, err
		}
	}

	return &Config{
		Port:                  getEnv("PORT", "8081"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		PricingServiceURL:     getEnv("PRICING_SERVICE_URL", "http://localhost:5000/api"),
		CouponServiceURL:      getEnv("COUPON_SERVICE_URL", "http://localhost:5000/api"),
		OrderServiceURL:       getEnv("ORDER_SERVICE_URL", "http://localhost:5000/api"),
		HTTPTimeout:           getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second),
		RabbitMQURL:           getEnv("RABBITMQ_URL", ""),
		RabbitMQQueue:         getEnv("RABBITMQ_QUEUE", "order_confirmed"),
		ChannelPoolSize:       getEnvAsInt("CHANNEL_POOL_SIZE", 10),
		RedisURL:              getEnv("REDIS_URL", ""),
		SuccessRecordTTL:      getEnvAsDuration("SUCCESS_RECORD_TTL", 24*time.Hour),
		FreeShippingThreshold: getEnvAsDecimal("FREE_SHIPPING_THRESHOLD", decimal.NewFromInt(50)),
		ShippingFee:           getEnvAsDecimal("SHIPPING_FEE", decimal.RequireFromString("5.99")),
		StoreName:             getEnv("STORE_NAME", "Harshika Fashions"),
		ColorSuffixes:         getEnvAsList("COLOR_SUFFIXES", []string{"Red", "Blue", "Green", "Black", "White", "Yellow"}),
		PricingMaxAttempts:    getEnvAsInt("PRICING_MAX_ATTEMPTS", 2),
		PricingRetryBackoff:   getEnvAsDuration("PRICING_RETRY_BACKOFF", 200*time.Millisecond),
		GatewayTimeout:        getEnvAsDuration("GATEWAY_TIMEOUT", 15*time.Minute),
		EnableTracing:         getEnvAsBool("ENABLE_TRACING", false),
	}, nil
}

// applyFile exports the file's values as environment defaults so that real
// environment variables still take precedence.
func applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config file %s", path)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return errors.Wrapf(err, "parse config file %s", path)
	}

	defaults := map[string]string{
		"PORT":                    fc.Port,
		"LOG_LEVEL":               fc.LogLevel,
		"PRICING_SERVICE_URL":     fc.Services.Pricing,
		"COUPON_SERVICE_URL":      fc.Services.Coupon,
		"ORDER_SERVICE_URL":       fc.Services.Order,
		"FREE_SHIPPING_THRESHOLD": fc.Shipping.FreeThreshold,
		"SHIPPING_FEE":            fc.Shipping.Fee,
		"COLOR_SUFFIXES":          strings.Join(fc.ColorSuffixes, ","),
		"STORE_NAME":              fc.StoreName,
	}
	for key, value := range defaults {
		if value == "" || os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return errors.Wrapf(err, "set %s", key)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := decimal.NewFromString(valueStr)
	if err != nil || value.IsNegative() {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
