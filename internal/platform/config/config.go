package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"hrpay/internal/domain/payroll"
)

type Config struct {
	Addr               string
	DatabaseURL        string
	JWTSecret          string
	TokenTTL           time.Duration
	DataEncryptionKey  string
	Environment        string
	LogLevel           string
	CORSOrigins        []string
	TrustedProxies     []string
	MigrationsDir      string
	PayslipDir         string
	SeedTenantName     string
	SeedAdminEmail     string
	SeedAdminPassword  string
	RunMigrations      bool
	RunSeed            bool
	MaxBodyBytes       int64
	RateLimitPerMinute int
	MetricsEnabled     bool
	JobQueueSize       int
	AutoArchiveEvery   time.Duration
	HourlyDivisor      float64
	MonthDays          float64
	ThursdayHours      float64
	ThursdayHOHours    float64
	HolidayFlatHours   float64
	DefaultHoursPerDay float64
}

// Load reads an optional .env file, then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "err", err)
	}
	return Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenTTL:           getEnvDuration("TOKEN_TTL", 8*time.Hour),
		DataEncryptionKey:  getEnv("DATA_ENCRYPTION_KEY", ""),
		Environment:        getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSOrigins:        getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES", nil),
		MigrationsDir:      getEnv("MIGRATIONS_DIR", "migrations"),
		PayslipDir:         getEnv("PAYSLIP_DIR", "storage/payslips"),
		SeedTenantName:     getEnv("SEED_TENANT_NAME", "Default Tenant"),
		SeedAdminEmail:     getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:  getEnv("SEED_ADMIN_PASSWORD", ""),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:            getEnvBool("RUN_SEED", true),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		JobQueueSize:       getEnvInt("JOB_QUEUE_SIZE", 128),
		AutoArchiveEvery:   getEnvDuration("PAYROLL_AUTO_ARCHIVE_INTERVAL", 0),
		HourlyDivisor:      getEnvFloat("PAYROLL_HOURLY_DIVISOR", 8),
		MonthDays:          getEnvFloat("PAYROLL_MONTH_DAYS", 30),
		ThursdayHours:      getEnvFloat("PAYROLL_THURSDAY_HOURS", 4),
		ThursdayHOHours:    getEnvFloat("PAYROLL_THURSDAY_HEAD_OFFICE_HOURS", 3),
		HolidayFlatHours:   getEnvFloat("PAYROLL_HOLIDAY_FLAT_HOURS", 16),
		DefaultHoursPerDay: getEnvFloat("PAYROLL_DEFAULT_HOURS_PER_DAY", 8),
	}
}

// Policy builds the overtime policy from the payroll knobs.
func (c Config) Policy() payroll.Policy {
	p := payroll.DefaultPolicy()
	p.HourlyDivisor = c.HourlyDivisor
	p.MonthDays = c.MonthDays
	p.ThursdayHours = c.ThursdayHours
	p.ThursdayHeadOfficeHours = c.ThursdayHOHours
	p.HolidayFlatHours = c.HolidayFlatHours
	p.DefaultHoursPerDay = c.DefaultHoursPerDay
	return p
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if _, err := c.ProxyPrefixes(); err != nil {
		return err
	}
	if c.JobQueueSize <= 0 {
		return fmt.Errorf("JOB_QUEUE_SIZE must be positive")
	}
	if c.HourlyDivisor <= 0 || c.MonthDays <= 0 {
		return fmt.Errorf("PAYROLL_HOURLY_DIVISOR and PAYROLL_MONTH_DAYS must be positive")
	}
	if c.ThursdayHours <= 0 || c.ThursdayHOHours <= 0 || c.DefaultHoursPerDay <= 0 {
		return fmt.Errorf("payroll hour thresholds must be positive")
	}
	if c.HolidayFlatHours < 0 {
		return fmt.Errorf("PAYROLL_HOLIDAY_FLAT_HOURS must not be negative")
	}
	return nil
}

// ProxyPrefixes parses TRUSTED_PROXIES; each entry is a CIDR or a bare address.
func (c Config) ProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, entry := range c.TrustedProxies {
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
			}
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		out = append(out, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return out, nil
}
