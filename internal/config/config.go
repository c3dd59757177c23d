package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string   `mapstructure:"PORT"`
	Env               string   `mapstructure:"ENV"`
	DatabaseURL       string   `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`
	SessionSecret     string   `mapstructure:"SESSION_SECRET"`
	SessionTTLMinutes int      `mapstructure:"SESSION_TTL_MINUTES"`
	StaffTestToken    string   `mapstructure:"STAFF_TEST_TOKEN"`
	DevFallbackUser   string   `mapstructure:"DEV_FALLBACK_USER"`
	RateLimitRPS      float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int      `mapstructure:"RATE_LIMIT_BURST"`
	AuditFallbackFile string   `mapstructure:"AUDIT_FALLBACK_FILE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("SESSION_TTL_MINUTES", 480)
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("AUDIT_FALLBACK_FILE", "logs/audit_fallback.log")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("SESSION_SECRET")
	v.BindEnv("SESSION_TTL_MINUTES")
	v.BindEnv("STAFF_TEST_TOKEN")
	v.BindEnv("DEV_FALLBACK_USER")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("AUDIT_FALLBACK_FILE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() && cfg.DevFallbackUser != "" {
		log.Println("WARNING: ====================================================")
		log.Println("WARNING: DEV_FALLBACK_USER is set. Unauthenticated requests")
		log.Println("WARNING: will be attributed to that staff account.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: ====================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development a
// session secret is mandatory, and the development fallback identity and the
// static test token must be disabled in production.
func (c *Config) Validate() error {
	if !c.IsDev() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required when ENV=%q", c.Env)
	}
	if c.IsProduction() && c.DevFallbackUser != "" {
		return fmt.Errorf("DEV_FALLBACK_USER must not be set in production")
	}
	if c.IsProduction() && c.StaffTestToken != "" {
		return fmt.Errorf("STAFF_TEST_TOKEN must not be set in production")
	}
	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive, got %d", c.SessionTTLMinutes)
	}
	return nil
}
