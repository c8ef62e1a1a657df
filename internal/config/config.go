package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"

	AuthModeDevelopment = "development"
	AuthModeToken       = "token"

	StrategyPassport  = "passport"
	StrategyTimestamp = "timestamp"

	minSigningKeyLen = 32
)

type Config struct {
	Port                   string        `mapstructure:"PORT"`
	Env                    string        `mapstructure:"ENV"`
	StoreBackend           string        `mapstructure:"STORE_BACKEND"`
	DatabaseURL            string        `mapstructure:"DATABASE_URL"`
	DBMaxConns             int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns             int32         `mapstructure:"DB_MIN_CONNS"`
	MongoURI               string        `mapstructure:"MONGO_URI"`
	MongoDatabase          string        `mapstructure:"MONGO_DATABASE"`
	RedisURL               string        `mapstructure:"REDIS_URL"`
	AuthMode               string        `mapstructure:"AUTH_MODE"`
	AuthIssuer             string        `mapstructure:"AUTH_ISSUER"`
	AuthSigningKey         string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthTokenTTL           time.Duration `mapstructure:"AUTH_TOKEN_TTL"`
	CORSOrigins            []string      `mapstructure:"CORS_ORIGINS"`
	BodyLimit              string        `mapstructure:"BODY_LIMIT"`
	UploadMaxBytes         int64         `mapstructure:"UPLOAD_MAX_BYTES"`
	RequestTimeout         time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LabNumberStrategy      string        `mapstructure:"LAB_NUMBER_STRATEGY"`
	RequireIssuedLabNumber bool          `mapstructure:"REQUIRE_ISSUED_LAB_NUMBER"`
}

var keys = []string{
	"PORT", "ENV", "STORE_BACKEND", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"MONGO_URI", "MONGO_DATABASE", "REDIS_URL", "AUTH_MODE", "AUTH_ISSUER",
	"AUTH_SIGNING_KEY", "AUTH_TOKEN_TTL", "CORS_ORIGINS", "BODY_LIMIT",
	"UPLOAD_MAX_BYTES", "REQUEST_TIMEOUT", "LAB_NUMBER_STRATEGY",
	"REQUIRE_ISSUED_LAB_NUMBER",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE_BACKEND", BackendPostgres)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("MONGO_DATABASE", "medlab")
	v.SetDefault("AUTH_MODE", "") // "" -> inferred from ENV
	v.SetDefault("AUTH_ISSUER", "medlab")
	v.SetDefault("AUTH_TOKEN_TTL", "12h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5000")
	v.SetDefault("BODY_LIMIT", "50M")
	v.SetDefault("UPLOAD_MAX_BYTES", 5<<20)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LAB_NUMBER_STRATEGY", StrategyPassport)
	v.SetDefault("REQUIRE_ISSUED_LAB_NUMBER", true)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = splitList(origins)
		}
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))

	switch cfg.StoreBackend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	case BackendMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI is required when STORE_BACKEND is %q", BackendMongo)
		}
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// ResolvedAuthMode returns the effective auth mode. An explicit AUTH_MODE
// wins; otherwise development environments run without mandatory tokens.
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return AuthModeDevelopment
	}
	return AuthModeToken
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres, BackendMongo:
	case BackendMemory:
		if !c.IsDev() {
			return fmt.Errorf("STORE_BACKEND %q is only allowed when ENV=development", BackendMemory)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q, %q or %q, got %q", BackendPostgres, BackendMongo, BackendMemory, c.StoreBackend)
	}
	if c.StoreBackend == BackendMongo && c.MongoDatabase == "" {
		return fmt.Errorf("MONGO_DATABASE is required when STORE_BACKEND is %q", BackendMongo)
	}

	mode := c.ResolvedAuthMode()
	if mode != AuthModeDevelopment && mode != AuthModeToken {
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeDevelopment, AuthModeToken, mode)
	}
	if mode == AuthModeToken && len(c.AuthSigningKey) < minSigningKeyLen {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least %d bytes when AUTH_MODE is %q", minSigningKeyLen, AuthModeToken)
	}
	if c.AuthTokenTTL <= 0 {
		return fmt.Errorf("AUTH_TOKEN_TTL must be positive, got %s", c.AuthTokenTTL)
	}

	switch c.LabNumberStrategy {
	case StrategyPassport, StrategyTimestamp:
	default:
		return fmt.Errorf("LAB_NUMBER_STRATEGY must be %q or %q, got %q", StrategyPassport, StrategyTimestamp, c.LabNumberStrategy)
	}

	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", c.UploadMaxBytes)
	}
	return nil
}
