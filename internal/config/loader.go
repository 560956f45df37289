package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies TURBO_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known TURBO_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Chain ──
	setStr(&cfg.Chain.RPCURL, "TURBO_CHAIN_RPC_URL")
	setInt(&cfg.Chain.ChainID, "TURBO_CHAIN_ID")
	setStr(&cfg.Chain.MulticallAddr, "TURBO_CHAIN_MULTICALL_ADDR")
	setStr(&cfg.Chain.AMMFactoryAddr, "TURBO_CHAIN_AMM_FACTORY_ADDR")
	setStringSlice(&cfg.Chain.MarketFactories, "TURBO_CHAIN_MARKET_FACTORIES")
	setStr(&cfg.Chain.CashToken, "TURBO_CHAIN_CASH_TOKEN")
	setStr(&cfg.Chain.CashSymbol, "TURBO_CHAIN_CASH_SYMBOL")
	setInt(&cfg.Chain.CashDecimals, "TURBO_CHAIN_CASH_DECIMALS")

	// ── Subgraph ──
	setStr(&cfg.Subgraph.URL, "TURBO_SUBGRAPH_URL")
	setStr(&cfg.Subgraph.APIKey, "TURBO_SUBGRAPH_API_KEY")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "TURBO_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "TURBO_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "TURBO_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "TURBO_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "TURBO_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "TURBO_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "TURBO_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "TURBO_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "TURBO_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "TURBO_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "TURBO_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TURBO_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TURBO_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TURBO_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TURBO_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TURBO_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "TURBO_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "TURBO_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "TURBO_S3_REGION")
	setStr(&cfg.S3.Bucket, "TURBO_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "TURBO_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "TURBO_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "TURBO_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "TURBO_S3_FORCE_PATH_STYLE")

	// ── Refresh ──
	setDuration(&cfg.Refresh.Interval, "TURBO_REFRESH_INTERVAL")
	setDuration(&cfg.Refresh.PoolTTL, "TURBO_REFRESH_POOL_TTL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "TURBO_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "TURBO_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "TURBO_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "TURBO_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "TURBO_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "TURBO_SERVER_RATE_LIMIT_WINDOW")

	// ── Top-level ──
	setStr(&cfg.Mode, "TURBO_MODE")
	setStr(&cfg.LogLevel, "TURBO_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
