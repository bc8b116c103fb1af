package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"mediagate/credentials"
	mediagatehttp "mediagate/http"
	"mediagate/monitoring"
	"mediagate/ratelimit"
	"mediagate/s3store"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for mediagate.
type Config struct {
	Server     ServerConfig             `mapstructure:"server"`
	Storage    StorageConfig            `mapstructure:"storage"`
	Auth       AuthConfig               `mapstructure:"auth"`
	RateLimit  RateLimitConfig          `mapstructure:"rate_limit"`
	CORS       mediagatehttp.CORSConfig `mapstructure:"cors"`
	Monitoring monitoring.Config        `mapstructure:"monitoring"`
	Log        LogConfig                `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`

	// TrustForwardedFor uses the first X-Forwarded-For hop as the rate
	// limiting identity. Enable only behind a proxy that rewrites the header.
	TrustForwardedFor bool `mapstructure:"trust_forwarded_for"`

	// ProtectFiles requires a bearer session on the file route.
	ProtectFiles bool `mapstructure:"protect_files"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Type string         `mapstructure:"type" validate:"required,oneof=filesystem s3"`
	Path string         `mapstructure:"path"`
	S3   s3store.Config `mapstructure:"s3"`
}

// AuthConfig holds credential and session configuration.
type AuthConfig struct {
	Users      credentials.UsersConfig `mapstructure:"users"`
	SessionTTL time.Duration           `mapstructure:"session_ttl" validate:"required"`
}

// RouteRule configures one route's sliding-window budget. Requests of zero
// leaves the route unlimited.
type RouteRule struct {
	Requests int           `mapstructure:"requests" validate:"min=0"`
	Window   time.Duration `mapstructure:"window"`
}

// ThrottleConfig holds the optional process-wide throttle.
type ThrottleConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

// RedisConfig holds the optional shared rate limit store.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Login         RouteRule      `mapstructure:"login"`
	Files         RouteRule      `mapstructure:"files"`
	SweepInterval time.Duration  `mapstructure:"sweep_interval"`
	Throttle      ThrottleConfig `mapstructure:"throttle"`
	Redis         RedisConfig    `mapstructure:"redis"`
}

// Rules converts the configured route budgets into limiter rules. Routes
// with zero requests are omitted and stay unlimited.
func (c RateLimitConfig) Rules() map[string]ratelimit.Rule {
	rules := make(map[string]ratelimit.Rule)
	if c.Login.Requests > 0 {
		rules[mediagatehttp.RouteLogin] = ratelimit.Rule{Requests: c.Login.Requests, Window: c.Login.Window}
	}
	if c.Files.Requests > 0 {
		rules[mediagatehttp.RouteFiles] = ratelimit.Rule{Requests: c.Files.Requests, Window: c.Files.Window}
	}
	return rules
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":         "server.port",
	"storage-type": "storage.type",
	"storage-path": "storage.path",
	"users-file":   "auth.users.file",
	"redis-addr":   "rate_limit.redis.addr",
	"log-level":    "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.trust_forwarded_for", false)
	v.SetDefault("server.protect_files", false)

	v.SetDefault("storage.type", "filesystem")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.s3.region", "us-east-1")

	v.SetDefault("auth.session_ttl", "1h")

	v.SetDefault("rate_limit.login.requests", 5)
	v.SetDefault("rate_limit.login.window", "1m")
	v.SetDefault("rate_limit.files.requests", 0) // 0 means unlimited
	v.SetDefault("rate_limit.sweep_interval", "1m")
	v.SetDefault("rate_limit.throttle.enabled", false)
	v.SetDefault("rate_limit.throttle.rps", 100)
	v.SetDefault("rate_limit.throttle.burst", 200)
	v.SetDefault("rate_limit.redis.enabled", false)
	v.SetDefault("rate_limit.redis.addr", "localhost:6379")
	v.SetDefault("rate_limit.redis.prefix", "mediagate:rl")

	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.listen_address", ":9090")
	v.SetDefault("monitoring.metrics_path", "/metrics")

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("MEDIAGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// Backend-specific checks the struct tags cannot express.
	if cfg.Storage.Type == "s3" {
		if err := cfg.Storage.S3.Validate(); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
	}
	if cfg.Storage.Type == "filesystem" && cfg.Storage.Path == "" {
		return nil, errors.New("validate config: storage.path is required for the filesystem backend")
	}
	if cfg.Monitoring.Enabled {
		if err := cfg.Monitoring.Validate(); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
	}

	return &cfg, nil
}
