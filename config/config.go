package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ashtonliu88/SlugScheduler/internal/grid"
	"github.com/ashtonliu88/SlugScheduler/internal/meeting"
)

// Config is the application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"db"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Log         LogConfig         `mapstructure:"log"`
	Grid        GridConfig        `mapstructure:"grid"`
	Parser      ParserConfig      `mapstructure:"parser"`
	Recommender RecommenderConfig `mapstructure:"recommender"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Calendar    CalendarConfig    `mapstructure:"calendar"`
}

// ServerConfig HTTP server settings.
type ServerConfig struct {
	Port           int        `mapstructure:"port"`
	BaseURL        string     `mapstructure:"base_url"`
	CORS           CORSConfig `mapstructure:"cors"`
	BodyLimitBytes int64      `mapstructure:"body_limit_bytes"`
}

// CORSConfig cross-origin settings.
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL settings.
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN builds the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig session token settings.
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// LogConfig logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GridConfig is the visible window of the weekly calendar.
type GridConfig struct {
	StartHour   int      `mapstructure:"start_hour"`
	EndHour     int      `mapstructure:"end_hour"`
	RowHeightPx float64  `mapstructure:"row_height_px"`
	Palette     []string `mapstructure:"palette"`
}

// Axis converts the settings into a validated time axis.
func (g GridConfig) Axis() (grid.TimeAxis, error) {
	return grid.NewTimeAxis(g.StartHour, g.EndHour, g.RowHeightPx)
}

// ParserConfig controls how meeting text is read.
type ParserConfig struct {
	ThursdayStyle             string `mapstructure:"thursday_style"`
	IncludeAssociatedSections bool   `mapstructure:"include_associated_sections"`
}

// Builder returns a pattern builder configured from p.
func (p ParserConfig) Builder() (*meeting.Builder, error) {
	style, err := meeting.ParseThursdayStyle(p.ThursdayStyle)
	if err != nil {
		return nil, err
	}
	b := meeting.NewBuilder(style)
	b.IncludeAssociatedSections = p.IncludeAssociatedSections
	return b, nil
}

// RecommenderConfig points at the course recommendation backend.
type RecommenderConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// CatalogConfig Firestore course catalog settings.
type CatalogConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// RateLimitConfig applies to the source endpoints.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// CalendarConfig controls the .ics export.
type CalendarConfig struct {
	Weeks    int    `mapstructure:"weeks"`
	Timezone string `mapstructure:"timezone"`
}

// Location loads Timezone. An empty or unknown zone falls back to UTC.
func (c CalendarConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from defaults, an optional file and the
// environment, in increasing priority.
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── defaults ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.body_limit_bytes", 10<<20)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "slug_scheduler")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "America/Los_Angeles")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.session_ttl", "720h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("grid.start_hour", grid.DefaultStartHour)
	v.SetDefault("grid.end_hour", grid.DefaultEndHour)
	v.SetDefault("grid.row_height_px", grid.DefaultRowHeightPx)
	v.SetDefault("grid.palette", []string(grid.DefaultPalette))

	v.SetDefault("parser.thursday_style", "auto")
	v.SetDefault("parser.include_associated_sections", true)

	v.SetDefault("recommender.base_url", "http://localhost:5001")
	v.SetDefault("recommender.timeout", "30s")
	v.SetDefault("recommender.cache_ttl", "10m")

	v.SetDefault("catalog.enabled", false)
	v.SetDefault("catalog.credentials_file", "")

	v.SetDefault("rate_limit.requests", 30)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("calendar.weeks", 10)
	v.SetDefault("calendar.timezone", "America/Los_Angeles")

	// ── config file ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── environment ──
	v.SetEnvPrefix("SLUG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// no file: defaults and environment only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("invalid config: auth.jwt_secret is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("invalid config: auth.jwt_secret must be at least 16 characters")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port must be between 1 and 65535")
	}
	if _, err := c.Grid.Axis(); err != nil {
		return fmt.Errorf("invalid config: grid: %w", err)
	}
	if _, err := meeting.ParseThursdayStyle(c.Parser.ThursdayStyle); err != nil {
		return fmt.Errorf("invalid config: parser.thursday_style: %w", err)
	}
	if c.Calendar.Weeks <= 0 {
		return fmt.Errorf("invalid config: calendar.weeks must be positive")
	}
	if c.Calendar.Timezone != "" {
		if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
			return fmt.Errorf("invalid config: calendar.timezone: %w", err)
		}
	}
	return nil
}
