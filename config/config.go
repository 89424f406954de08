package config

import (
	"errors"
	"fmt"
	"strings"

	validator "github.com/asaskevich/govalidator"
	"github.com/blang/semver"
	"github.com/spf13/viper"
)

// Configuration
type Configuration struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	AdminPort int    `mapstructure:"admin_port"`
	// Version is sent to the exchange as the "v" query parameter.
	Version string `mapstructure:"version"`
	// COPPA flags every outbound request as child-directed.
	COPPA      bool `mapstructure:"coppa"`
	EnableGzip bool `mapstructure:"enable_gzip"`
	// StatusResponse is the body of GET /status. Empty answers 204.
	StatusResponse string     `mapstructure:"status_response"`
	Adapter        Adapter    `mapstructure:"adapter"`
	Storage        Storage    `mapstructure:"storage"`
	Metrics        Metrics    `mapstructure:"metrics"`
	Cycles         Cycles     `mapstructure:"cycles"`
	RateLimit      RateLimit  `mapstructure:"rate_limit"`
	Client         HTTPClient `mapstructure:"http_client"`
}

// HTTPClient tunes the transport used for exchange calls.
type HTTPClient struct {
	MaxConnsPerHost     int `mapstructure:"max_connections_per_host"`
	MaxIdleConns        int `mapstructure:"max_idle_connections"`
	MaxIdleConnsPerHost int `mapstructure:"max_idle_connections_per_host"`
	IdleConnTimeout     int `mapstructure:"idle_connection_timeout_seconds"`
	DialTimeout         int `mapstructure:"dial_timeout_ms"`
	DialKeepAlive       int `mapstructure:"dial_keepalive_seconds"`
}

// Cycles controls how long a built cycle stays available to the response and sync endpoints.
type Cycles struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

type RateLimit struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// Adapter holds the exchange endpoints.
type Adapter struct {
	Endpoint       string `mapstructure:"endpoint"`
	NativeEndpoint string `mapstructure:"native_endpoint"`
	UserSyncURL    string `mapstructure:"usersync_url"`
	// TimeoutMS bounds a single round trip to the exchange when the caller gives no tmax.
	TimeoutMS int `mapstructure:"timeout_ms"`
}

// Storage selects the backend used for the local-storage style lookups (e.g. segment data).
type Storage struct {
	Type       string   `mapstructure:"type"`
	Filename   string   `mapstructure:"filename"`
	TTLSeconds int      `mapstructure:"ttl_seconds"`
	CacheSize  int      `mapstructure:"cache_size"`
	TimeoutMS  int      `mapstructure:"timeout_ms"`
	Redis      Redis    `mapstructure:"redis"`
	Postgres   Postgres `mapstructure:"postgres"`
	Memcache   Memcache `mapstructure:"memcache"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	DB       int    `mapstructure:"db"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	TLS      bool   `mapstructure:"tls"`
}

// Postgres reads values from a key/value table. Query takes the key as its only argument.
type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DBName   string `mapstructure:"dbname"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Query    string `mapstructure:"query"`
}

func (c Postgres) ConnString() string {
	var b strings.Builder
	if c.Host != "" {
		fmt.Fprintf(&b, "host=%s ", c.Host)
	}
	if c.Port > 0 {
		fmt.Fprintf(&b, "port=%d ", c.Port)
	}
	if c.User != "" {
		fmt.Fprintf(&b, "user=%s ", c.User)
	}
	if c.Password != "" {
		fmt.Fprintf(&b, "password=%s ", c.Password)
	}
	if c.DBName != "" {
		fmt.Fprintf(&b, "dbname=%s ", c.DBName)
	}
	b.WriteString("sslmode=disable")
	return b.String()
}

type Memcache struct {
	Servers []string `mapstructure:"servers"`
}

type Metrics struct {
	Prometheus PrometheusMetrics `mapstructure:"prometheus"`
}

type PrometheusMetrics struct {
	Namespace string `mapstructure:"namespace"`
	Subsystem string `mapstructure:"subsystem"`
}

const (
	StorageTypeNone      = "none"
	StorageTypeFile      = "file"
	StorageTypeMemory    = "memory"
	StorageTypeFreecache = "freecache"
	StorageTypeRedis     = "redis"
	StorageTypePostgres  = "postgres"
	StorageTypeMemcache  = "memcache"
)

// SetupViper registers the defaults and the config file / environment lookup.
func SetupViper(v *viper.Viper, filename string) {
	v.SetConfigName(filename)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/config")

	v.SetEnvPrefix("TLX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("host", "")
	v.SetDefault("port", 8000)
	v.SetDefault("admin_port", 6060)
	v.SetDefault("version", "1.0.0")
	v.SetDefault("coppa", false)
	v.SetDefault("enable_gzip", false)
	v.SetDefault("status_response", "")
	v.SetDefault("cycles.ttl_seconds", 60)
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests_per_second", 100)
	v.SetDefault("http_client.max_connections_per_host", 0)
	v.SetDefault("http_client.max_idle_connections", 400)
	v.SetDefault("http_client.max_idle_connections_per_host", 100)
	v.SetDefault("http_client.idle_connection_timeout_seconds", 60)
	v.SetDefault("http_client.dial_timeout_ms", 0)
	v.SetDefault("http_client.dial_keepalive_seconds", 0)
	v.SetDefault("adapter.endpoint", "https://tlx.3lift.com/header/auction?")
	v.SetDefault("adapter.native_endpoint", "https://tlx.3lift.com/header_native/auction?")
	v.SetDefault("adapter.usersync_url", "https://eb2.3lift.com/sync?")
	v.SetDefault("adapter.timeout_ms", 1000)
	v.SetDefault("storage.type", StorageTypeNone)
	v.SetDefault("storage.filename", "")
	v.SetDefault("storage.ttl_seconds", 3600)
	v.SetDefault("storage.cache_size", 10*1024*1024)
	v.SetDefault("storage.timeout_ms", 50)
	v.SetDefault("storage.redis.addr", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.username", "")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.tls", false)
	v.SetDefault("storage.postgres.host", "")
	v.SetDefault("storage.postgres.port", 5432)
	v.SetDefault("storage.postgres.dbname", "")
	v.SetDefault("storage.postgres.user", "")
	v.SetDefault("storage.postgres.password", "")
	v.SetDefault("storage.postgres.query", "SELECT value FROM storage WHERE key = $1 LIMIT 1")
	v.SetDefault("storage.memcache.servers", []string{})
	v.SetDefault("metrics.prometheus.namespace", "tlx")
	v.SetDefault("metrics.prometheus.subsystem", "bridge")
}

// New uses viper to get our server configurations. A missing config file is not an error.
func New(v *viper.Viper) (*Configuration, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("viper failed to read config file: %v", err)
		}
	}

	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("viper failed to unmarshal app config: %v", err)
	}

	if errs := c.validate(); len(errs) > 0 {
		return &c, errors.Join(errs...)
	}
	return &c, nil
}

func (cfg *Configuration) validate() []error {
	var errs []error
	if _, err := semver.ParseTolerant(cfg.Version); err != nil {
		errs = append(errs, fmt.Errorf("version \"%s\" is not a semantic version: %v", cfg.Version, err))
	}
	if cfg.Cycles.TTLSeconds <= 0 {
		errs = append(errs, fmt.Errorf("cycles.ttl_seconds must be positive, got %d", cfg.Cycles.TTLSeconds))
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.requests_per_second must be positive, got %v", cfg.RateLimit.RequestsPerSecond))
	}
	errs = validateEndpoint("adapter.endpoint", cfg.Adapter.Endpoint, errs)
	errs = validateEndpoint("adapter.native_endpoint", cfg.Adapter.NativeEndpoint, errs)
	errs = validateEndpoint("adapter.usersync_url", cfg.Adapter.UserSyncURL, errs)
	if cfg.Adapter.TimeoutMS <= 0 {
		errs = append(errs, fmt.Errorf("adapter.timeout_ms must be positive, got %d", cfg.Adapter.TimeoutMS))
	}
	errs = cfg.Storage.validate(errs)
	return errs
}

func (s Storage) validate(errs []error) []error {
	switch s.Type {
	case StorageTypeNone:
	case StorageTypeFile, StorageTypeMemory:
		if s.Filename == "" {
			errs = append(errs, fmt.Errorf("storage.filename is required when storage.type is %s", s.Type))
		}
	case StorageTypeFreecache:
		if s.Filename == "" {
			errs = append(errs, errors.New("storage.filename is required when storage.type is freecache"))
		}
		if s.CacheSize <= 0 {
			errs = append(errs, fmt.Errorf("storage.cache_size must be positive, got %d", s.CacheSize))
		}
	case StorageTypeRedis:
		if s.Redis.Addr == "" {
			errs = append(errs, errors.New("storage.redis.addr is required when storage.type is redis"))
		}
	case StorageTypePostgres:
		if s.Postgres.Query == "" {
			errs = append(errs, errors.New("storage.postgres.query is required when storage.type is postgres"))
		}
		if s.CacheSize <= 0 {
			errs = append(errs, fmt.Errorf("storage.cache_size must be positive, got %d", s.CacheSize))
		}
	case StorageTypeMemcache:
		if len(s.Memcache.Servers) == 0 {
			errs = append(errs, errors.New("storage.memcache.servers is required when storage.type is memcache"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.type: %s", s.Type))
	}
	if s.TimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("storage.timeout_ms must not be negative, got %d", s.TimeoutMS))
	}
	return errs
}

// validateEndpoint makes sure an exchange endpoint is a usable request URL. Endpoints end with
// "?" or "&" so that query parameters can be appended directly.
func validateEndpoint(name, endpoint string, errs []error) []error {
	if endpoint == "" {
		return append(errs, fmt.Errorf("%s is required", name))
	}
	if !validator.IsURL(endpoint) || !validator.IsRequestURL(endpoint) {
		return append(errs, fmt.Errorf("%s \"%s\" is not a valid URL", name, endpoint))
	}
	if !strings.HasSuffix(endpoint, "?") && !strings.HasSuffix(endpoint, "&") {
		return append(errs, fmt.Errorf("%s \"%s\" must end with '?' or '&'", name, endpoint))
	}
	return errs
}
