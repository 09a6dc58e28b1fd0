package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	Stream         string
	Group          string
	Consumer       string
	ProgressPrefix string
	ClaimInterval  time.Duration
	MaxDeliveries  int64
}

type StorageConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	Prefix     string
	UseSSL     bool
	Region     string
	PresignTTL time.Duration
}

// CatalogConfig describes where the image tree lives and how image refs are
// exposed to clients.
type CatalogConfig struct {
	Source      string
	Root        string
	PublicRoute string
}

type VotesConfig struct {
	Policy string
}

type SecurityConfig struct {
	JWTSecret    string
	JWTTTL       time.Duration
	KeyCacheSize int
}

type JobsConfig struct {
	RegenerateSchedule string
	SystemAdminID      int64
}

type LoggingConfig struct {
	Level string
}

type AppConfig struct {
	Environment      string
	Logging          LoggingConfig
	HTTP             HTTPConfig
	Database         DatabaseConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Catalog          CatalogConfig
	Votes            VotesConfig
	Security         SecurityConfig
	Jobs             JobsConfig
	AllowCORSOrigins []string
	AllowCORSHeaders []string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	SourceFilesystem = "filesystem"
	SourceBucket     = "bucket"
)

func Load() (*AppConfig, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("IMAGECOMPARE")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Catalog.Source {
	case SourceFilesystem, SourceBucket:
	default:
		return fmt.Errorf("unsupported catalog source %q", c.Catalog.Source)
	}
	if c.Catalog.Source == SourceFilesystem && c.Catalog.Root == "" {
		return fmt.Errorf("catalog.root is required for the filesystem source")
	}
	route, err := publicRoute(c.Catalog.PublicRoute)
	if err != nil {
		return err
	}
	c.Catalog.PublicRoute = route
	return nil
}

// publicRoute checks that images can be mounted at route next to /api and
// strips any trailing slash.
func publicRoute(route string) (string, error) {
	if !strings.HasPrefix(route, "/") {
		return "", fmt.Errorf("catalog.publicroute %q must be an absolute path", route)
	}
	route = strings.TrimRight(route, "/")
	switch {
	case route == "":
		return "", fmt.Errorf("catalog.publicroute must not be the site root")
	case strings.ContainsAny(route, ":*"):
		return "", fmt.Errorf("catalog.publicroute %q must not contain route parameters", route)
	case route == "/api" || strings.HasPrefix(route, "/api/"):
		return "", fmt.Errorf("catalog.publicroute %q collides with /api", route)
	}
	return route, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("logging.level", "")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "60s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.maxopen", 30)
	v.SetDefault("database.maxidle", 10)
	v.SetDefault("database.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "comparison:generate")
	v.SetDefault("redis.group", "comparison-workers")
	v.SetDefault("redis.consumer", "worker-1")
	v.SetDefault("redis.progressprefix", "comparison:jobs:")
	v.SetDefault("redis.claiminterval", "30s")
	v.SetDefault("redis.maxdeliveries", 5)

	v.SetDefault("storage.bucket", "imagecompare")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.presignttl", "15m")

	// STATIC_FILES_DIR is the variable name the .env files already carry.
	_ = v.BindEnv("catalog.root", "IMAGECOMPARE_CATALOG_ROOT", "STATIC_FILES_DIR")
	v.SetDefault("catalog.source", SourceFilesystem)
	v.SetDefault("catalog.publicroute", "/static/images")

	v.SetDefault("votes.policy", "append")

	v.SetDefault("security.jwtttl", "1h")
	v.SetDefault("security.keycachesize", 256)

	v.SetDefault("jobs.regenerateschedule", "")
	v.SetDefault("jobs.systemadminid", 0)

	v.SetDefault("allowcorsheaders", []string{"Content-Type", "Authorization"})
}
