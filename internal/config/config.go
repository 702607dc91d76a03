package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/wb-go/wbf/retry"
)

type Config struct {
	Env     string  `yaml:"env" env:"APP_ENV" env-default:"local"`
	Server  Server  `yaml:"server"`
	Engine  Engine  `yaml:"engine"`
	Upload  Upload  `yaml:"upload"`
	Staging Staging `yaml:"staging"`
	Contact Contact `yaml:"contact"`
	Admin   Admin   `yaml:"admin"`
	Session Session `yaml:"session"`
	DB      DB      `yaml:"db"`
	Redis   Redis   `yaml:"redis"`
	Kafka   Kafka   `yaml:"kafka"`
	Archive Archive `yaml:"archive"`
	Retry   Retry   `yaml:"retry"`
}

type Server struct {
	Addr            string        `yaml:"addr" env:"API_PORT" env-default:"8080" validate:"required,numeric"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"90s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type Engine struct {
	Host    string        `yaml:"host" env:"ENGINE_HOST" env-default:"127.0.0.1" validate:"required"`
	Port    string        `yaml:"port" env:"ENGINE_PORT" env-default:"9090" validate:"required,numeric"`
	APIKey  string        `yaml:"api_key" env:"ENGINE_API_KEY" validate:"omitempty,min=16"`
	Timeout time.Duration `yaml:"timeout" env:"ENGINE_TIMEOUT" env-default:"60s"`
}

type Upload struct {
	PayloadMaxBytes    int64 `yaml:"payload_max_bytes" env:"BUILDCHECK_PAYLOAD_MAX_BYTES" env-default:"67108864" validate:"min=1"`
	MaxFiles           int   `yaml:"max_files" env:"BUILDCHECK_MAX_FILES" env-default:"20" validate:"min=1,max=100"`
	TrustProxyHeaders  bool  `yaml:"trust_proxy_headers" env:"BUILDCHECK_TRUST_PROXY_HEADERS" env-default:"false"`
	MultipartMaxMemory int64 `yaml:"multipart_max_memory" env:"BUILDCHECK_MULTIPART_MAX_MEMORY" env-default:"33554432" validate:"min=1"`
}

type Staging struct {
	Dir           string        `yaml:"dir" env:"BUILDCHECK_SHARED_TMP"`
	MaxAge        time.Duration `yaml:"max_age" env:"STAGING_MAX_AGE" env-default:"10m"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"STAGING_SWEEP_INTERVAL" env-default:"1m"`
}

type Contact struct {
	Driver string `yaml:"driver" env:"CONTACT_STORE_DRIVER" env-default:"file" validate:"oneof=file postgres"`
	DBPath string `yaml:"db_path" env:"BUILDCHECK_CONTACT_DB_PATH"`
}

type Admin struct {
	Username       string   `yaml:"username" env:"BUILDCHECK_ADMIN_USERNAME"`
	Password       string   `yaml:"password" env:"BUILDCHECK_ADMIN_PASSWORD"`
	Token          string   `yaml:"token" env:"BUILDCHECK_CONTACT_ADMIN_TOKEN"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"BUILDCHECK_ADMIN_ALLOWED_ORIGINS" env-separator:","`
	CookieSecure   bool     `yaml:"cookie_secure" env:"BUILDCHECK_COOKIE_SECURE" env-default:"false"`
}

type Session struct {
	Driver string `yaml:"driver" env:"SESSION_STORE_DRIVER" env-default:"file" validate:"oneof=file redis"`
	DBPath string `yaml:"db_path" env:"BUILDCHECK_ADMIN_SESSION_DB_PATH"`
}

type DB struct {
	Host            string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            string        `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string        `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string        `yaml:"password" env:"DB_PASSWORD"`
	Name            string        `yaml:"name" env:"DB_NAME" env-default:"buildcheck"`
	SSLMode         string        `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"buildcheck:"`
}

type Kafka struct {
	Brokers     []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	EventsTopic string   `yaml:"events_topic" env:"KAFKA_EVENTS_TOPIC" env-default:"analysis-events"`
}

type Archive struct {
	Enabled   bool   `yaml:"enabled" env:"SAMPLE_ARCHIVE_ENABLED" env-default:"false"`
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
	Bucket    string `yaml:"bucket" env:"SAMPLE_ARCHIVE_BUCKET" env-default:"buildcheck-samples"`

	Previews    bool `yaml:"previews" env:"SAMPLE_ARCHIVE_PREVIEWS" env-default:"true"`
	PreviewSize int  `yaml:"preview_size" env:"SAMPLE_ARCHIVE_PREVIEW_SIZE" env-default:"256" validate:"min=32,max=2048"`
}

type Retry struct {
	Attempts int           `yaml:"attempts" env:"RETRY_ATTEMPTS" env-default:"3"`
	Delay    time.Duration `yaml:"delay" env:"RETRY_DELAY" env-default:"200ms"`
	Backoff  float64       `yaml:"backoff" env:"RETRY_BACKOFF" env-default:"2"`
}

// MustLoad reads an optional .env file, then CONFIG_PATH (yaml) or the
// environment, fills derived defaults and validates the result.
func MustLoad() (*Config, error) {
	var cfg Config
	if err := read(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func read(cfg any) error {
	_ = godotenv.Load()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("failed to read config from env: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.Staging.Dir = sharedTmpDir(c.Staging.Dir)

	if c.Contact.DBPath == "" {
		c.Contact.DBPath = filepath.Join(c.Staging.Dir, "contact_submissions.json")
	}
	if c.Session.DBPath == "" {
		c.Session.DBPath = c.Contact.DBPath + ".sessions.json"
	}

	c.Admin.Username = strings.TrimSpace(c.Admin.Username)
	c.Admin.Password = strings.TrimSpace(c.Admin.Password)
	c.Admin.Token = strings.TrimSpace(c.Admin.Token)

	if len(c.Admin.AllowedOrigins) == 0 {
		c.Admin.AllowedOrigins = []string{
			"http://127.0.0.1:8080",
			"http://localhost:8080",
			"http://127.0.0.1:8081",
			"http://localhost:8081",
		}
	}
}

func sharedTmpDir(dir string) string {
	if strings.TrimSpace(dir) == "" {
		return filepath.Join(os.TempDir(), "buildcheck")
	}
	return dir
}

func (c *Config) EngineBaseURL() string {
	return "http://" + net.JoinHostPort(c.Engine.Host, c.Engine.Port)
}

func (c *Config) DBDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode,
	)
}

func (c *Config) AdminCredentialsConfigured() bool {
	return c.Admin.Username != "" && c.Admin.Password != ""
}

func (c *Config) DefaultRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: c.Retry.Attempts,
		Delay:    c.Retry.Delay,
		Backoff:  c.Retry.Backoff,
	}
}
