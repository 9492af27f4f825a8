package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address        string   `yaml:"address"`
		Env            string   `yaml:"env"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Session struct {
		Secret       string        `yaml:"secret"`
		Store        string        `yaml:"store"`
		TTL          time.Duration `yaml:"ttl"`
		CookieName   string        `yaml:"cookie_name"`
		CookieSecure bool          `yaml:"cookie_secure"`
		CookieDomain string        `yaml:"cookie_domain"`
		PurgeEvery   time.Duration `yaml:"purge_every"`
	} `yaml:"session"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Media struct {
		Driver    string `yaml:"driver"`
		Dir       string `yaml:"dir"`
		BaseURL   string `yaml:"base_url"`
		Bucket    string `yaml:"bucket"`
		Region    string `yaml:"region"`
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		PublicURL string `yaml:"public_url"`
	} `yaml:"media"`
}

// Default returns a configuration suitable for local development with the
// in-memory store.
func Default() Config {
	var cfg Config
	cfg.Server.Address = ":4001"
	cfg.Server.Env = "development"
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	cfg.Database.Driver = "memory"
	cfg.Session.Store = "memory"
	cfg.Session.TTL = 7 * 24 * time.Hour
	cfg.Session.CookieName = "eventmarket_session"
	cfg.Session.PurgeEvery = 15 * time.Minute
	cfg.Redis.Addr = "localhost:6379"
	cfg.Media.Driver = "local"
	cfg.Media.Dir = "uploads"
	cfg.Media.BaseURL = "/uploads"
	return cfg
}

// LoadConfig reads the YAML file at path on top of the defaults and then
// applies environment overrides. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config data: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if port, ok := lookup("PORT"); ok && port != "" {
		if !strings.Contains(port, ":") {
			port = ":" + port
		}
		c.Server.Address = port
	}
	str("APP_ENV", &c.Server.Env)
	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_URL", &c.Database.URL)
	str("SESSION_SECRET", &c.Session.Secret)
	str("SESSION_STORE", &c.Session.Store)
	if v, ok := lookup("SESSION_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SESSION_TTL: %w", err)
		}
		c.Session.TTL = d
	}
	if v, ok := lookup("SESSION_COOKIE_SECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SESSION_COOKIE_SECURE: %w", err)
		}
		c.Session.CookieSecure = b
	}
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("MEDIA_DRIVER", &c.Media.Driver)
	str("MEDIA_DIR", &c.Media.Dir)
	str("S3_BUCKET", &c.Media.Bucket)
	str("S3_REGION", &c.Media.Region)
	str("S3_ENDPOINT", &c.Media.Endpoint)
	str("S3_ACCESS_KEY", &c.Media.AccessKey)
	str("S3_SECRET_KEY", &c.Media.SecretKey)
	str("S3_PUBLIC_URL", &c.Media.PublicURL)
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	switch c.Database.Driver {
	case "mysql", "pgx":
		if c.Database.URL == "" {
			errs = append(errs, fmt.Errorf("database.url is required for driver %q", c.Database.Driver))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown database.driver %q", c.Database.Driver))
	}
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("session.secret is required"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("session.cookie_name is required"))
	}
	switch c.Session.Store {
	case "sql":
		if c.Database.Driver == "memory" {
			errs = append(errs, errors.New(`session.store "sql" needs a sql database driver`))
		}
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis session store"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown session.store %q", c.Session.Store))
	}
	switch c.Media.Driver {
	case "local":
		if c.Media.Dir == "" {
			errs = append(errs, errors.New("media.dir is required for the local media driver"))
		}
	case "s3":
		if c.Media.Bucket == "" {
			errs = append(errs, errors.New("media.bucket is required for the s3 media driver"))
		}
	case "none":
	default:
		errs = append(errs, fmt.Errorf("unknown media.driver %q", c.Media.Driver))
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
