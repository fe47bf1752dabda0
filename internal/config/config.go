// Package config carga la configuración desde YAML con overrides por ENV.
// Un .env local se carga vía godotenv si existe (dev); en prod las ENV
// vienen del entorno directamente.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env  string `yaml:"env"`
		Name string `yaml:"name"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr string `yaml:"addr"`
			DB   int    `yaml:"db"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL time.Duration `yaml:"default_ttl"`
		} `yaml:"memory"`
		RBACTTL time.Duration `yaml:"rbac_ttl"`
	} `yaml:"cache"`

	Queue struct {
		Redis struct {
			Addr string `yaml:"addr"`
			DB   int    `yaml:"db"`
		} `yaml:"redis"`
		EmailQueue        string `yaml:"email_queue"`
		NotificationQueue string `yaml:"notification_queue"`
		// Buffer del dispatcher fire-and-forget.
		Buffer int `yaml:"buffer"`
	} `yaml:"queue"`

	Auth struct {
		// SecretKey firma todos los tokens. Solo por ENV (SECRET_KEY).
		SecretKey string `yaml:"-"`

		AccessTTL     time.Duration `yaml:"access_ttl"`      // hour-scale
		RefreshTTL    time.Duration `yaml:"refresh_ttl"`     // day-scale
		EmailTokenTTL time.Duration `yaml:"email_token_ttl"` // links de verificación/reset
		TfaTokenTTL   time.Duration `yaml:"tfa_token_ttl"`   // challenge pre-MFA, minutes-scale

		Cookie struct {
			Domain   string `yaml:"domain"`
			SameSite string `yaml:"samesite"`
			Secure   bool   `yaml:"secure"`
		} `yaml:"cookie"`
	} `yaml:"auth"`

	Google struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"-"`
		RedirectURL  string `yaml:"redirect_url"`
	} `yaml:"google"`
}

// Load lee el YAML (opcional) y aplica overrides de ENV.
func Load(path string) (*Config, error) {
	// .env local si existe; en prod no suele haber.
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if cfg.Auth.SecretKey == "" {
		return nil, fmt.Errorf("config: SECRET_KEY is required")
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setStr(&c.App.Env, "APP_ENV")
	setStr(&c.App.Name, "APP_NAME")
	setStr(&c.Server.Addr, "SERVER_ADDR")
	setStr(&c.Log.Level, "LOG_LEVEL")
	setStr(&c.Storage.DSN, "DATABASE_URL")
	setStr(&c.Cache.Kind, "CACHE_KIND")
	setStr(&c.Cache.Redis.Addr, "REDIS_ADDR")
	setInt(&c.Cache.Redis.DB, "REDIS_CACHE_DB")
	setStr(&c.Queue.Redis.Addr, "REDIS_ADDR")
	setInt(&c.Queue.Redis.DB, "REDIS_QUEUE_DB")
	setStr(&c.Auth.SecretKey, "SECRET_KEY")
	setDur(&c.Auth.AccessTTL, "ACCESS_TOKEN_EX")
	setDur(&c.Auth.RefreshTTL, "REFRESH_TOKEN_EX")
	setDur(&c.Auth.EmailTokenTTL, "EMAIL_TOKEN_EX")
	setDur(&c.Auth.TfaTokenTTL, "TFA_TOKEN_EX")
	setStr(&c.Google.ClientID, "GOOGLE_OAUTH_CLIENT_ID")
	setStr(&c.Google.ClientSecret, "GOOGLE_OAUTH_CLIENT_SECRET")
	setStr(&c.Google.RedirectURL, "GOOGLE_OAUTH_REDIRECT_URL")
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "gatekeep"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == 0 {
		c.Cache.Memory.DefaultTTL = time.Minute
	}
	if c.Cache.RBACTTL == 0 {
		c.Cache.RBACTTL = 30 * time.Second
	}
	if c.Queue.EmailQueue == "" {
		c.Queue.EmailQueue = "email"
	}
	if c.Queue.NotificationQueue == "" {
		c.Queue.NotificationQueue = "notification"
	}
	if c.Queue.Buffer == 0 {
		c.Queue.Buffer = 256
	}
	if c.Auth.AccessTTL == 0 {
		c.Auth.AccessTTL = time.Hour
	}
	if c.Auth.RefreshTTL == 0 {
		c.Auth.RefreshTTL = 7 * 24 * time.Hour
	}
	if c.Auth.EmailTokenTTL == 0 {
		c.Auth.EmailTokenTTL = 15 * time.Minute
	}
	if c.Auth.TfaTokenTTL == 0 {
		c.Auth.TfaTokenTTL = 5 * time.Minute
	}
	if c.Auth.Cookie.SameSite == "" {
		c.Auth.Cookie.SameSite = "lax"
	}
}

func setStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// setDur acepta duraciones Go ("1h") o segundos a secas ("3600"),
// para compatibilidad con los ENV del backend original.
func setDur(dst *time.Duration, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(n) * time.Second
	}
}
