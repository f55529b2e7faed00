package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	GoogleAPI GoogleAPIConfig
	JWT       JWTConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Queue     QueueConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host    string
	Port    int
	BaseURL string
	Env     string
	// Timezone anchors monthly quota windows.
	Timezone string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type GoogleAPIConfig struct {
	ClientID     string
	ClientSecret string
}

type JWTConfig struct {
	Secret string
}

type SecurityConfig struct {
	// TokenEncryptionKey is a 32 byte key, hex or base64 encoded.
	TokenEncryptionKey string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type QueueConfig struct {
	Concurrency int
}

type LogConfig struct {
	Level string
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
)

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	var loadErr error
	once.Do(func() {
		_ = godotenv.Load()

		v := viper.New()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		setDefaults(v)

		c := &Config{
			Server: ServerConfig{
				Host:     v.GetString("server.host"),
				Port:     v.GetInt("server.port"),
				BaseURL:  v.GetString("server.base_url"),
				Env:      v.GetString("server.env"),
				Timezone: v.GetString("server.timezone"),
			},
			Database: DatabaseConfig{
				Host:     v.GetString("db.host"),
				Port:     v.GetInt("db.port"),
				User:     v.GetString("db.user"),
				Password: v.GetString("db.password"),
				DBName:   v.GetString("db.name"),
				SSLMode:  v.GetString("db.sslmode"),
			},
			Redis: RedisConfig{
				Addr:     v.GetString("redis.addr"),
				Password: v.GetString("redis.password"),
				DB:       v.GetInt("redis.db"),
			},
			GoogleAPI: GoogleAPIConfig{
				ClientID:     v.GetString("google.client_id"),
				ClientSecret: v.GetString("google.client_secret"),
			},
			JWT: JWTConfig{
				Secret: v.GetString("jwt.secret"),
			},
			Security: SecurityConfig{
				TokenEncryptionKey: v.GetString("security.token_encryption_key"),
			},
			RateLimit: RateLimitConfig{
				RPS:   v.GetFloat64("rate_limit.rps"),
				Burst: v.GetInt("rate_limit.burst"),
			},
			Queue: QueueConfig{
				Concurrency: v.GetInt("queue.concurrency"),
			},
			Log: LogConfig{
				Level: v.GetString("log.level"),
			},
		}

		if c.JWT.Secret == "" {
			loadErr = fmt.Errorf("JWT_SECRET is required")
			return
		}

		mu.Lock()
		cfg = c
		mu.Unlock()
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return Get(), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7070)
	v.SetDefault("server.env", "development")
	v.SetDefault("server.timezone", "UTC")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("rate_limit.rps", 5)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("queue.concurrency", 5)
	v.SetDefault("log.level", "info")
}

func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return cfg, cfg != nil
}

// Set replaces the active config. Used by tests and tooling.
func Set(c *Config) {
	mu.Lock()
	cfg = c
	mu.Unlock()
}

// ServerLocation returns the location quota months are anchored to.
func (c *Config) ServerLocation() *time.Location {
	if c == nil || c.Server.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
