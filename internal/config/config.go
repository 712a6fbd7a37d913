package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultDatabaseDSN = "host=localhost user=postgres password=postgres dbname=siparis port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	Timezone           string
	Location           *time.Location // Timezone'dan çözülür, gün sınırları bununla hesaplanır
	AccessTokenMinutes int
	CookieSecure       bool

	// Rate limit: "memory" veya "redis"
	RateLimitStrategy string
	RedisURL          string
	RateLimitPrefix   string
}

// Load: .env dosyası (varsa) + environment değişkenleri
func Load() *Config {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		log.Printf("[INFO] .env dosyası okunamadı, sadece environment kullanılacak: %v", err)
	}
	v.AutomaticEnv()

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DATABASE_DSN", defaultDatabaseDSN)
	v.SetDefault("CORS_ALLOWED_ORIGINS", defaultCORSOrigins)
	v.SetDefault("APP_TIMEZONE", "Europe/Istanbul")
	v.SetDefault("ACCESS_TOKEN_MINUTES", 60*24)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("RATE_LIMIT_STRATEGY", "memory")
	v.SetDefault("RATE_LIMIT_PREFIX", "rl:")

	cfg := &Config{
		HTTPPort:           v.GetString("HTTP_PORT"),
		DatabaseDSN:        v.GetString("DATABASE_DSN"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		CORSOrigins:        v.GetString("CORS_ALLOWED_ORIGINS"),
		Timezone:           v.GetString("APP_TIMEZONE"),
		AccessTokenMinutes: v.GetInt("ACCESS_TOKEN_MINUTES"),
		CookieSecure:       v.GetBool("COOKIE_SECURE"),
		RateLimitStrategy:  strings.ToLower(strings.TrimSpace(v.GetString("RATE_LIMIT_STRATEGY"))),
		RedisURL:           v.GetString("REDIS_URL"),
		RateLimitPrefix:    v.GetString("RATE_LIMIT_PREFIX"),
	}

	// Production güvenlik kontrolleri
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET environment değişkeni tanımlanmamış! Production için zorunludur.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET en az 32 karakter olmalıdır! Güvenlik riski.")
	}
	if cfg.DatabaseDSN == defaultDatabaseDSN {
		log.Println("[WARN] DATABASE_DSN varsayılan değer kullanılıyor, production için mutlaka kendi Postgres bağlantı bilgisini tanımla.")
	}
	if cfg.CORSOrigins == defaultCORSOrigins {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için mutlaka kendi domain'ini tanımla.")
	}
	if cfg.AccessTokenMinutes <= 0 {
		cfg.AccessTokenMinutes = 60 * 24
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("[WARN] APP_TIMEZONE (%s) yüklenemedi, UTC kullanılacak: %v", cfg.Timezone, err)
		loc = time.UTC
	}
	cfg.Location = loc

	if cfg.RateLimitStrategy == "redis" && cfg.RedisURL == "" {
		log.Println("[WARN] RATE_LIMIT_STRATEGY=redis fakat REDIS_URL tanımlı değil, memory store kullanılacak.")
		cfg.RateLimitStrategy = "memory"
	}

	return cfg
}

// AccessTokenTTL: JWT ve cookie ömrü
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

// AllowedOrigins: Virgülle ayrılmış CORS listesini temizler
func (c *Config) AllowedOrigins() string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}
