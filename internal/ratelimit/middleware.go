package ratelimit

import (
	"log"
	"strings"
	"time"

	"siparis-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
)

// Rule: Pencere başına izin verilen istek sayısı ve anahtar üretimi
type Rule struct {
	Max     int
	Window  time.Duration
	Message string
	Key     func(c *fiber.Ctx) string
}

var (
	LoginRule = Rule{
		Max:     10,
		Window:  15 * time.Minute,
		Message: "Çok fazla giriş denemesi. Lütfen daha sonra tekrar deneyin.",
		Key:     loginKey,
	}
	OrderCreateRule = Rule{
		Max:     60,
		Window:  5 * time.Minute,
		Message: "Çok fazla sipariş isteği. Lütfen kısa süre sonra tekrar deneyin.",
		Key:     UserKey("order-create"),
	}
	BulkDecisionRule = Rule{
		Max:     60,
		Window:  5 * time.Minute,
		Message: "Çok fazla toplu onay isteği. Lütfen kısa süre sonra tekrar deneyin.",
		Key:     UserKey("order-bulk-decision"),
	}
	ProductMutationRule = Rule{
		Max:     120,
		Window:  5 * time.Minute,
		Message: "Çok fazla ürün değişikliği isteği. Lütfen kısa süre sonra tekrar deneyin.",
		Key:     UserKey("product-mutation"),
	}
	SettingsMutationRule = Rule{
		Max:     40,
		Window:  5 * time.Minute,
		Message: "Çok fazla ayar değişikliği isteği. Lütfen kısa süre sonra tekrar deneyin.",
		Key:     UserKey("settings-mutation"),
	}
)

// UserKey: Giriş yapmış kullanıcı id'si, yoksa IP
func UserKey(suffix string) func(c *fiber.Ctx) string {
	return func(c *fiber.Ctx) string {
		if id, err := auth.CurrentUser(c); err == nil {
			return id.UserID.String() + ":" + suffix
		}
		return c.IP() + ":" + suffix
	}
}

// loginKey: IP + giriş tanımlayıcısı
func loginKey(c *fiber.Ctx) string {
	var body auth.LoginRequest
	_ = c.BodyParser(&body)
	identifier := strings.ToLower(body.LoginIdentifier())
	if identifier == "" {
		identifier = "unknown"
	}
	return c.IP() + ":login:" + identifier
}

// Limiter: Kurallardan fiber limiter handler'ları üretir.
// Redis varsa sayaçlar paylaşılır; Redis hata verirken süreç içi sayaç kullanılır, istek engellenmez.
type Limiter struct {
	redis *RedisStorage
}

// NewLimiter: strategy "redis" ve URL geçerliyse Redis storage, aksi halde yalnızca memory
func NewLimiter(strategy, redisURL, prefix string) *Limiter {
	if strategy != "redis" {
		return &Limiter{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("[WARN] REDIS_URL çözümlenemedi, memory sayaç kullanılacak: %v", err)
		return &Limiter{}
	}
	opts.MaxRetries = 1
	log.Printf("[INFO] Rate limit Redis store kullanılıyor: %s", opts.Addr)
	return &Limiter{redis: NewRedisStorage(redis.NewClient(opts), prefix)}
}

// Middleware: Limit aşılırsa 429 + Retry-After döner
func (l *Limiter) Middleware(rule Rule) fiber.Handler {
	key := rule.Key
	if key == nil {
		key = func(c *fiber.Ctx) string { return "ip:" + c.IP() }
	}

	cfg := limiter.Config{
		Max:               rule.Max,
		Expiration:        rule.Window,
		KeyGenerator:      key,
		LimiterMiddleware: limiter.FixedWindow{},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": rule.Message,
				"code":  "TOO_MANY_REQUESTS",
			})
		},
	}
	memory := limiter.New(cfg)
	if l.redis == nil {
		return memory
	}

	cfg.Storage = l.redis
	shared := limiter.New(cfg)
	return func(c *fiber.Ctx) error {
		if l.redis.Healthy() {
			return shared(c)
		}
		return memory(c)
	}
}

// Close: Redis bağlantısını kapatır
func (l *Limiter) Close() error {
	if l.redis == nil {
		return nil
	}
	return l.redis.Close()
}
