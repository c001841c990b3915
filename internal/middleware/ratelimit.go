package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// rateLimitWindow はレート制限の集計ウィンドウ。
const rateLimitWindow = 15 * time.Minute

// RateLimiterConfig はレート制限の設定を保持する。
// 各値は15分あたりの許可リクエスト数。
type RateLimiterConfig struct {
	CommonLimit     int           // API全般
	AuthLimit       int           // 認証エンドポイント（signin / refresh / signout）
	DatabaseLimit   int           // 書き込み系エンドポイント
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		CommonLimit:     500,
		AuthLimit:       10,
		DatabaseLimit:   30,
		CleanupInterval: 5 * time.Minute,
	}
}

// clientLimiter はクライアントごとのレートリミッターとアクセス時刻を保持する。
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterTier は1種類のレート制限を管理する。クライアントIPをキーとする。
type limiterTier struct {
	name  string
	rate  rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*clientLimiter
}

func newLimiterTier(name string, perWindow int) *limiterTier {
	return &limiterTier{
		name:     name,
		rate:     rate.Limit(float64(perWindow) / rateLimitWindow.Seconds()),
		burst:    perWindow,
		limiters: make(map[string]*clientLimiter),
	}
}

// getOrCreate はクライアントIPのリミッターを取得または作成する。
func (t *limiterTier) getOrCreate(clientIP string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cl, exists := t.limiters[clientIP]; exists {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(t.rate, t.burst)
	t.limiters[clientIP] = &clientLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanup は最終アクセス時刻がttlを超えたエントリを削除する。
func (t *limiterTier) cleanup(ttl time.Duration) {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	for clientIP, cl := range t.limiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(t.limiters, clientIP)
		}
	}
}

func (t *limiterTier) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.limiters)
}

// RateLimiter はクライアントIPごとのレート制限を管理する。
// API全般、認証エンドポイント、書き込み系エンドポイントの3種類を提供する。
// 認証前のエンドポイントを保護するため、ユーザーIDではなくIPをキーとする。
type RateLimiter struct {
	config RateLimiterConfig

	common   *limiterTier
	auth     *limiterTier
	database *limiterTier

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		common:   newLimiterTier("common", config.CommonLimit),
		auth:     newLimiterTier("auth", config.AuthLimit),
		database: newLimiterTier("database", config.DatabaseLimit),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// CommonMiddleware はAPI全般のレート制限ミドルウェアを返す。
func (rl *RateLimiter) CommonMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.common)
}

// AuthMiddleware は認証エンドポイント専用のレート制限ミドルウェアを返す。
// ブルートフォース対策としてAPI全般より厳しい制限を適用する。
func (rl *RateLimiter) AuthMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.auth)
}

// DatabaseMiddleware は書き込み系エンドポイント専用のレート制限ミドルウェアを返す。
func (rl *RateLimiter) DatabaseMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.database)
}

func (rl *RateLimiter) middleware(tier *limiterTier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := clientIPFromRequest(r)

			limiter := tier.getOrCreate(clientIP)

			if !limiter.Allow() {
				writeRateLimitResponse(w, tier.rate)
				slog.Warn("rate limit exceeded",
					slog.String("client_ip", clientIP),
					slog.String("limit_type", tier.name),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CommonLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) CommonLimiterCount() int {
	return rl.common.count()
}

// AuthLimiterCount は現在管理されている認証リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) AuthLimiterCount() int {
	return rl.auth.count()
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ttl := rl.config.CleanupInterval * 2
			rl.common.cleanup(ttl)
			rl.auth.cleanup(ttl)
			rl.database.cleanup(ttl)
		case <-rl.stopCh:
			return
		}
	}
}

// clientIPFromRequest はリクエスト元のIPアドレスを取得する。
func clientIPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]string{
		"code":     "RATE_LIMIT_EXCEEDED",
		"message":  "Too many requests. Please try again later.",
		"category": "system",
		"action":   "Please wait and retry after the specified time.",
	})
}
