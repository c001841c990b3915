package handler

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/otegecmis/books-api/internal/metrics"
	"github.com/otegecmis/books-api/internal/middleware"
	"github.com/otegecmis/books-api/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

// healthCheckTimeout はヘルスチェックのDB疎通確認のタイムアウト。
const healthCheckTimeout = 3 * time.Second

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.AccessTokenVerifier
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス
	MetricsCollector *metrics.Collector
	MetricsGatherer  prometheus.Gatherer

	// ヘルスチェック用DB
	DB *sql.DB

	// サービス
	AuthService      AuthServiceInterface
	UserService      UserServiceInterface
	AuthorService    AuthorServiceInterface
	PublisherService PublisherServiceInterface
	BookService      BookServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → RateLimit(Common)
//
// 認証ルート（/api/auth/*）には認証専用レート制限を適用し、
// 保護ルートにはRequireSignInを適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.MetricsCollector != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsCollector))
	}
	r.Use(deps.RateLimiter.CommonMiddleware())

	// typed-nilインターフェースを避けるため、nilチェックしてから渡す
	var authMetrics AuthMetricsRecorder
	if deps.MetricsCollector != nil {
		authMetrics = deps.MetricsCollector
	}

	authHandler := NewAuthHandler(deps.AuthService, authMetrics)
	userHandler := NewUserHandler(deps.UserService)
	authorHandler := NewAuthorHandler(deps.AuthorService)
	publisherHandler := NewPublisherHandler(deps.PublisherService)
	bookHandler := NewBookHandler(deps.BookService)

	requireSignIn := middleware.NewRequireSignIn(deps.TokenVerifier)
	requireAdmin := middleware.NewRequireRole(deps.UserFinder, model.RoleAdmin)
	authRateLimit := deps.RateLimiter.AuthMiddleware()
	dbRateLimit := deps.RateLimiter.DatabaseMiddleware()

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler(deps.DB))

	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// 認証ルート（認証専用レート制限を適用）
	r.Route("/api/auth", func(r chi.Router) {
		r.With(authRateLimit).Post("/signup", authHandler.Signup)
		r.With(authRateLimit).Post("/signin", authHandler.Signin)
		r.With(authRateLimit).Put("/activate", authHandler.Activate)
		r.With(authRateLimit).Put("/refresh", authHandler.Refresh)
		r.With(authRateLimit).Delete("/signout", authHandler.Signout)
	})

	// ISBN検索（公開エンドポイント）
	r.Get("/api/books/search/{isbn}", bookHandler.SearchByISBN)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(requireSignIn)

		// ユーザー自己管理
		r.Route("/api/users/{userID}", func(r chi.Router) {
			r.Get("/", userHandler.GetUser)
			r.With(dbRateLimit).Put("/", userHandler.UpdateProfile)
			r.With(dbRateLimit).Patch("/email", userHandler.UpdateEmail)
			r.With(dbRateLimit).Patch("/password", userHandler.UpdatePassword)
			r.With(dbRateLimit).Delete("/", userHandler.Deactivate)
		})

		// 著者管理
		r.Route("/api/authors", func(r chi.Router) {
			r.Get("/", authorHandler.GetAuthors)
			r.With(requireAdmin, dbRateLimit).Post("/", authorHandler.CreateAuthor)

			r.Route("/{authorID}", func(r chi.Router) {
				r.Get("/", authorHandler.GetAuthor)
				r.With(requireAdmin, dbRateLimit).Put("/", authorHandler.UpdateAuthor)
				r.With(requireAdmin, dbRateLimit).Delete("/", authorHandler.DeleteAuthor)
			})
		})

		// 出版社管理
		r.Route("/api/publishers", func(r chi.Router) {
			r.Get("/", publisherHandler.GetPublishers)
			r.With(requireAdmin, dbRateLimit).Post("/", publisherHandler.CreatePublisher)

			r.Route("/{publisherID}", func(r chi.Router) {
				r.Get("/", publisherHandler.GetPublisher)
				r.With(requireAdmin, dbRateLimit).Put("/", publisherHandler.UpdatePublisher)
				r.With(requireAdmin, dbRateLimit).Delete("/", publisherHandler.DeletePublisher)
			})
		})

		// 書籍管理
		r.Route("/api/books", func(r chi.Router) {
			r.Get("/", bookHandler.GetBooks)
			r.With(requireAdmin, dbRateLimit).Post("/", bookHandler.CreateBook)

			r.Route("/{bookID}", func(r chi.Router) {
				r.Get("/", bookHandler.GetBook)
				r.With(requireAdmin, dbRateLimit).Put("/", bookHandler.UpdateBook)
				r.With(requireAdmin, dbRateLimit).Delete("/", bookHandler.DeleteBook)
			})
		})
	})

	return r
}

// healthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()

			if err := db.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
