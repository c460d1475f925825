package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/chargemap/internal/metrics"
	"github.com/hitoshi/chargemap/internal/middleware"
	"github.com/hitoshi/chargemap/internal/model"
)

// rootBanner はルートパスで返す稼働確認メッセージ。
const rootBanner = "Charging Station Backend is running!"

// HealthChecker はヘルスチェックで使用するDB疎通確認のインターフェース。
// *sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier      middleware.TokenVerifier
	UserFinder         middleware.UserFinder
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	Logger             *slog.Logger
	MaxBodyBytes       int64

	// メトリクス（nilの場合は記録しない）
	Metrics         metrics.MetricsCollector
	MetricsGatherer prometheus.Gatherer

	// ヘルスチェック
	HealthChecker HealthChecker

	// 認証
	AuthService AuthServiceInterface

	// 充電スタンド
	StationService StationServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Logging → Metrics → Recovery → SecurityHeaders → CORS
//	/api配下: RateLimit(General)、登録・ログイン: RateLimit(Credential)、変更系: Auth
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))

	// サブルーターにも引き継がれるよう、ルート定義より前に設定する
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	var authFailures middleware.AuthFailureRecorder
	var mutations StationMutationRecorder
	if deps.Metrics != nil {
		authFailures = deps.Metrics
		mutations = deps.Metrics
	}
	requireAuth := middleware.NewAuthMiddleware(deps.TokenVerifier, deps.UserFinder, authFailures)

	authHandler := NewAuthHandler(deps.AuthService, deps.MaxBodyBytes)
	stationHandler := NewStationHandler(deps.StationService, mutations, deps.MaxBodyBytes)

	// --- 運用系のルート ---
	r.Get("/", root)
	r.Get("/favicon.ico", favicon)
	r.Get("/health", health(deps.HealthChecker))
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- API ---
	r.Route("/api", func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if deps.RateLimiter != nil {
					r.Use(deps.RateLimiter.CredentialMiddleware())
				}
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
			})
			r.With(requireAuth).Get("/me", authHandler.Me)
		})

		r.Route("/charging-stations", func(r chi.Router) {
			// 公開ルート。radiusは/{id}より具体的なため先に一致する
			r.Get("/", stationHandler.ListStations)
			r.Get("/radius/{latitude}/{longitude}/{distance}", stationHandler.FindWithinRadius)
			r.Get("/{id}", stationHandler.GetStation)

			// 変更系は認証必須
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", stationHandler.CreateStation)
				r.Put("/{id}", stationHandler.UpdateStation)
				r.Delete("/{id}", stationHandler.DeleteStation)
			})
		})
	})

	return r
}

// root は稼働確認用のテキストを返す。
// GET /
func root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rootBanner))
}

// favicon はブラウザのファビコン要求に空レスポンスを返す。
// GET /favicon.ico
func favicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// health はDB疎通を確認し、稼働状態を返す。
// GET /health
func health(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()

			if err := checker.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// notFound は未定義のルートに統一エラーフォーマットの404を返す。
func notFound(w http.ResponseWriter, r *http.Request) {
	middleware.WriteErrorResponse(w, http.StatusNotFound, &model.APIError{
		Code:    model.ErrCodeNotFound,
		Message: "Not found - " + r.URL.Path,
	})
}
