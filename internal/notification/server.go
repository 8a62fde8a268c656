package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nao1215/notifyhub/internal/config"
	notificationdb "github.com/nao1215/notifyhub/internal/notification/db"
	"github.com/nao1215/notifyhub/pkg/httpclient"
	"github.com/nao1215/notifyhub/pkg/metrics"
	"github.com/nao1215/notifyhub/pkg/middleware"
)

// metricsNamespace はPrometheusメトリクスの名前空間。
const metricsNamespace = "notifyhub"

// Server は通知管理APIのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// httpServer はRunで起動するHTTPサーバー。NewServerで生成した場合のみ設定される。
	httpServer *http.Server
	// db は通知ストアの接続。
	db *sqlx.DB
	// queries は通知テーブルへのクエリ実行オブジェクト。
	queries *notificationdb.Queries
	log     *zap.Logger
	metrics *metrics.Metrics
	// cache は未読件数のキャッシュ。
	cache UnreadCache
	// publisher は状態遷移イベントの送信先。
	publisher Publisher
	// resolvers は参照の型タグごとの表示名解決。
	resolvers Resolvers
	// now は経過時間の計算に使う現在時刻。
	now func() time.Time
}

// Option はServerの構成を変更する。
type Option func(*Server)

// WithCache は未読件数キャッシュを設定する。
func WithCache(cache UnreadCache) Option {
	return func(s *Server) { s.cache = cache }
}

// WithPublisher はイベントの送信先を設定する。
func WithPublisher(p Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithMetrics はメトリクスの登録先を設定する。
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithResolver は参照の型タグに対する Resolver を登録する。
func WithResolver(typ string, r Resolver) Option {
	return func(s *Server) { s.resolvers[typ] = r }
}

// WithClock は現在時刻の取得方法を設定する。
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer は設定に従って通知サーバーを生成する。
// データベースへの接続とマイグレーション、Redis・Event Storeクライアントの初期化を行う。
func NewServer(cfg *config.Config, log *zap.Logger) (*Server, error) {
	db, err := notificationdb.Open(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	if err := notificationdb.Migrate(context.Background(), db, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	var opts []Option
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		opts = append(opts, WithCache(NewRedisCache(client, cfg.Redis.TTL, log)))
		log.Info("未読件数キャッシュを有効にしました", zap.String("addr", cfg.Redis.Addr))
	}
	if cfg.EventStore.URL != "" {
		client := httpclient.New(cfg.EventStore.URL, cfg.EventStore.Timeout)
		opts = append(opts, WithPublisher(NewEventStorePublisher(client, log)))
		log.Info("イベント送信を有効にしました", zap.String("url", cfg.EventStore.URL))
	}

	s := newServer(db, cfg.Auth.JWTSecret, cfg.CORS.AllowedOrigins, log, opts...)
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// newServer は接続済みのデータベースからサーバーを組み立てる。
func newServer(db *sqlx.DB, jwtSecret string, allowedOrigins []string, log *zap.Logger, opts ...Option) *Server {
	registerJSONFieldNames()

	router := gin.New()
	router.RedirectTrailingSlash = false

	queries := notificationdb.New(db)
	s := &Server{
		router:    router,
		db:        db,
		queries:   queries,
		log:       log,
		cache:     noopCache{},
		publisher: noopPublisher{},
		resolvers: Resolvers{userRefType: userResolver{queries: queries}},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New(metricsNamespace)
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(log))
	router.Use(middleware.AccessLog(log))
	router.Use(middleware.Metrics(s.metrics))
	router.Use(middleware.CORS(allowedOrigins))
	s.setupRoutes(jwtSecret)

	return s
}

// Handler はルーターをhttp.Handlerとして返す。
// 末尾のスラッシュは取り除いてからルーティングする。
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
			r = r.Clone(r.Context())
			r.URL.Path = strings.TrimSuffix(p, "/")
			r.URL.RawPath = ""
		}
		s.router.ServeHTTP(w, r)
	})
}

// Run はHTTPサーバーを起動する。Shutdownで停止した場合はnilを返す。
func (s *Server) Run() error {
	if s.httpServer == nil {
		return errors.New("HTTPサーバーが初期化されていません")
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown は処理中のリクエストを待ってからサーバーを停止し、接続を閉じる。
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTPサーバーの停止に失敗: %w", err))
		}
	}
	if err := s.cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("キャッシュの切断に失敗: %w", err))
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("データベースの切断に失敗: %w", err))
	}
	return errors.Join(errs...)
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes(jwtSecret string) {
	api := s.router.Group("/api/v1")
	api.Use(middleware.JWTAuth(jwtSecret))
	{
		notifications := api.Group("/notifications")
		{
			// 一覧系
			notifications.GET("", s.handleList())
			notifications.GET("/unread", s.handleListUnread())
			notifications.GET("/unread_count", s.handleUnreadCount())
			notifications.GET("/levels", s.handleLevels())

			// まとめて操作
			notifications.POST("/mark_all_read", s.handleMarkAll(false))
			notifications.POST("/mark_all_unread", s.handleMarkAll(true))
			notifications.POST("/bulk_action", s.handleBulkAction())

			// ID指定の操作
			notifications.GET("/:id", s.handleGet())
			notifications.PATCH("/:id", s.handleUpdate())
			notifications.DELETE("/:id", s.handleDelete())
			notifications.POST("/:id/mark_read", s.handleMark(false))
			notifications.POST("/:id/mark_unread", s.handleMark(true))
		}
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		if err := s.db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": "notification"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "notification"})
	})
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

var registerOnce sync.Once

// registerJSONFieldNames は検証エラーのフィールド名にJSONタグの名前を使うよう設定する。
func registerJSONFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}
