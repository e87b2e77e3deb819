// Package server 通过 HTTP 暴露推荐、分群与相似商品查询。
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/config"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/engine"
	"github.com/rushteam/hybridrec/pkg/logging"
	"github.com/rushteam/hybridrec/pkg/metrics"
)

// Recommender 是 HTTP 层依赖的引擎能力，*engine.Engine 实现了该接口。
type Recommender interface {
	Recommend(ctx context.Context, visitorID int64, opts ...engine.RequestOption) core.Result
	Segment(ctx context.Context, visitorID int64) core.Segment
	SimilarItems(ctx context.Context, itemID int64, topN int) []int64
}

// Server 是推荐服务的 HTTP 入口。
type Server struct {
	rec     Recommender
	cfg     config.ServerConfig
	handler http.Handler
	log     zerolog.Logger
}

func New(rec Recommender, cfg config.ServerConfig) *Server {
	s := &Server{rec: rec, cfg: cfg, log: logging.Component("server")}
	s.handler = s.routes()
	return s
}

// Handler 返回路由，测试直接用它构造 httptest 请求。
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(instrument)
		if s.cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))
		}
		r.Get("/recommendations/{visitorID}", s.recommend)
		r.Get("/visitors/{visitorID}/segment", s.segment)
		r.Get("/items/{itemID}/similar", s.similar)
	})
	return r
}

// instrument 按路由模板记录请求数与耗时，避免 ID 进入标签。
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		endpoint := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			endpoint = rc.RoutePattern()
		}
		metrics.RequestCount.WithLabelValues(r.Method, endpoint).Inc()
		metrics.RequestLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	})
}

// ListenAndServe 启动服务，ctx 取消后优雅关闭。
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info().Msg("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
