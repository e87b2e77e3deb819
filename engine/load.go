package engine

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/hybridrec/config"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/index"
	"github.com/rushteam/hybridrec/model"
	"github.com/rushteam/hybridrec/pkg/logging"
	"github.com/rushteam/hybridrec/similar"
	"github.com/rushteam/hybridrec/snapshot"
	"github.com/rushteam/hybridrec/store"
)

// l2Prefix 隔离共享 Redis 实例上的 key
const l2Prefix = "hybridrec:"

// Load 按配置并发加载五类产物并构建引擎，任一失败即返回。
func Load(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	log := logging.Component("engine")
	loader, err := snapshot.Open()
	if err != nil {
		return nil, err
	}
	defer loader.Close()

	var a Artifacts
	art := cfg.Artifacts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := loader.LoadItems(gctx, art.ItemsPath)
		if err != nil {
			return fmt.Errorf("load items: %w", err)
		}
		a.Items = items
		return nil
	})
	g.Go(func() error {
		events, err := loader.LoadEvents(gctx, art.EventsPath)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		a.Events = events
		return nil
	})
	g.Go(func() error {
		rows, err := loader.LoadRankerRows(gctx, art.RankerPath)
		if err != nil {
			return fmt.Errorf("load ranker rows: %w", err)
		}
		a.Rows = rows
		return nil
	})
	g.Go(func() error {
		m, err := model.Load(model.Spec{
			Kind:     art.ModelKind,
			Path:     art.ModelPath,
			Endpoint: art.ModelEndpoint,
			Timeout:  art.ModelTimeout,
		})
		if err != nil {
			return fmt.Errorf("load model: %w", err)
		}
		a.Model = m
		return nil
	})
	g.Go(func() error {
		idx, err := index.OpenAnnoy(art.IndexPath, art.IndexDimension, index.Metric(art.IndexMetric),
			index.WithSearchK(cfg.Engine.SearchK))
		if err != nil {
			return fmt.Errorf("load index: %w", err)
		}
		a.Index = idx
		return nil
	})
	closeIndex := func() {
		if c, ok := a.Index.(io.Closer); ok {
			_ = c.Close()
		}
	}
	if err := g.Wait(); err != nil {
		closeIndex()
		return nil, fmt.Errorf("engine: %w", err)
	}

	l2, err := openL2(ctx, cfg.Cache)
	if err != nil {
		closeIndex()
		return nil, fmt.Errorf("engine: %w", err)
	}

	cacheOpts := []similar.Option{similar.WithCapacity(cfg.Cache.Capacity)}
	if l2 != nil {
		cacheOpts = append(cacheOpts, similar.WithStore(l2, cfg.Cache.L2TTL))
	}
	base := []Option{
		WithTopN(cfg.Engine.TopN),
		WithAlpha(cfg.Engine.Alpha),
		WithMinActiveItems(cfg.Engine.MinActiveItems),
		WithPopularCount(cfg.Engine.PopularCount),
		WithRule(cfg.Engine.Rule),
		WithCacheOptions(cacheOpts...),
	}
	if cfg.Engine.Seed != 0 {
		base = append(base, WithSeed(cfg.Engine.Seed))
	}
	e, err := New(a, append(base, opts...)...)
	if err != nil {
		closeIndex()
		if l2 != nil {
			_ = l2.Close()
		}
		return nil, err
	}
	if l2 != nil {
		e.closers = append(e.closers, l2)
	}
	log.Info().Str("index", art.IndexPath).Str("model", a.Model.Name()).Str("l2", cfg.Cache.L2).
		Msg("artifacts loaded")
	return e, nil
}

// openL2 按配置创建二级缓存，none 返回 nil。
func openL2(ctx context.Context, c config.CacheConfig) (core.Store, error) {
	switch c.L2 {
	case "", "none":
		return nil, nil
	case "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		rs, err := store.NewRedisStore(ctx, store.RedisOptions{
			Addr:     c.RedisAddr,
			Password: c.RedisPass,
			DB:       c.RedisDB,
			Prefix:   l2Prefix,
		})
		if err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return nil, core.Errorf(core.ModuleConfig, core.ErrorCodeNotSupported, "unknown l2 store %q", c.L2)
	}
}
