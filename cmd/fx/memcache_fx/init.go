package memcache_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"linkbio/internal/config"
	mem "linkbio/pkg/memcache"
)

var Module = fx.Provide(
	provideStore,
	func(store mem.Store) mem.ResetTokenStore { return mem.NewResetTokens(store) },
)

// provideStore uses Redis when REDIS_URL is set so every replica sees the same
// entitlement invalidations; a single process falls back to memory.
func provideStore(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (mem.Store, error) {
	if cfg.Redis.URL == "" {
		log.Info("REDIS_URL not set, using in-process entitlement cache")
		return mem.NewMemoryStore(), nil
	}

	store, err := mem.NewRedisStore(context.Background(), cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}
