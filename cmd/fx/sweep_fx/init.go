package sweep_fx

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"linkbio/internal/config"
	"linkbio/internal/services"
)

var Module = fx.Invoke(startSweeper)

// startSweeper runs the downgrade sweep on SWEEP_INTERVAL until shutdown; 0 disables it.
func startSweeper(lc fx.Lifecycle, cfg *config.Config, sweep services.SweepService, log *zap.Logger) {
	interval := cfg.Sweep.Interval
	if interval <= 0 {
		log.Info("downgrade sweep disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()

				for {
					select {
					case <-ctx.Done():
						return
					case now := <-ticker.C:
						if _, err := sweep.Sweep(ctx, now); err != nil {
							log.Error("scheduled downgrade sweep failed", zap.Error(err))
						}
					}
				}
			}()
			log.Info("downgrade sweep scheduled", zap.Duration("interval", interval))
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
