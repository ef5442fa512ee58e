package main

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ventopay/checkout/internal/app"
	"github.com/ventopay/checkout/internal/app/service/sweep"
)

// The sweeper is a scheduled batch entry point, not a daemon: it runs one
// sweep over the PENDING backlog and exits. It always exits 0 — per-record
// failures are logged inside the sweep and must not make the scheduler treat
// a partial sweep as a hard failure.
func main() {
	defer os.Exit(0)

	a := fx.New(
		app.SweeperModule,
		fx.Invoke(runOnce),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), app.DefaultStartTimeout)
	defer cancel()
	if err := a.Start(startCtx); err != nil {
		zap.NewExample().Sugar().Errorf("failed to start sweeper: %v", err)
		return
	}

	<-a.Done()

	stopCtx, cancel2 := context.WithTimeout(context.Background(), app.DefaultStopTimeout)
	defer cancel2()
	if err := a.Stop(stopCtx); err != nil {
		zap.NewExample().Sugar().Errorf("failed to stop sweeper: %v", err)
	}
}

func runOnce(lc fx.Lifecycle, sweeper *sweep.Sweeper, log *zap.SugaredLogger, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if _, err := sweeper.Run(context.Background()); err != nil {
					log.Errorw("sweep_failed", "err", err)
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
	})
}
