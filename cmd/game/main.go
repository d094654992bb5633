package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/fincraft/internal/config"
	"github.com/Garsondee/fincraft/internal/control"
	"github.com/Garsondee/fincraft/internal/game"
	"github.com/Garsondee/fincraft/internal/sim"
	"github.com/Garsondee/fincraft/internal/store"
)

// settlementStore is what the simulation persists through.
type settlementStore interface {
	sim.PlacementStore
	sim.TransactionStore
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	opts := []sim.Option{
		sim.WithSeed(cfg.Seed),
		sim.WithViewport(float64(cfg.Width), float64(cfg.Height)),
		sim.WithTimeView(cfg.TimeView),
		sim.WithSpeed(cfg.Speed),
		sim.WithLogLimit(5000),
		sim.WithStoreTimeout(cfg.StoreTimeout),
		sim.WithLogger(logger),
	}
	st, closeStore := openStore(cfg, logger)
	defer closeStore()
	if st != nil {
		opts = append(opts, sim.WithPlacementStore(st), sim.WithTransactionStore(st))
	}
	state := sim.New(opts...)
	state.RestoreTransactions()

	var publish func(sim.Summary)
	if cfg.ControlAddr != "" {
		srv := control.New(state, control.Config{AllowedOrigins: cfg.AllowedOrigins, Logger: logger})
		defer srv.Close()
		publish = srv.Publish
		go func() {
			if err := srv.Run(cfg.ControlAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("control API stopped", "error", err)
			}
		}()
	}

	g, err := game.New(state, game.Options{
		Width:     cfg.Width,
		Height:    cfg.Height,
		AssetsDir: cfg.AssetsDir,
		Audio:     cfg.Audio,
		Publish:   publish,
		Logger:    logger,
	})
	if err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowTitle("FinCraft")
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}

// openStore prefers PostgreSQL when DATABASE_URL is set and falls back to the
// JSON file. Failures are logged and the settlement runs without persistence.
func openStore(cfg config.Config, logger *slog.Logger) (settlementStore, func()) {
	noop := func() {}
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		pg, err := store.OpenPostgres(ctx, cfg.DatabaseURL, logger)
		if err == nil {
			logger.Info("using postgres store")
			return pg, pg.Close
		}
		logger.Warn("postgres unavailable, trying file store", "error", err)
	}
	if cfg.StorePath == "" {
		logger.Info("persistence disabled")
		return nil, noop
	}
	f, err := store.OpenFile(cfg.StorePath, logger)
	if err != nil {
		logger.Warn("file store unavailable, running without persistence", "path", cfg.StorePath, "error", err)
		return nil, noop
	}
	logger.Info("using file store", "path", f.Path())
	return f, noop
}
