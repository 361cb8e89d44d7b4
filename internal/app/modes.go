package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketsim/internal/domain"
	"github.com/alanyoungcy/marketsim/internal/server"
	"github.com/alanyoungcy/marketsim/internal/server/handler"
	"github.com/alanyoungcy/marketsim/internal/server/ws"
	"github.com/alanyoungcy/marketsim/internal/simulation"
)

// SimulateMode runs the configured number of days as fast as possible,
// persists the results and returns.
func (a *App) SimulateMode(ctx context.Context, deps *Dependencies) error {
	sim, err := a.newSimulation(ctx, deps)
	if err != nil {
		return fmt.Errorf("simulate mode: %w", err)
	}
	release, err := a.beginRun(ctx, deps, sim)
	if err != nil {
		return fmt.Errorf("simulate mode: %w", err)
	}
	defer release()

	if err := sim.Run(ctx); err != nil {
		return fmt.Errorf("simulate mode: %w", err)
	}
	if err := a.finishRun(ctx, deps, sim); err != nil {
		return fmt.Errorf("simulate mode: %w", err)
	}
	return nil
}

// ServerMode runs the simulation at the configured day interval while the
// HTTP and WebSocket API serves its progress. The API stays up after the run
// completes until the context is cancelled.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)

	var simH *handler.SimulationHandler
	hub := ws.NewHub(deps.SignalBus, func() any { return simH.StatusBody() }, a.logger)

	opts := []simulation.Option{simulation.WithPace(a.cfg.Server.DayInterval.Duration)}
	if deps.SignalBus == nil {
		// Without redis nothing relays the bus, so feed the hub directly.
		opts = append(opts, simulation.WithRecorder("ws", hub))
	}
	sim, err := a.newSimulation(ctx, deps, opts...)
	if err != nil {
		return fmt.Errorf("server mode: %w", err)
	}
	simH = handler.NewSimulationHandler(sim, a.cfg.Simulation.Days, a.cfg.Mode, a.logger)

	proxies, err := a.cfg.Server.TrustedProxyPrefixes()
	if err != nil {
		return fmt.Errorf("server mode: %w", err)
	}

	var archive handler.RunArchive
	if deps.Archiver != nil {
		archive = deps.Archiver
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		Limiter:     deps.RateLimiter,

		TrustedProxies: proxies,
	}, server.Handlers{
		Health:     handler.NewHealthHandler(deps.Pingers),
		Simulation: simH,
		Runs:       handler.NewRunsHandler(deps.RunStore, a.logger),
		Archive:    handler.NewArchiveHandler(archive, a.logger),
		Live:       handler.NewLiveHandler(deps.StateCache, deps.Lease, a.logger),
		Metrics:    promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}),
	}, hub, a.logger)

	g.Go(func() error {
		return hub.Run(ctx)
	})

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Duration)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	g.Go(func() error {
		release, err := a.beginRun(ctx, deps, sim)
		if err != nil {
			return fmt.Errorf("server mode: %w", err)
		}
		defer release()

		if err := sim.Run(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("server mode: %w", err)
		}
		if err := a.finishRun(ctx, deps, sim); err != nil {
			return fmt.Errorf("server mode: %w", err)
		}
		if deps.SignalBus == nil {
			payload, err := json.Marshal(simH.StatusBody())
			if err != nil {
				return fmt.Errorf("server mode: encode status: %w", err)
			}
			if err := hub.Broadcast(ctx, ws.TypeStatus, payload); err != nil && ctx.Err() == nil {
				a.logger.WarnContext(ctx, "status broadcast failed", slog.String("error", err.Error()))
			}
		}
		a.logger.InfoContext(ctx, "run completed, API still serving",
			slog.Int("port", a.cfg.Server.Port),
		)
		return nil
	})

	return g.Wait()
}

// newSimulation builds the simulation with the recorders of every enabled
// adapter. extra options are applied last.
func (a *App) newSimulation(ctx context.Context, deps *Dependencies, extra ...simulation.Option) (*simulation.Simulation, error) {
	opts := []simulation.Option{
		simulation.WithLogger(a.logger),
		simulation.WithMetrics(deps.Metrics),
	}
	if deps.RunStore != nil {
		opts = append(opts, simulation.WithRecorder("postgres", simulation.RecorderFunc(deps.RunStore.SaveSnapshot)))
	}
	if deps.Publisher != nil {
		opts = append(opts, simulation.WithRecorder("redis", deps.Publisher))
	}
	if deps.Notifier.Enabled() {
		opts = append(opts, simulation.WithRecorder("notify", deps.Alerts))
	}
	opts = append(opts, extra...)
	return simulation.New(ctx, a.cfg, opts...)
}

// beginRun takes the active-run lease, registers the run with the store and
// announces it. Only a lease held by another run is fatal; other adapter
// failures are logged and the run proceeds without the adapter.
func (a *App) beginRun(ctx context.Context, deps *Dependencies, sim *simulation.Simulation) (func(), error) {
	release := func() {}
	if deps.Lease != nil {
		rel, err := deps.Lease.Acquire(ctx, sim.RunID())
		if errors.Is(err, domain.ErrRunActive) {
			holder, _ := deps.Lease.Holder(ctx)
			return nil, fmt.Errorf("run %s blocked by %s: %w", sim.RunID(), holder, err)
		}
		if err != nil {
			a.logger.WarnContext(ctx, "acquire run lease failed", slog.String("error", err.Error()))
		} else {
			release = rel
		}
	}

	start, _ := a.cfg.Simulation.Start()
	if deps.RunStore != nil {
		err := deps.RunStore.CreateRun(ctx, domain.RunRecord{
			ID:        sim.RunID(),
			Seed:      sim.Seed(),
			StartDate: start,
			Days:      a.cfg.Simulation.Days,
			Status:    domain.StatusRunning.String(),
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			a.logger.WarnContext(ctx, "create run record failed", slog.String("error", err.Error()))
		}
	}
	if deps.Publisher != nil {
		if err := deps.Publisher.PublishStatus(ctx, sim.RunID(), domain.StatusRunning, 0); err != nil {
			a.logger.WarnContext(ctx, "publish run status failed", slog.String("error", err.Error()))
		}
	}
	return release, nil
}

// finishRun writes the results document and hands it to every enabled sink.
// Only a failure to write the local results file is returned.
func (a *App) finishRun(ctx context.Context, deps *Dependencies, sim *simulation.Simulation) error {
	res := sim.Results()

	if dir := a.cfg.Simulation.OutputDir; dir != "" {
		path, err := writeResults(dir, res)
		if err != nil {
			return err
		}
		a.logger.InfoContext(ctx, "results written", slog.String("path", path))
	}

	if deps.RunStore != nil {
		if err := deps.RunStore.SaveResults(ctx, res); err != nil {
			a.logger.WarnContext(ctx, "save results failed", slog.String("error", err.Error()))
		}
	}
	if deps.Archiver != nil {
		keys, err := deps.Archiver.Archive(ctx, res)
		if err != nil {
			a.logger.WarnContext(ctx, "archive results failed", slog.String("error", err.Error()))
		} else {
			a.logger.InfoContext(ctx, "results archived", slog.Int("objects", len(keys)))
		}
	}
	if err := deps.Alerts.RunCompleted(ctx, res); err != nil {
		a.logger.WarnContext(ctx, "run completed alert failed", slog.String("error", err.Error()))
	}
	if deps.Publisher != nil {
		if err := deps.Publisher.PublishStatus(ctx, res.RunID, res.Status, res.DaysCompleted); err != nil {
			a.logger.WarnContext(ctx, "publish run status failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

// writeResults stores res as indented JSON in dir/<run id>.json.
func writeResults(dir string, res domain.Results) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}
	path := filepath.Join(dir, res.RunID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write results: %w", err)
	}
	return path, nil
}
