package main

import (
	"context"
	"runtime"
	"time"

	apprt "github.com/Borislavv/advanced-memory/internal/runtime"
	"github.com/Borislavv/advanced-memory/pkg/config"
	"github.com/Borislavv/advanced-memory/pkg/ctime"
	"github.com/Borislavv/advanced-memory/pkg/mock"
	"github.com/Borislavv/advanced-memory/pkg/shutdown"
	"github.com/Borislavv/advanced-memory/pkg/utils"
	"github.com/rs/zerolog/log"
	"go.uber.org/automaxprocs/maxprocs"
)

const (
	configPath      = "advancedMemory.cfg.yaml"
	configPathLocal = "advancedMemory.cfg.local.yaml"
)

// setMaxProcs automatically sets the optimal GOMAXPROCS value (CPU parallelism)
// based on the available CPUs and cgroup/docker CPU quotas (uses automaxprocs).
func setMaxProcs() {
	if _, err := maxprocs.Set(); err != nil {
		log.Err(err).Msg("[main] setting up GOMAXPROCS value failed")
		panic(err)
	}
	log.Info().Msgf("[main] optimized GOMAXPROCS=%d was set up", runtime.GOMAXPROCS(0))
}

// loadCfg loads the configuration, preferring the local override file.
func loadCfg() (*config.Runtime, error) {
	cfg, err := config.LoadConfig(configPathLocal)
	if err != nil {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			log.Err(err).Msg("[config] failed to load")
			return nil, err
		}
		log.Info().Msgf("[config] config loaded from '%v'", configPath)
	} else {
		log.Info().Msgf("[config] config loaded from '%v'", configPathLocal)
	}
	return cfg, nil
}

// Main entrypoint: configures and starts the ownership runtime's demo/stress
// process. Each stress pass builds an ownership tree with weak back-edges,
// walks it through read borrows, and drops it — the diagnostics plane
// (metrics, /memory/stats, leak reports) shows the lifecycle in flight.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setMaxProcs()

	stopClock := ctime.Start(time.Millisecond * 100)
	defer stopClock()

	cfg, cfgError := loadCfg()
	if cfgError != nil {
		log.Err(cfgError).Msg("[main] failed to load runtime config")
		return
	}

	gracefulShutdown := shutdown.NewGraceful(ctx, cancel)
	gracefulShutdown.SetGracefulTimeout(time.Minute * 5)

	app, err := apprt.NewApp(ctx, cfg)
	if err != nil {
		log.Err(err).Msg("[main] failed to init runtime app")
		return
	}

	gracefulShutdown.Add(1)
	go app.Start(gracefulShutdown)

	// The stress workload is pinned to one goroutine: the primitives are
	// single-goroutine by design and affinity checks enforce it.
	go stress(ctx)

	if err := gracefulShutdown.ListenCancelAndAwait(); err != nil {
		log.Err(err).Msg("failed to gracefully shut down service")
	}
}

func stress(ctx context.Context) {
	const (
		depth       = 4
		fanout      = 4
		payloadSize = 2048
	)

	for range utils.NewTicker(ctx, time.Second) {
		started := time.Now()

		root := mock.GenTree(depth, fanout, payloadSize)
		extra := root.Clone()

		nodes := mock.CountNodes(root)
		weak := root.Downgrade()

		extra.Drop()
		root.Drop()

		if _, ok := weak.Upgrade(); ok {
			log.Error().Msg("[stress] dropped tree still upgradable")
		}
		weak.Drop()

		log.Info().Msgf(
			"[stress] pass over %d nodes finished in %s",
			nodes, time.Since(started),
		)
	}
}
