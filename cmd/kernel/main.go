// Package main provides the kernel binary: it loads one scenario, wires
// an event bus, and runs the scenario's domains until it is asked to
// stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/correlator-io/correlator/internal/adminapi"
	"github.com/correlator-io/correlator/internal/adminapi/middleware"
	"github.com/correlator-io/correlator/internal/bus"
	"github.com/correlator-io/correlator/internal/bus/httpbus"
	"github.com/correlator-io/correlator/internal/bus/kafkabus"
	"github.com/correlator-io/correlator/internal/bus/membus"
	"github.com/correlator-io/correlator/internal/config"
	"github.com/correlator-io/correlator/internal/loader"
	"github.com/correlator-io/correlator/internal/runtime"
)

const (
	version = "1.0.0-dev"
	name    = "kernel"
)

func main() {
	versionFlag := flag.Bool("version", false, "show version information")
	scenarioName := flag.String("scenario", "", "name of the scenario to load, e.g. orders")
	adminAPI := flag.Bool("admin-api", true, "start the admin control-plane HTTP API")
	flag.Parse()

	if *versionFlag {
		log.Printf("%s v%s\n", name, version)
		os.Exit(0)
	}

	if *scenarioName == "" {
		log.Fatal("--scenario is required")
	}

	cfg := config.LoadKernelConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	logger.Info("starting kernel",
		slog.String("service", name),
		slog.String("version", version),
		slog.String("scenario", *scenarioName),
		slog.String("bus_backend", cfg.BusBackend),
	)

	dir, err := os.Getwd()
	if err != nil {
		logger.Error("failed to resolve working directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	scenarioValue, err := loader.Load(dir, *scenarioName)
	if err != nil {
		logger.Error("failed to load scenario", slog.String("scenario", *scenarioName), slog.String("error", err.Error()))
		os.Exit(1)
	}

	busValue, closer, err := buildBus(cfg)
	if err != nil {
		logger.Error("failed to build event bus", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if closer != nil {
		defer func() {
			if cerr := closer(); cerr != nil {
				logger.Error("failed to close event bus", slog.String("error", cerr.Error()))
			}
		}()
	}

	rt := runtime.New(runtime.Config{
		Scenario:       scenarioValue,
		Bus:            busValue,
		Logger:         logger,
		PollIntervalMs: cfg.PollIntervalMs,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt.Start(ctx)
	logger.Info("runtime started", slog.String("scenario", scenarioValue.Name), slog.Int("domains", len(scenarioValue.Domains)))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	if *adminAPI {
		server := adminapi.NewServer(cfg, busValue, nil, middleware.NewGlobalRateLimiter(defaultAdminRPS))

		go func() {
			if err := server.Start(); err != nil {
				logger.Error("admin API stopped unexpectedly", slog.String("error", err.Error()))
			}
		}()
	}

	<-stop
	logger.Info("received shutdown signal")

	rt.Stop()
	logger.Info("kernel stopped")
}

const defaultAdminRPS = 50

// busCloser closes an event bus's underlying resources, if it has any.
type busCloser func() error

// buildBus constructs the bus.Bus implementation selected by
// cfg.BusBackend. The returned closer is nil for backends with nothing
// to close.
func buildBus(cfg config.KernelConfig) (bus.Bus, busCloser, error) {
	switch cfg.BusBackend {
	case config.BusBackendHTTP:
		return httpbus.New(cfg.BusHTTPBaseURL), nil, nil
	case config.BusBackendMemory:
		return membus.New(), nil, nil
	case config.BusBackendKafka:
		kb := kafkabus.New(cfg.BusKafkaBrokers, cfg.BusKafkaGroupID)

		return kb, kb.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown bus backend %q", cfg.BusBackend)
	}
}
