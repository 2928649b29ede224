package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/civisos/internal/application"
	"github.com/example/civisos/internal/config"
	httptransport "github.com/example/civisos/internal/http"
	"github.com/example/civisos/internal/logging"
	"github.com/example/civisos/internal/persistence"
	"github.com/example/civisos/internal/persistence/memory"
	"github.com/example/civisos/internal/persistence/sqlite"
	"github.com/example/civisos/internal/seed"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("civisos stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("civisos API listening", "addr", server.Addr, "memory_store", cfg.UsesMemoryStore())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

type app struct {
	store   persistence.Store
	handler http.Handler
}

func (a *app) Close() error {
	return a.store.Close()
}

// newApp opens the store, wires every service behind the router and applies
// the seed file when one is configured.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	now := time.Now
	idGenerator := uuid.NewString
	hashPIN := func(pin string) (string, error) {
		return application.HashPIN(pin, application.DefaultArgon2idParams)
	}

	staffService := application.NewStaffServiceWithLogger(store, application.VerifyPIN, hashPIN, now, logger)
	parkingService := application.NewParkingServiceWithLogger(store, now, logger)
	facilityService := application.NewFacilityServiceWithLogger(store, idGenerator, now, logger)
	depositService := application.NewDepositServiceWithLogger(store, idGenerator, now, logger)
	deviceService := application.NewDeviceServiceWithLogger(store, idGenerator, now, cfg.IoTEventLimit, logger)
	feeService := application.NewFeeServiceWithLogger(store, now, logger)
	importService := application.NewImportService(logger)

	if cfg.SeedFile != "" {
		file, err := seed.Load(cfg.SeedFile)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		if _, err := seed.Apply(ctx, seed.Services{
			Staff:    staffService,
			Parking:  parkingService,
			Facility: facilityService,
			Devices:  deviceService,
			Fees:     feeService,
		}, file, logger); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Authenticator: staffService,
		Parking:       httptransport.NewParkingHandler(parkingService, logger),
		Facility:      httptransport.NewFacilityHandler(facilityService, logger),
		Deposits:      httptransport.NewDepositHandler(depositService, logger),
		Devices:       httptransport.NewDeviceHandler(deviceService, logger),
		Fees:          httptransport.NewFeeHandler(feeService, logger),
		Imports:       httptransport.NewImportHandler(importService, logger),
		Staff:         httptransport.NewStaffHandler(staffService, logger),
		Logger:        logger,
	})

	return &app{store: store, handler: router}, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Store, error) {
	if cfg.UsesMemoryStore() {
		logger.Warn("no SQLite DSN configured, state is kept in memory")
		return memory.Open(), nil
	}

	storage, err := sqlite.Open(ctx, sqlite.DefaultConfig(cfg.SQLiteDSN), logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return storage, nil
}
