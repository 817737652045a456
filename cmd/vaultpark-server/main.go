package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kushanz7/VaultPark-sub001/internal/config"
	"github.com/Kushanz7/VaultPark-sub001/internal/db"
	"github.com/Kushanz7/VaultPark-sub001/internal/grpcapi"
	"github.com/Kushanz7/VaultPark-sub001/internal/httpapi"
	"github.com/Kushanz7/VaultPark-sub001/internal/logging"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/billing"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/clock"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/qrcode"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/service"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store/memory"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store/postgres"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store/sqlite"
)

type stores struct {
	sessions store.SessionStore
	users    store.UserStore
	gates    store.GateStore
	events   store.ScanEventStore
	probe    grpcapi.Probe
	close    func()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "vaultpark-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger.Slog())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	schedule, err := loadSchedule(cfg)
	if err != nil {
		return err
	}

	codec := qrcode.Default()
	if cfg.QRSecret != "" {
		h, err := qrcode.NewKeyedHasher([]byte(cfg.QRSecret))
		if err != nil {
			return fmt.Errorf("qr secret: %w", err)
		}
		codec = qrcode.New(h)
	}

	var claimer service.Claimer = service.NoopClaimer{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// Claims degrade to no-ops per scan; keep serving.
			logger.Warn(ctx, "redis unreachable", "addr", cfg.RedisAddr, "err", err)
		}
		claimer = service.NewRedisClaimer(rdb, cfg.ClaimTTL)
	}

	clk := clock.System{}

	// Services
	pool := service.NewScannerPool(service.ScannerDeps{
		Codec:    codec,
		Sessions: st.sessions,
		Users:    st.users,
		Schedule: schedule,
		Claimer:  claimer,
		Clock:    clk,
		Logger:   logger,
	}, service.ScannerConfig{
		ValidityWindow:   cfg.QRValidity,
		DebounceWindow:   cfg.DebounceWindow,
		ErrorResetDelay:  cfg.ErrorResetDelay,
		NormalizeVehicle: cfg.NormalizeVehicle,
	})
	defer pool.Close()

	registry := service.NewGateRegistry(st.gates, clk)
	scanSvc := service.NewScanService(registry, pool, st.events, clk, logger)
	qrSvc := service.NewQRService(codec, st.users, clk, cfg.QRValidity)
	sessionSvc := service.NewSessionService(st.sessions)

	reaper := service.NewScannerReaper(pool, service.ReaperConfig{
		IdleTTLMinutes:  cfg.ScannerIdleTTLMinutes,
		IntervalMinutes: cfg.ReapIntervalMinutes,
	}, clk, logger)
	reaper.Start(ctx)
	defer reaper.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:         logger,
		Addr:           cfg.HTTPAddr,
		ScanService:    scanSvc,
		QRService:      qrSvc,
		SessionService: sessionSvc,
	})

	go func() {
		logger.Info(ctx, "listening", "addr", cfg.HTTPAddr, "store", cfg.Store)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "server error", "err", err)
			stop()
		}
	}()

	// gRPC health
	if cfg.GRPCAddr != "" {
		health := grpcapi.NewServer(grpcapi.Dependencies{
			Logger: logger,
			Addr:   cfg.GRPCAddr,
			Probe:  st.probe,
		})
		go func() {
			if err := health.Run(ctx); err != nil {
				logger.Error(ctx, "grpc server error", "err", err)
				stop()
			}
		}()
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg config.Config, logger logging.Logger) (stores, error) {
	switch cfg.Store {
	case "memory":
		logger.Warn(ctx, "using in-memory store; sessions are lost on restart")
		gates := cfg.KnownGates
		if len(gates) == 0 {
			gates = []string{"main-gate"}
		}
		return stores{
			sessions: memory.NewSessionStore(),
			users: memory.NewUserStore(
				store.User{ID: "driver-001", Name: "Dev Driver", VehicleNumber: "KA01AB1234", Role: store.RoleDriver},
				store.User{ID: "guard-001", Name: "Dev Guard", Role: store.RoleSecurity},
			),
			gates:  memory.NewGateStore(gates),
			events: memory.NewScanEventStore(),
			close:  func() {},
		}, nil

	case "postgres":
		conn, err := db.OpenPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return stores{}, err
		}
		if err := db.EnableGatesPostgres(ctx, conn, cfg.KnownGates); err != nil {
			_ = conn.Close()
			return stores{}, err
		}
		return stores{
			sessions: postgres.NewSessionStore(conn),
			users:    postgres.NewUserStore(conn),
			gates:    postgres.NewGateStore(conn),
			events:   postgres.NewScanEventStore(conn),
			probe:    pingProbe(conn),
			close:    func() { _ = conn.Close() },
		}, nil

	default:
		conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
		if err != nil {
			return stores{}, err
		}
		if cfg.Env == "dev" {
			if err := db.SeedDev(ctx, conn, db.SeedDevOptions{KnownGates: cfg.KnownGates}); err != nil {
				_ = conn.Close()
				return stores{}, err
			}
		}
		writer := db.NewWorker(conn)
		return stores{
			sessions: sqlite.NewSessionStore(conn, writer),
			users:    sqlite.NewUserStore(conn, writer),
			gates:    sqlite.NewGateStore(conn, writer),
			events:   sqlite.NewScanEventStore(conn, writer),
			probe:    pingProbe(conn),
			close: func() {
				writer.Close()
				_ = conn.Close()
			},
		}, nil
	}
}

func loadSchedule(cfg config.Config) (billing.Schedule, error) {
	if cfg.PricingFile != "" {
		return billing.LoadSchedule(cfg.PricingFile)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return billing.Schedule{}, err
	}
	return billing.Flat(cfg.HourlyRate, cfg.DailyCap, loc), nil
}

func pingProbe(conn *sql.DB) grpcapi.Probe {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return conn.PingContext(ctx)
	}
}
