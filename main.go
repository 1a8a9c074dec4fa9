package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appOrder "github.com/tiffin-labs/canteen/internal/application/order"
	appWallet "github.com/tiffin-labs/canteen/internal/application/wallet"
	"github.com/tiffin-labs/canteen/internal/domain/menu"
	"github.com/tiffin-labs/canteen/internal/domain/order"
	"github.com/tiffin-labs/canteen/internal/domain/wallet"
	"github.com/tiffin-labs/canteen/internal/infrastructure/fanout"
	httptransport "github.com/tiffin-labs/canteen/internal/infrastructure/http"
	"github.com/tiffin-labs/canteen/internal/infrastructure/id"
	"github.com/tiffin-labs/canteen/internal/infrastructure/memory"
	"github.com/tiffin-labs/canteen/internal/infrastructure/outbox"
	"github.com/tiffin-labs/canteen/internal/infrastructure/sqlite"
	"github.com/tiffin-labs/canteen/internal/pkg/config"
	"github.com/tiffin-labs/canteen/internal/pkg/logging"
	"github.com/tiffin-labs/canteen/internal/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	met := metrics.New(prometheus.DefaultRegisterer)

	var (
		orderRepo  order.Repository
		walletRepo wallet.Repository
		menuRepo   menu.Repository
	)
	switch cfg.Store {
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("store_open_failed", zap.Error(err))
		}
		defer func() { _ = store.Close() }()
		orderRepo, walletRepo, menuRepo = store.Orders(), store.Wallets(), store.Menu()
	default:
		orderRepo, walletRepo, menuRepo = memory.NewOrderRepository(), memory.NewWalletRepository(), memory.NewMenuRepository()
	}

	if err := seedMenu(context.Background(), menuRepo); err != nil {
		logger.Fatal("menu_seed_failed", zap.Error(err))
	}

	bus := outbox.NewBus(logger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	hub := fanout.New(logger, met)
	hub.Attach(bus)

	tracer := otel.Tracer(cfg.ServiceName)
	orderService := appOrder.NewService(
		orderRepo, walletRepo, menuRepo,
		id.NewUUIDGenerator(), id.NewTokenGenerator(),
		bus, tracer, met,
	)
	walletService := appWallet.NewService(walletRepo, bus, met)

	handler := httptransport.NewHandler(orderService, walletService, menuRepo, hub)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", httptransport.Middleware(logger, met)(handler.Router()))

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http_server_start", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("http_server_error", zap.Error(err))
		return
	}
	logger.Info("http_server_stopped")
}

// seedMenu provisions a starter catalog so the subsystem is usable out
// of the box. Existing items are left untouched.
func seedMenu(ctx context.Context, repo menu.Repository) error {
	items, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if len(items) > 0 {
		return nil
	}

	seed := []*menu.Item{
		{ID: "masala-dosa", Name: "Masala Dosa", Price: decimal.NewFromInt(60), Available: true},
		{ID: "veg-thali", Name: "Veg Thali", Price: decimal.NewFromInt(90), Available: true},
		{ID: "samosa", Name: "Samosa", Price: decimal.NewFromInt(15), Available: true},
		{ID: "masala-chai", Name: "Masala Chai", Price: decimal.NewFromInt(12), Available: true},
		{ID: "filter-coffee", Name: "Filter Coffee", Price: decimal.NewFromInt(20), Available: true},
	}
	for _, item := range seed {
		if err := repo.Save(ctx, item); err != nil {
			return err
		}
	}
	return nil
}
