package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mmynk/billpay/internal/billingapi"
	"github.com/mmynk/billpay/internal/config"
	"github.com/mmynk/billpay/internal/paycache"
	"github.com/mmynk/billpay/internal/service"
	"github.com/mmynk/billpay/internal/storage"
	"github.com/mmynk/billpay/internal/storage/memory"
	"github.com/mmynk/billpay/internal/storage/redisstore"
	"github.com/mmynk/billpay/internal/storage/sqlite"
	"github.com/mmynk/billpay/pkg/logging"
)

// app holds the dependencies shared by the commands.
type app struct {
	cfg     *config.Config
	store   *sqlite.SQLiteStore
	cache   *paycache.ReconciliationCache
	closers []func() error
}

// loadConfig reads configuration and installs the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	logging.Setup(logging.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// newApp opens the SQLite store and the durable cache tier selected by
// CACHE_BACKEND. The session tier lives in process memory.
func newApp(cfg *config.Config) (*app, error) {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a := &app{cfg: cfg, store: store, closers: []func() error{store.Close}}
	slog.Info("Storage initialized", "database", cfg.DBPath)

	var durable storage.KV = store
	if cfg.CacheBackend == config.BackendRedis {
		rs, err := redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheRetention,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, rs.Close)
		durable = rs
		slog.Info("Redis cache tier connected", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	}

	a.cache = paycache.New(durable, memory.New())
	return a, nil
}

// Close releases every opened backend.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("Failed to close backend", "error", err)
		}
	}
}

func (a *app) paymentService() (*service.PaymentService, error) {
	if err := a.cfg.ValidateBillingAPI(); err != nil {
		return nil, err
	}

	billing, err := billingapi.NewHTTPClient(billingapi.Config{
		BaseURL:  a.cfg.BillingAPIURL,
		Username: a.cfg.BillingAPIUser,
		Password: a.cfg.BillingAPIPassword,
		Timeout:  a.cfg.BillingAPITimeout,
	})
	if err != nil {
		return nil, err
	}

	return service.NewPaymentService(billing, a.cache, a.store,
		service.WithRetention(a.cfg.CacheRetention),
	), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
