// Package paycache keeps the locally known payment state of bill items so a
// payment shows up immediately, before the billing API reports it back.
//
// Entries are written to two tiers: a durable one (SQLite or Redis) and a
// session one (process memory). Reads prefer the durable tier. The cache is
// best effort: storage failures are logged and counted, never returned, and
// the server records always win on reconciliation.
package paycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billpay/internal/calculator"
	"github.com/mmynk/billpay/internal/metrics"
	"github.com/mmynk/billpay/internal/models"
	"github.com/mmynk/billpay/internal/storage"
)

const (
	// KeyPrefix namespaces cache entries inside a shared store.
	KeyPrefix = "billpay:item-payment:"

	// DefaultRetention is how long an entry survives pruning.
	DefaultRetention = 7 * 24 * time.Hour
)

var errInvalidEntry = errors.New("invalid cache entry")

type tier struct {
	name string
	kv   storage.KV
}

// ReconciliationCache is the two-tier item payment cache.
// It is safe for concurrent use when its tiers are.
type ReconciliationCache struct {
	tiers  []tier
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a ReconciliationCache.
type Option func(*ReconciliationCache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *ReconciliationCache) {
		c.now = now
	}
}

// WithLogger sets the logger used for degraded-storage warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *ReconciliationCache) {
		c.logger = logger
	}
}

// New creates a cache over a durable and a session tier. Either tier may be
// nil, in which case it is skipped.
func New(durable, session storage.KV, opts ...Option) *ReconciliationCache {
	c := &ReconciliationCache{
		now:    time.Now,
		logger: slog.Default(),
	}
	if durable != nil {
		c.tiers = append(c.tiers, tier{name: "durable", kv: durable})
	}
	if session != nil {
		c.tiers = append(c.tiers, tier{name: "session", kv: session})
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Record stores the payment state of an item in every tier, stamped with the
// current time. Write failures are logged only.
func (c *ReconciliationCache) Record(ctx context.Context, itemID string, paid bool, paidAmount decimal.Decimal) {
	entry := models.CacheEntry{
		Paid:       paid,
		PaidAmount: paidAmount,
		Timestamp:  c.now().UnixMilli(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("Cache entry not encoded", "item_id", itemID, "error", err)
		metrics.CacheWrites.WithLabelValues("all", "error").Inc()
		return
	}

	for _, t := range c.tiers {
		if err := t.kv.Set(ctx, key(itemID), string(data)); err != nil {
			c.logger.Warn("Cache write failed", "tier", t.name, "item_id", itemID, "error", err)
			metrics.CacheWrites.WithLabelValues(t.name, "error").Inc()
			continue
		}
		metrics.CacheWrites.WithLabelValues(t.name, "ok").Inc()
	}
}

// Read returns the cached entry of an item. The durable tier is tried first;
// a missing, unreadable or corrupt value falls through to the session tier.
func (c *ReconciliationCache) Read(ctx context.Context, itemID string) (*models.CacheEntry, bool) {
	for _, t := range c.tiers {
		value, ok, err := t.kv.Get(ctx, key(itemID))
		if err != nil {
			c.logger.Warn("Cache read failed", "tier", t.name, "item_id", itemID, "error", err)
			metrics.CacheReads.WithLabelValues(t.name, "error").Inc()
			continue
		}
		if !ok {
			metrics.CacheReads.WithLabelValues(t.name, "miss").Inc()
			continue
		}

		entry, err := decode(value)
		if err != nil {
			c.logger.Debug("Ignoring corrupt cache entry", "tier", t.name, "item_id", itemID, "error", err)
			metrics.CacheReads.WithLabelValues(t.name, "invalid").Inc()
			continue
		}

		metrics.CacheReads.WithLabelValues(t.name, "hit").Inc()
		return entry, true
	}

	return nil, false
}

// Reconcile compares fresh server items with every cache tier and, when any
// tier's paid state disagrees with the server, overwrites the item in all
// tiers. Items without an entry are left alone. It returns the number of
// corrected items; calling it again with the same items corrects nothing.
func (c *ReconciliationCache) Reconcile(ctx context.Context, items []models.BillItem) int {
	corrected := 0
	for _, item := range items {
		serverPaid := calculator.Classify(item, nil) == models.StatusPaid

		var stale []string
		for _, t := range c.tiers {
			entry, ok := c.readTier(ctx, t, item.ID)
			if ok && entry.Paid != serverPaid {
				stale = append(stale, t.name)
			}
		}
		if len(stale) == 0 {
			continue
		}

		c.logger.Info("Cache entry corrected from server",
			"item_id", item.ID,
			"stale_tiers", stale,
			"server_paid", serverPaid,
		)
		c.Record(ctx, item.ID, serverPaid, item.PaidAmount)
		corrected++
	}

	metrics.CacheReconciled.Add(float64(corrected))
	return corrected
}

// readTier reads one tier without falling through. Failures and corrupt
// values read as absent.
func (c *ReconciliationCache) readTier(ctx context.Context, t tier, itemID string) (*models.CacheEntry, bool) {
	value, ok, err := t.kv.Get(ctx, key(itemID))
	if err != nil {
		c.logger.Warn("Cache read failed", "tier", t.name, "item_id", itemID, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	entry, err := decode(value)
	if err != nil {
		return nil, false
	}
	return entry, true
}

// Prune deletes entries older than maxAge, and entries that cannot be
// decoded, from every tier. It returns the number of deleted keys summed over
// the tiers.
func (c *ReconciliationCache) Prune(ctx context.Context, maxAge time.Duration) int {
	cutoff := c.now().Add(-maxAge).UnixMilli()
	removed := 0

	for _, t := range c.tiers {
		keys, err := t.kv.Keys(ctx, KeyPrefix)
		if err != nil {
			c.logger.Warn("Cache prune skipped tier", "tier", t.name, "error", err)
			continue
		}

		for _, k := range keys {
			value, ok, err := t.kv.Get(ctx, k)
			if err != nil || !ok {
				continue
			}
			if entry, err := decode(value); err == nil && entry.Timestamp >= cutoff {
				continue
			}
			if err := t.kv.Delete(ctx, k); err != nil {
				c.logger.Warn("Cache prune delete failed", "tier", t.name, "key", k, "error", err)
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		c.logger.Info("Pruned payment cache", "removed", removed, "max_age", maxAge)
	}
	metrics.CachePruned.Add(float64(removed))
	return removed
}

func key(itemID string) string {
	return KeyPrefix + itemID
}

func decode(value string) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(value), &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidEntry, err)
	}
	if entry.Timestamp <= 0 {
		return nil, fmt.Errorf("%w: missing timestamp", errInvalidEntry)
	}
	return &entry, nil
}
