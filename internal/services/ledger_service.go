package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/book"
	"finanzas/internal/cache"
	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

const summaryCacheSize = 64

// LedgerService orchestrates record mutations, change notifications and
// summary computation on top of a Book.
type LedgerService struct {
	book      *book.Book
	publisher amqp.Publisher
	summaries cache.Cache[ledger.Summary]
	now       func() time.Time
}

// NewLedgerService wires the service. publisher may be nil, in which case
// no change notifications are sent.
func NewLedgerService(b *book.Book, publisher amqp.Publisher, summaryTTL time.Duration) *LedgerService {
	return &LedgerService{
		book:      b,
		publisher: publisher,
		summaries: cache.NewLRUCache[ledger.Summary](summaryCacheSize, summaryTTL),
		now:       time.Now,
	}
}

// SummaryCache exposes the cache so the caller can register it for cleanup.
func (s *LedgerService) SummaryCache() cache.Cleaner {
	if c, ok := s.summaries.(cache.Cleaner); ok {
		return c
	}
	return nil
}

func (s *LedgerService) Records(kind core.Kind) []core.Record {
	return s.book.Records(kind)
}

// CreateRecord stores a new record and returns it with its assigned id.
func (s *LedgerService) CreateRecord(ctx context.Context, kind core.Kind, r core.Record) (core.Record, error) {
	saved, err := s.book.Add(ctx, kind, r)
	if err != nil {
		return core.Record{}, fmt.Errorf("create %s: %w", kind, err)
	}
	s.changed(ctx, kind)
	slog.InfoContext(ctx, "Record created", "kind", kind, "id", saved.ID, "amount", saved.Amount.StringFixed(2))
	return saved, nil
}

func (s *LedgerService) UpdateRecord(ctx context.Context, kind core.Kind, id string, r core.Record) (core.Record, error) {
	saved, err := s.book.Edit(ctx, kind, id, r)
	if err != nil {
		return core.Record{}, fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	s.changed(ctx, kind)
	slog.InfoContext(ctx, "Record updated", "kind", kind, "id", saved.ID)
	return saved, nil
}

func (s *LedgerService) DeleteRecord(ctx context.Context, kind core.Kind, id string) error {
	if err := s.book.Delete(ctx, kind, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	s.changed(ctx, kind)
	slog.InfoContext(ctx, "Record deleted", "kind", kind, "id", id)
	return nil
}

// Summary returns the summary for cfg as of now. Results are cached per
// filter, calendar month and book version, so a summary computed from a
// snapshot that a mutation has since replaced is never served again.
func (s *LedgerService) Summary(ctx context.Context, cfg ledger.FilterConfig) ledger.Summary {
	now := s.now()
	if sum, ok := s.summaries.Get(summaryKey(cfg, now, s.book.Version())); ok {
		return sum
	}
	incomes, costs, version := s.book.VersionedSnapshot()
	sum := ledger.Summarize(incomes, costs, cfg, now)
	s.summaries.Set(summaryKey(cfg, now, version), sum)
	slog.DebugContext(ctx, "Summary computed",
		"scope", cfg.Scope.String(),
		"category", cfg.Category,
		"version", version,
		"incomes", len(sum.Incomes),
		"costs", len(sum.Costs))
	return sum
}

func summaryKey(cfg ledger.FilterConfig, now time.Time, version uint64) string {
	return fmt.Sprintf("%d|%s|%s|%s|%s|%s", version, now.Format("2006-01"), cfg.Scope, cfg.Category, cfg.Start, cfg.End)
}

func (s *LedgerService) changed(ctx context.Context, kind core.Kind) {
	s.summaries.Purge()
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping change notification")
		return
	}
	key := kind.StorageKey()
	if err := s.publisher.PublishCollectionChanged(ctx, key, len(s.book.Records(kind))); err != nil {
		// the snapshot is already durable; the mirror catches up on its next resync
		slog.ErrorContext(ctx, "Failed to publish collection change", "key", key, "error", err)
	}
}
