// Package worker copies collection snapshots from the primary store to the
// spreadsheet mirror, driven by change messages and a periodic resync.
package worker

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/storage"
)

type MirrorWorker struct {
	primary storage.Store
	mirror  storage.Store

	mu   sync.Mutex
	last map[string][sha256.Size]byte
}

func NewMirrorWorker(primary, mirror storage.Store) *MirrorWorker {
	return &MirrorWorker{
		primary: primary,
		mirror:  mirror,
		last:    make(map[string][sha256.Size]byte),
	}
}

// HandleCollectionChanged mirrors the snapshot named by msg. Unknown keys are
// discarded rather than retried.
func (w *MirrorWorker) HandleCollectionChanged(ctx context.Context, msg *amqp.CollectionChangedMessage) error {
	if !storage.KnownKey(msg.Key) {
		return fmt.Errorf("%w: unknown collection %q", amqp.ErrDiscard, msg.Key)
	}
	slog.InfoContext(ctx, "Processing collection change",
		"key", msg.Key,
		"count", msg.Count,
		"sent_at", msg.Timestamp)
	return w.mirrorKey(ctx, msg.Key)
}

// Resync mirrors both collections regardless of pending messages. It covers
// messages lost while the worker was down.
func (w *MirrorWorker) Resync(ctx context.Context) error {
	var errs []error
	for _, key := range []string{storage.KeyIncomes, storage.KeyCosts} {
		if err := w.mirrorKey(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run resyncs every interval until ctx ends.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Resync(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic resync failed", "error", err)
			}
		}
	}
}

func (w *MirrorWorker) mirrorKey(ctx context.Context, key string) error {
	data, err := w.primary.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		data = []byte("[]")
	} else if err != nil {
		return fmt.Errorf("read %s from primary: %w", key, err)
	}

	records, err := storage.DecodeRecords(data)
	if err != nil {
		return fmt.Errorf("%w: snapshot %s is not valid: %v", amqp.ErrDiscard, key, err)
	}
	// normalized form, so legacy snapshots reach the mirror in the current shape
	data, err = storage.EncodeRecords(records)
	if err != nil {
		return err
	}

	sum := sha256.Sum256(data)
	w.mu.Lock()
	unchanged := w.last[key] == sum
	w.mu.Unlock()
	if unchanged {
		slog.DebugContext(ctx, "Mirror already up to date", "key", key)
		return nil
	}

	if err := w.mirror.Put(ctx, key, data); err != nil {
		return fmt.Errorf("write %s to mirror: %w", key, err)
	}

	w.mu.Lock()
	w.last[key] = sum
	w.mu.Unlock()

	slog.InfoContext(ctx, "Collection mirrored", "key", key, "records", len(records))
	return nil
}
