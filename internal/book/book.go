// Package book holds the two in-memory collections and checkpoints every
// mutation to a storage.Store before it becomes visible.
package book

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/storage"
)

type Book struct {
	mu      sync.RWMutex
	store   storage.Store
	logger  *slog.Logger
	records map[core.Kind][]core.Record
	version uint64
	newID   func() string
}

func New(store storage.Store, logger *slog.Logger) *Book {
	if logger == nil {
		logger = slog.Default()
	}
	return &Book{
		store:  store,
		logger: logger,
		records: map[core.Kind][]core.Record{
			core.KindIncome: {},
			core.KindCost:   {},
		},
		newID: uuid.NewString,
	}
}

// Load reads both collections concurrently. A collection that fails to load
// stays empty; the first failure is returned after both finished.
func (b *Book) Load(ctx context.Context) error {
	kinds := []core.Kind{core.KindIncome, core.KindCost}
	loaded := make([][]core.Record, len(kinds))

	var g errgroup.Group
	for i, kind := range kinds {
		i, kind := i, kind
		g.Go(func() error {
			records, err := storage.LoadRecords(ctx, b.store, kind.StorageKey())
			if err != nil {
				b.logger.WarnContext(ctx, "Failed to load collection, starting empty",
					"collection", kind.StorageKey(), "error", err)
				loaded[i] = []core.Record{}
				return err
			}
			loaded[i] = records
			return nil
		})
	}
	err := g.Wait()

	b.mu.Lock()
	for i, kind := range kinds {
		b.records[kind] = loaded[i]
	}
	b.version++
	b.mu.Unlock()

	b.logger.InfoContext(ctx, "Collections loaded",
		"incomes", len(loaded[0]), "costs", len(loaded[1]))
	return err
}

// Records returns a copy of one collection.
func (b *Book) Records(kind core.Kind) []core.Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.Record{}, b.records[kind]...)
}

// Snapshot returns copies of both collections taken under one lock.
func (b *Book) Snapshot() (incomes, costs []core.Record) {
	incomes, costs, _ = b.VersionedSnapshot()
	return incomes, costs
}

// VersionedSnapshot is Snapshot plus the version the copies belong to. The
// version grows with every load and every committed mutation.
func (b *Book) VersionedSnapshot() (incomes, costs []core.Record, version uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.Record{}, b.records[core.KindIncome]...),
		append([]core.Record{}, b.records[core.KindCost]...),
		b.version
}

// Version reports the current version without copying anything.
func (b *Book) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// Add appends r to the collection of kind. An empty id is replaced by a
// fresh one. The stored record is returned.
func (b *Book) Add(ctx context.Context, kind core.Kind, r core.Record) (core.Record, error) {
	if !kind.IsValid() {
		return core.Record{}, core.ErrInvalidKind
	}
	if err := r.Validate(); err != nil {
		return core.Record{}, err
	}
	if r.ID == "" {
		r.ID = b.newID()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.records[kind]
	if ledger.IndexOf(current, r.ID) >= 0 {
		return core.Record{}, fmt.Errorf("%w: %s", ledger.ErrDuplicateID, r.ID)
	}
	next := make([]core.Record, 0, len(current)+1)
	next = append(append(next, current...), r)
	if err := b.commit(ctx, kind, next); err != nil {
		return core.Record{}, err
	}
	return r, nil
}

// Edit replaces the record identified by id.
func (b *Book) Edit(ctx context.Context, kind core.Kind, id string, r core.Record) (core.Record, error) {
	if !kind.IsValid() {
		return core.Record{}, core.ErrInvalidKind
	}
	if err := r.Validate(); err != nil {
		return core.Record{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	next, err := ledger.Edit(b.records[kind], id, r)
	if err != nil {
		return core.Record{}, err
	}
	if err := b.commit(ctx, kind, next); err != nil {
		return core.Record{}, err
	}
	return next[ledger.IndexOf(next, firstNonEmpty(r.ID, id))], nil
}

// Delete removes the record identified by id.
func (b *Book) Delete(ctx context.Context, kind core.Kind, id string) error {
	if !kind.IsValid() {
		return core.ErrInvalidKind
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	next, err := ledger.Delete(b.records[kind], id)
	if err != nil {
		return err
	}
	return b.commit(ctx, kind, next)
}

// commit checkpoints next and only then makes it the live collection.
// Callers hold the write lock.
func (b *Book) commit(ctx context.Context, kind core.Kind, next []core.Record) error {
	if err := storage.SaveRecords(ctx, b.store, kind.StorageKey(), next); err != nil {
		b.logger.ErrorContext(ctx, "Checkpoint failed, change discarded",
			"collection", kind.StorageKey(), "error", err)
		return err
	}
	b.records[kind] = next
	b.version++
	return nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
