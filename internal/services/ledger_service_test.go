package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/book"
	"finanzas/internal/cache"
	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/storage"
)

type published struct {
	key   string
	count int
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (f *fakePublisher) PublishCollectionChanged(_ context.Context, key string, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, published{key, count})
	return f.err
}

func newTestService(t *testing.T, pub *fakePublisher) *LedgerService {
	t.Helper()
	b := book.New(storage.NewMemoryStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	var svc *LedgerService
	if pub == nil {
		svc = NewLedgerService(b, nil, time.Minute)
	} else {
		svc = NewLedgerService(b, pub, time.Minute)
	}
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local) }
	return svc
}

func newRecord(date, category, desc string, amount int64) core.Record {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Record{Date: d, Category: category, Description: desc, Amount: decimal.NewFromInt(amount)}
}

func TestLedgerService_CreatePublishes(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	r, err := svc.CreateRecord(ctx, core.KindIncome, newRecord("2024-03-05", core.CategoryGrossIncome, "salary", 1000))
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)

	_, err = svc.CreateRecord(ctx, core.KindCost, newRecord("2024-03-10", core.CategoryVariableCost, "food", 200))
	require.NoError(t, err)

	assert.Equal(t, []published{{"incomes", 1}, {"costs", 1}}, pub.sent)
}

func TestLedgerService_PublishFailureDoesNotFailMutation(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newTestService(t, pub)

	_, err := svc.CreateRecord(context.Background(), core.KindCost, newRecord("2024-03-10", core.CategoryFixedCost, "rent", 700))
	assert.NoError(t, err)
	assert.Len(t, svc.Records(core.KindCost), 1)
}

func TestLedgerService_NilPublisher(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.CreateRecord(context.Background(), core.KindCost, newRecord("2024-03-10", core.CategoryFixedCost, "rent", 700))
	assert.NoError(t, err)
}

func TestLedgerService_ValidationErrorsAreWrapped(t *testing.T) {
	svc := newTestService(t, &fakePublisher{})
	_, err := svc.CreateRecord(context.Background(), core.KindCost, newRecord("2024-03-10", core.CategoryFixedCost, "", 700))
	assert.ErrorIs(t, err, core.ErrEmptyDescription)

	err = svc.DeleteRecord(context.Background(), core.KindCost, "nope")
	assert.ErrorIs(t, err, ledger.ErrRecordNotFound)
}

func TestLedgerService_SummaryScenario(t *testing.T) {
	svc := newTestService(t, &fakePublisher{})
	ctx := context.Background()
	_, err := svc.CreateRecord(ctx, core.KindIncome, newRecord("2024-03-05", core.CategoryGrossIncome, "salary", 1000))
	require.NoError(t, err)
	_, err = svc.CreateRecord(ctx, core.KindCost, newRecord("2024-03-10", core.CategoryVariableCost, "food", 200))
	require.NoError(t, err)

	sum := svc.Summary(ctx, ledger.FilterConfig{Scope: ledger.ScopeAllTime})
	assert.True(t, sum.Totals.Income.Equal(decimal.NewFromInt(1000)))
	assert.True(t, sum.Totals.Cost.Equal(decimal.NewFromInt(200)))
	assert.True(t, sum.Totals.Balance.Equal(decimal.NewFromInt(800)))
	assert.True(t, sum.Totals.GrossProfit.Equal(decimal.NewFromInt(800)))
}

func TestLedgerService_SummaryCacheInvalidatedOnMutation(t *testing.T) {
	svc := newTestService(t, &fakePublisher{})
	ctx := context.Background()
	cfg := ledger.FilterConfig{}

	first := svc.Summary(ctx, cfg)
	assert.True(t, first.Totals.Balance.IsZero())

	r, err := svc.CreateRecord(ctx, core.KindIncome, newRecord("2024-03-05", core.CategoryNetIncome, "pay", 50))
	require.NoError(t, err)
	assert.True(t, svc.Summary(ctx, cfg).Totals.Balance.Equal(decimal.NewFromInt(50)))

	_, err = svc.UpdateRecord(ctx, core.KindIncome, r.ID, newRecord("2024-03-05", core.CategoryNetIncome, "pay", 80))
	require.NoError(t, err)
	assert.True(t, svc.Summary(ctx, cfg).Totals.Balance.Equal(decimal.NewFromInt(80)))

	require.NoError(t, svc.DeleteRecord(ctx, core.KindIncome, r.ID))
	assert.True(t, svc.Summary(ctx, cfg).Totals.Balance.IsZero())
}

func TestSummaryKeyDependsOnMonth(t *testing.T) {
	cfg := ledger.FilterConfig{Category: core.CategoryFixedCost}
	march := summaryKey(cfg, time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC), 1)
	april := summaryKey(cfg, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 1)
	assert.NotEqual(t, march, april)
	assert.NotEqual(t, march, summaryKey(cfg, time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC), 2))
}

// gatedCache holds the first Set until release is closed.
type gatedCache struct {
	cache.Cache[ledger.Summary]
	once    sync.Once
	reached chan struct{}
	release chan struct{}
}

func (g *gatedCache) Set(key string, value ledger.Summary) {
	g.once.Do(func() {
		close(g.reached)
		<-g.release
	})
	g.Cache.Set(key, value)
}

func TestLedgerService_SummaryComputedBeforeMutationIsNotServedAfter(t *testing.T) {
	svc := newTestService(t, &fakePublisher{})
	gate := &gatedCache{
		Cache:   svc.summaries,
		reached: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc.summaries = gate
	ctx := context.Background()
	cfg := ledger.FilterConfig{Scope: ledger.ScopeAllTime}

	done := make(chan ledger.Summary)
	go func() { done <- svc.Summary(ctx, cfg) }()

	<-gate.reached
	_, err := svc.CreateRecord(ctx, core.KindIncome, newRecord("2024-03-05", core.CategoryNetIncome, "pay", 50))
	require.NoError(t, err)
	close(gate.release)

	before := <-done
	assert.Empty(t, before.Incomes)

	after := svc.Summary(ctx, cfg)
	require.Len(t, after.Incomes, 1)
	assert.True(t, after.Totals.Income.Equal(decimal.NewFromInt(50)))
}
