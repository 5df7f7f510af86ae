package mirror_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/fund-ledger/events"
	"github.com/warp/fund-ledger/ledger"
	"github.com/warp/fund-ledger/ledger/memstore"
	"github.com/warp/fund-ledger/mirror"
	"github.com/warp/fund-ledger/workbook"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type recordingPublisher struct {
	mu    sync.Mutex
	grids []*workbook.Grid
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, g *workbook.Grid) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.grids = append(p.grids, g)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.grids)
}

// oneShotSource delivers its messages, reports the handler results and
// then waits for cancellation.
type oneShotSource struct {
	msgs    []events.Message
	results chan error
}

func (s *oneShotSource) Consume(ctx context.Context, handle events.Handler) error {
	for _, m := range s.msgs {
		s.results <- handle(ctx, m)
	}
	<-ctx.Done()
	return ctx.Err()
}

func newWorker(t *testing.T, pub mirror.Publisher, src mirror.Source) (*mirror.Worker, *memstore.Memory) {
	t.Helper()
	store := memstore.New()
	store.Seed(ledger.Transaction{ID: "a", Description: "dues", Income: decimal.NewFromInt(1000)}, "2024-03-01")
	store.Seed(ledger.Transaction{ID: "b", Description: "cups", Expense: decimal.NewFromInt(100)}, "2024-03-02")
	require.NoError(t, store.SaveCarry(context.Background(), ledger.CarrySetting{PrevYear: 2023, PrevCarry: decimal.NewFromInt(500)}))

	logger, _ := logtest.NewNullLogger()
	svc := ledger.NewService(store, nil, logger)
	w := mirror.NewWorker(svc, workbook.NewRenderer(workbook.English), pub, src, "@every 1h", logger)
	return w, store
}

// =============================================================================
// TESTS
// =============================================================================

func TestSync_PublishesFullLedger(t *testing.T) {
	pub := &recordingPublisher{}
	w, _ := newWorker(t, pub, nil)

	require.NoError(t, w.Sync(context.Background()))

	require.Equal(t, 1, pub.count())
	g := pub.grids[0]
	assert.Equal(t, 2, g.DataCount)
	assert.Equal(t, "1400", g.Cell(g.DataRow(1), workbook.ColBalance).Number.String())
	assert.False(t, w.LastSync().IsZero())
}

func TestSync_PublishErrorIsReturned(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("quota exceeded")}
	w, _ := newWorker(t, pub, nil)

	err := w.Sync(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.True(t, w.LastSync().IsZero())
}

func TestRun_SyncsOnStartAndOnEvents(t *testing.T) {
	// GIVEN: A source that delivers one change event
	pub := &recordingPublisher{}
	src := &oneShotSource{
		msgs:    []events.Message{{Kind: "created", ID: "c", Date: "2024-01-05"}},
		results: make(chan error, 1),
	}
	w, _ := newWorker(t, pub, src)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// WHEN: Running until the event has been handled
	go func() { done <- w.Run(ctx) }()
	select {
	case err := <-src.results:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("event was never handled")
	}
	cancel()

	// THEN: Startup and the event each published once, and shutdown is clean
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, 2, pub.count())
	assert.Equal(t, ledger.ChangeCreated, w.LastChange().Kind)
	assert.Equal(t, ledger.CanonicalDate("2024-01-05"), w.LastChange().Date)
}

func TestRun_InvalidScheduleFails(t *testing.T) {
	store := memstore.New()
	logger, _ := logtest.NewNullLogger()
	svc := ledger.NewService(store, nil, logger)
	w := mirror.NewWorker(svc, workbook.NewRenderer(workbook.English), &recordingPublisher{}, nil, "every so often", logger)

	err := w.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid resync schedule")
}
