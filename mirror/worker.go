/*
Package mirror keeps an online copy of the ledger sheet up to date.

PURPOSE:
  The worker renders the full ledger with the same Renderer the xlsx
  export uses and publishes the Grid (normally to Google Sheets). It
  refreshes on every ledger change event and on a cron schedule, which
  also repairs the mirror after missed events.

DESIGN:
  - Run starts with one sync, then runs the event consumer and the cron
    scheduler side by side under an errgroup
  - Syncs are serialized; each one renders the complete ledger, so a burst
    of events never leaves a partial mirror
  - A failed event sync is returned to the consumer, which requeues it
  - Cancelling the context is a clean shutdown

USAGE:
  w := mirror.NewWorker(svc, renderer, sheetsClient, amqpClient, "@every 1h", log)
  err := w.Run(ctx)

SEE ALSO:
  - events/client.go: Event source
  - sheets/client.go: Publisher
*/
package mirror

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/warp/fund-ledger/events"
	"github.com/warp/fund-ledger/ledger"
	"github.com/warp/fund-ledger/workbook"
)

// Publisher receives each freshly rendered grid.
type Publisher interface {
	Publish(ctx context.Context, g *workbook.Grid) error
}

// Source delivers ledger change events until ctx ends.
type Source interface {
	Consume(ctx context.Context, handle events.Handler) error
}

// Worker syncs the ledger to a Publisher.
type Worker struct {
	svc       *ledger.Service
	renderer  *workbook.Renderer
	publisher Publisher
	source    Source
	schedule  string
	log       logrus.FieldLogger

	mu         sync.Mutex
	lastSync   time.Time
	lastChange ledger.Change
}

// NewWorker creates a worker. source may be nil, leaving only the schedule.
func NewWorker(svc *ledger.Service, renderer *workbook.Renderer, publisher Publisher, source Source, schedule string, log logrus.FieldLogger) *Worker {
	return &Worker{
		svc:       svc,
		renderer:  renderer,
		publisher: publisher,
		source:    source,
		schedule:  schedule,
		log:       log.WithField("component", "mirror"),
	}
}

// Sync renders the whole ledger and publishes it.
func (w *Worker) Sync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	report, err := w.svc.Report(ctx, ledger.Query{Order: ledger.OrderAsc})
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	grid := w.renderer.Render(report.Summary, report.Rows, ledger.SegmentRows(report.Rows))

	if err := w.publisher.Publish(ctx, grid); err != nil {
		return fmt.Errorf("publish mirror: %w", err)
	}

	w.lastSync = time.Now()
	w.log.WithFields(logrus.Fields{
		"rows":        len(report.Rows),
		"target_year": report.Summary.Detail.TargetYear,
	}).Info("mirror synced")
	return nil
}

// LastSync returns when the last successful sync finished.
func (w *Worker) LastSync() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSync
}

// LastChange returns the most recent change event that was mirrored.
func (w *Worker) LastChange() ledger.Change {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastChange
}

// Run syncs once, then follows events and the schedule until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.Sync(ctx); err != nil {
		w.log.WithError(err).Warn("initial mirror sync failed")
	}

	g, ctx := errgroup.WithContext(ctx)
	if w.source != nil {
		g.Go(func() error {
			return w.source.Consume(ctx, w.handle)
		})
	}
	g.Go(func() error {
		return w.runSchedule(ctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *Worker) handle(ctx context.Context, m events.Message) error {
	change := m.Change()
	w.log.WithFields(logrus.Fields{"kind": change.Kind, "id": change.ID, "date": change.Date}).Debug("ledger change received")
	if err := w.Sync(ctx); err != nil {
		return err
	}

	w.mu.Lock()
	w.lastChange = change
	w.mu.Unlock()
	return nil
}

func (w *Worker) runSchedule(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(w.schedule, func() {
		if err := w.Sync(ctx); err != nil {
			w.log.WithError(err).Error("scheduled mirror sync failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid resync schedule %q: %w", w.schedule, err)
	}

	c.Start()
	w.log.WithField("schedule", w.schedule).Info("mirror resync scheduled")

	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}
