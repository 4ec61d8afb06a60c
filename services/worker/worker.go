package worker

import (
	"context"
	"strconv"
	"time"

	"pricewatch/internal/tracker"
	"pricewatch/logger"
	"pricewatch/pkg/errors"
	"pricewatch/services/fetcher"
	"pricewatch/services/history"
	"pricewatch/services/notifier"
)

// Worker runs the price-check cycles. Products are processed strictly
// sequentially, in configuration order, one full cycle per schedule interval.
// A failure while checking one product never aborts the cycle.
type Worker struct {
	ctx      context.Context
	products []tracker.ProductSpec
	fetcher  fetcher.PageFetcher
	store    history.Store
	notifier notifier.Notifier
	interval time.Duration
	log      *logger.Logger
}

// NewWorker creates a new worker. A non-positive interval selects single-run
// mode: one cycle, then return.
func NewWorker(
	ctx context.Context,
	products []tracker.ProductSpec,
	pageFetcher fetcher.PageFetcher,
	store history.Store,
	ntf notifier.Notifier,
	interval time.Duration,
) *Worker {
	return &Worker{
		ctx:      ctx,
		products: products,
		fetcher:  pageFetcher,
		store:    store,
		notifier: ntf,
		interval: interval,
		log:      logger.ForTracker(),
	}
}

// Start runs the check loop until the context is cancelled. The first cycle
// starts immediately; between cycles the worker sleeps interruptibly.
func (w *Worker) Start() error {
	for {
		start := time.Now()
		w.runCycle()
		w.log.Debug().
			Dur("elapsed", time.Since(start)).
			Msg("Completed price check cycle")

		if w.interval <= 0 {
			w.log.Info().Msg("No schedule interval configured; finishing after single run")
			return nil
		}

		if !w.sleep(w.interval) {
			return w.ctx.Err()
		}
	}
}

// runCycle performs one pass over all configured products.
func (w *Worker) runCycle() {
	for i, spec := range w.products {
		if w.ctx.Err() != nil {
			return
		}
		if i > 0 && spec.RequestDelay > 0 {
			// Politeness pacing between requests, best effort.
			if !w.sleep(spec.RequestDelay) {
				return
			}
		}
		w.checkProduct(spec)
	}
}

// checkProduct runs fetch → extract → read → decide → persist → notify for a
// single product. Every failure is logged and confined to this product.
func (w *Worker) checkProduct(spec tracker.ProductSpec) {
	log := logger.ForProduct(spec.ID)

	markup, err := w.fetcher.Fetch(w.ctx, spec.URL, spec.UserAgent)
	if err != nil {
		log.Warn().
			Str("kind", string(errors.TypeOf(err))).
			Str("url", spec.URL).
			Err(err).
			Msg("Fetch failed; skipping product this cycle")
		return
	}

	extraction, err := tracker.Extract(markup, spec.ID, spec.PriceSelector, spec.NameSelector)
	if err != nil {
		log.Warn().
			Str("kind", string(errors.TypeOf(err))).
			Err(err).
			Msg("Extraction failed; skipping product this cycle")
		return
	}

	last, err := w.store.GetLast(w.ctx, spec.ID)
	if err != nil {
		// Without a reliable baseline neither the decision nor the write
		// is safe; give up on this product until the next cycle.
		log.Error().Err(err).Msg("History read failed; skipping product this cycle")
		return
	}

	name := extraction.Name
	if name == "" {
		name = spec.DisplayName()
	}

	shouldAlert := tracker.ShouldAlert(last, extraction.Price, spec.TargetPrice)

	lastPrice := "none"
	if last != nil {
		lastPrice = strconv.FormatFloat(last.LastPrice, 'f', -1, 64)
	}
	log.Info().
		Str("name", name).
		Float64("current", extraction.Price).
		Float64("target", spec.TargetPrice).
		Str("last", lastPrice).
		Bool("alert", shouldAlert).
		Msg("Price check")

	if err := w.store.Put(w.ctx, spec.ID, extraction.Price, time.Now()); err != nil {
		log.Error().Err(err).Msg("History write failed")
		return
	}

	if shouldAlert {
		event := tracker.NewAlertEvent(spec, name, last, extraction.Price)
		if err := w.notifier.Notify(w.ctx, event); err != nil {
			// The observation is already committed; a lost notification
			// does not fail the check.
			log.Error().Err(err).Msg("Notification failed")
		}
	}
}

// sleep waits for d or until the context is cancelled, whichever first.
// It returns false on cancellation.
func (w *Worker) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-w.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
