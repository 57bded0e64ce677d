package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/lesniewskii/weight-tracker/internal/domain"
	"github.com/lesniewskii/weight-tracker/internal/metrics"
)

// Coordinator runs refresh epochs. Each epoch fetches measurements, goals
// and trends concurrently and publishes exactly one ViewModel once all three
// have settled.
//
// It is Idle or Fetching. Invalidations received while Fetching collapse
// into a single pending follow-up epoch. Results of an epoch that has been
// superseded by Reset are discarded.
type Coordinator struct {
	reader  domain.ResourceReader
	unit    string
	metrics *metrics.Manager

	signals chan struct{}
	resets  chan struct{}

	mu          sync.RWMutex
	generation  uint64 // bumped by Reset
	latest      *domain.ViewModel
	subscribers []func(domain.ViewModel)
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithUnit sets the display unit of published view models.
func WithUnit(unit string) CoordinatorOption {
	return func(c *Coordinator) { c.unit = unit }
}

// WithMetrics records epoch metrics on m.
func WithMetrics(m *metrics.Manager) CoordinatorOption {
	return func(c *Coordinator) { c.metrics = m }
}

// NewCoordinator creates a Coordinator reading from r. Call Run to start it.
func NewCoordinator(r domain.ResourceReader, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		reader:  r,
		unit:    domain.UnitKg,
		signals: make(chan struct{}, 1),
		resets:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invalidate requests a refresh. It never blocks; requests made while an
// epoch is in flight are coalesced.
func (c *Coordinator) Invalidate() {
	select {
	case c.signals <- struct{}{}:
	default:
		// a signal is already queued
	}
}

// Reset supersedes the in-flight epoch, if any, and starts a fresh one. The
// last published view model is dropped, and no epoch started before Reset
// publishes afterwards. Used when the session changes.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	c.generation++
	c.latest = nil
	c.mu.Unlock()

	select {
	case c.resets <- struct{}{}:
	default:
	}
}

// Subscribe registers fn to receive every published view model. fn runs on
// the coordinator goroutine and must not block.
func (c *Coordinator) Subscribe(fn func(domain.ViewModel)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Latest returns the last published view model.
func (c *Coordinator) Latest() (domain.ViewModel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.latest == nil {
		return domain.ViewModel{}, false
	}
	return *c.latest, true
}

type epochResult struct {
	epoch      uint64
	generation uint64
	took       time.Duration
	view  domain.ViewModel
}

// Run drives the state machine until ctx is cancelled. An initial epoch is
// started immediately; it absorbs any Invalidate or Reset made before Run.
func (c *Coordinator) Run(ctx context.Context) {
	var (
		current  uint64
		fetching bool
		pending  bool
		results  = make(chan epochResult)
		wg       sync.WaitGroup
	)
	defer wg.Wait()

	start := func() {
		current++
		fetching = true
		pending = false
		c.metrics.EpochStarted()
		log.Debugf("refresh: epoch %d started", current)

		c.mu.RLock()
		gen := c.generation
		c.mu.RUnlock()

		wg.Add(1)
		go func(epoch, gen uint64) {
			defer wg.Done()
			r := c.runEpoch(ctx, epoch)
			r.generation = gen
			select {
			case results <- r:
			case <-ctx.Done():
			}
		}(current, gen)
	}

	// requests made before Run are served by the initial epoch
	for _, ch := range []chan struct{}{c.signals, c.resets} {
		select {
		case <-ch:
		default:
		}
	}
	start()
	for {
		select {
		case <-ctx.Done():
			log.Debugln("refresh: coordinator shutting down")
			return

		case <-c.signals:
			if !fetching {
				start()
				continue
			}
			if pending {
				c.metrics.Coalesced()
			}
			pending = true

		case <-c.resets:
			log.Debugf("refresh: epoch %d superseded by reset", current)
			start()

		case r := <-results:
			if r.epoch != current {
				c.metrics.StaleDiscarded()
				log.Debugf("refresh: discarding stale epoch %d (current %d)", r.epoch, current)
				continue
			}
			fetching = false
			c.publish(r)

			// signals that raced with the result still count
			select {
			case <-c.signals:
				pending = true
			default:
			}
			if pending {
				start()
			}
		}
	}
}

// publish stores r as the latest view and notifies subscribers, unless a
// Reset happened after r's epoch started.
func (c *Coordinator) publish(r epochResult) {
	log.WithFields(log.Fields{
		"epoch":   r.epoch,
		"points":  len(r.view.Series),
		"goals":   len(r.view.Goals),
		"notices": len(r.view.Notices),
		"took":    r.took,
	}).Debug("refresh: publishing view")

	c.mu.Lock()
	if r.generation != c.generation {
		c.mu.Unlock()
		c.metrics.StaleDiscarded()
		log.Debugf("refresh: discarding epoch %d, session was reset", r.epoch)
		return
	}
	vm := r.view
	c.latest = &vm
	subs := make([]func(domain.ViewModel), len(c.subscribers))
	copy(subs, c.subscribers)
	c.mu.Unlock()

	c.metrics.EpochPublished(r.epoch, r.took)

	for _, fn := range subs {
		fn(r.view)
	}
}

// runEpoch fans out the three reads and waits for all of them. A failed
// read yields an empty section plus a notice; a malformed envelope yields an
// empty section only.
func (c *Coordinator) runEpoch(ctx context.Context, epoch uint64) epochResult {
	started := time.Now()

	var (
		wg           sync.WaitGroup
		measurements []domain.Measurement
		goals        []domain.Goal
		trend        *domain.TrendSummary
		errs         [3]error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		measurements, errs[0] = c.reader.FetchMeasurements(ctx)
	}()
	go func() {
		defer wg.Done()
		goals, errs[1] = c.reader.FetchGoals(ctx)
	}()
	go func() {
		defer wg.Done()
		trend, errs[2] = c.reader.FetchTrends(ctx)
	}()
	wg.Wait()

	var (
		notices []domain.Notice
		failed  error
	)
	for i, err := range errs {
		if err == nil {
			continue
		}
		section := domain.Sections[i]
		c.metrics.SectionFailed(string(section))
		failed = multierr.Append(failed, fmt.Errorf("%s: %w", section, err))
		if domain.IsMalformed(err) {
			continue
		}
		notices = append(notices, domain.Notice{Section: section, Message: noticeMessage(err)})
	}
	if failed != nil {
		log.Warnf("refresh: epoch %d: %d of %d sections failed (malformed ones shown empty): %v",
			epoch, len(multierr.Errors(failed)), len(domain.Sections), failed)
	}
	if errs[0] != nil {
		measurements = nil
	}
	if errs[1] != nil {
		goals = nil
	}
	if errs[2] != nil {
		trend = nil
	}

	series, deltas := BuildSeries(measurements)
	vm := Merge(series, deltas, trend, goals, c.unit)
	vm.Epoch = epoch
	vm.Notices = notices

	return epochResult{epoch: epoch, took: time.Since(started), view: vm}
}

func noticeMessage(err error) string {
	fe, ok := domain.AsFetchError(err)
	switch {
	case !ok:
		return err.Error()
	case fe.Unauthorized():
		return "not authorized, log in again"
	case fe.Kind == domain.KindTransport:
		return "backend unreachable"
	case fe.Message != "":
		return fe.Message
	default:
		return err.Error()
	}
}
