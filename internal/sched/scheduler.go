// Package sched coordinates resolution cycles: timer-driven and on-demand
// re-resolution with single-flight supersession semantics. The Scheduler is
// the engine object the presentation layers talk to; its collaborators
// (fetcher, store directory, product catalog, preference source) are
// injected, so tests substitute fakes.
//
// Only the most recently started cycle may commit to the resolution state.
// Supersession works by sequence number, not by cancelling the underlying
// I/O: a stale cycle's result is simply discarded when it finally arrives.
package sched

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/example/stockwatch/internal/match"
	"github.com/example/stockwatch/internal/model"
	"github.com/example/stockwatch/internal/store"
)

// Fetcher issues availability requests. *fetch.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, country string, line model.ProductLine, storeNumbers []string) ([]model.AvailabilityRecord, error)
}

// StoreSource resolves per-country store lists. *directory.Directory
// implements it.
type StoreSource interface {
	Stores(ctx context.Context, country string) ([]model.Store, error)
}

// ProductSource serves SKU tables and display names. *catalog.Products
// implements it.
type ProductSource interface {
	SKUs(country string, line model.ProductLine) []model.SKU
	DisplayName(country string, line model.ProductLine, partNumber string) string
	SetCustomSKU(partNumber, nickname string)
}

// PreferenceSource returns the current preference snapshot. Snapshots are
// captured atomically at the moment a cycle starts; a cycle never observes
// a half-updated preference set.
type PreferenceSource interface {
	Preferences() model.Preferences
}

// SnapshotSink persists committed results. *store.Store implements it.
type SnapshotSink interface {
	PutSnapshot(store.Snapshot) error
}

// Scheduler runs the resolution pipeline for the process lifetime. All
// writes to the resolution state are serialized through it; presentation
// layers only read.
type Scheduler struct {
	fetcher  Fetcher
	stores   StoreSource
	products ProductSource
	prefs    PreferenceSource
	sink     SnapshotSink // optional

	mu       sync.Mutex
	state    model.ResolutionState
	seq      uint64 // most recently started cycle
	inFlight int

	triggers chan struct{}

	subMu sync.Mutex
	subs  []chan struct{}
}

// New constructs a Scheduler from its collaborators. sink may be nil to
// disable snapshot persistence.
func New(fetcher Fetcher, stores StoreSource, products ProductSource, prefs PreferenceSource, sink SnapshotSink) *Scheduler {
	return &Scheduler{
		fetcher:  fetcher,
		stores:   stores,
		products: products,
		prefs:    prefs,
		sink:     sink,
		triggers: make(chan struct{}, 1),
	}
}

// State returns a copy of the current resolution state. The contained
// result is replaced wholesale on commit and safe to read concurrently.
func (s *Scheduler) State() model.ResolutionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a channel that receives a coalescing signal whenever
// the resolution state changes.
func (s *Scheduler) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()
	return ch
}

// Refresh requests a new resolution cycle. Non-blocking; pending triggers
// coalesce. Any in-flight cycle is superseded once the new one starts.
func (s *Scheduler) Refresh() {
	select {
	case s.triggers <- struct{}{}:
	default:
	}
}

// Run executes the scheduling loop until ctx is cancelled: one initial
// cycle, then cycles on manual triggers and — when the preference interval
// is positive — on timer wakeups. Timer wakeups are suppressed while a
// fetch is in flight so slow fetches do not pile up; manual triggers always
// start a superseding cycle. The refresh interval is re-read at every
// wakeup, so preference changes take effect without a restart.
func (s *Scheduler) Run(ctx context.Context) error {
	s.startCycle(ctx)

	for {
		var tickC <-chan time.Time
		var timer *time.Timer
		if interval := s.prefs.Preferences().RefreshInterval; interval > 0 {
			timer = time.NewTimer(interval)
			tickC = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case <-s.triggers:
			s.startCycle(ctx)
		case <-tickC:
			if !s.busy() {
				s.startCycle(ctx)
			}
		}

		if timer != nil {
			timer.Stop()
		}
	}
}

// ResolveOnce runs a single synchronous resolution cycle and returns the
// state after it completed. Used by one-shot commands; subject to the same
// supersession rules as scheduled cycles.
func (s *Scheduler) ResolveOnce(ctx context.Context) (model.ResolutionState, error) {
	seq, prefs := s.begin()
	ferr := s.runCycle(ctx, seq, prefs)
	if ferr != nil {
		return s.State(), ferr
	}
	return s.State(), nil
}

func (s *Scheduler) busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// startCycle begins an asynchronous cycle.
func (s *Scheduler) startCycle(ctx context.Context) {
	seq, prefs := s.begin()
	go func() {
		s.runCycle(ctx, seq, prefs)
	}()
}

// begin allocates the next cycle sequence number, captures the preference
// snapshot, and flips the loading flag.
func (s *Scheduler) begin() (uint64, model.Preferences) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.inFlight++
	s.state.Loading = true
	s.mu.Unlock()
	s.notify()

	return seq, s.prefs.Preferences()
}

// runCycle resolves and commits one cycle.
func (s *Scheduler) runCycle(ctx context.Context, seq uint64, prefs model.Preferences) *model.FetchError {
	result, ferr := s.resolve(ctx, prefs)
	s.commit(seq, prefs, result, ferr)
	return ferr
}

// resolve performs one fetch→match pass against the captured snapshot.
func (s *Scheduler) resolve(ctx context.Context, prefs model.Preferences) (model.ResolutionResult, *model.FetchError) {
	stores, err := s.stores.Stores(ctx, prefs.Country)
	if err != nil {
		return nil, asFetchError(err)
	}

	s.products.SetCustomSKU(prefs.CustomSKU, prefs.CustomSKUNickname)

	// No catalog or no store data for the selection: report immediately,
	// without a network call.
	if len(s.products.SKUs(prefs.Country, prefs.ProductLine)) == 0 || len(stores) == 0 {
		return nil, &model.FetchError{Kind: model.ErrNoDataForSelection}
	}

	effective := match.EffectiveStores(stores, prefs)
	numbers := make([]string, len(effective))
	for i, es := range effective {
		numbers[i] = es.Store.StoreNumber
	}

	records, err := s.fetcher.Fetch(ctx, prefs.Country, prefs.ProductLine, numbers)
	if err != nil {
		return nil, asFetchError(err)
	}

	return match.Resolve(records, stores, s.products, prefs), nil
}

// commit writes a cycle's outcome to the resolution state — unless a newer
// cycle has started, in which case the outcome is discarded. A failed cycle
// keeps the previous result visible and only records the error.
func (s *Scheduler) commit(seq uint64, prefs model.Preferences, result model.ResolutionResult, ferr *model.FetchError) {
	s.mu.Lock()
	s.inFlight--

	if seq < s.seq {
		superseded := s.seq
		s.mu.Unlock()
		slog.Debug("cycle superseded, result discarded", "cycle", seq, "by", superseded)
		return
	}

	var committedAt time.Time
	if ferr != nil {
		s.state.LastError = ferr
		slog.Warn("resolution cycle failed", "cycle", seq, "kind", ferr.Kind, "error", ferr)
	} else {
		committedAt = time.Now().UTC()
		s.state.Result = result
		s.state.LastError = nil
		s.state.LastUpdated = committedAt
		slog.Debug("resolution cycle committed", "cycle", seq,
			"stores", len(result), "products", result.ProductCount())
	}
	s.state.Loading = false
	s.mu.Unlock()
	s.notify()

	if ferr == nil && s.sink != nil {
		snap := store.Snapshot{
			CommittedAt: committedAt,
			Country:     prefs.Country,
			ProductLine: prefs.ProductLine,
			Result:      result,
		}
		if err := s.sink.PutSnapshot(snap); err != nil {
			slog.Warn("persisting resolution snapshot failed", "error", err)
		}
	}
}

// notify signals all subscribers without blocking.
func (s *Scheduler) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// asFetchError passes through typed fetch errors and classifies the rest
// as network failures.
func asFetchError(err error) *model.FetchError {
	var ferr *model.FetchError
	if errors.As(err, &ferr) {
		return ferr
	}
	return model.NewFetchError(model.ErrNetworkUnavailable, err)
}
