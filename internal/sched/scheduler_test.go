package sched_test

import (
	"context"
	"testing"
	"time"

	"github.com/example/stockwatch/internal/model"
	"github.com/example/stockwatch/internal/sched"
	"github.com/example/stockwatch/internal/store"
)

// ─── Fakes ────────────────────────────────────────────────────────────────────

type fetchCall struct {
	stores []string
	reply  chan fetchReply
}

type fetchReply struct {
	records []model.AvailabilityRecord
	err     error
}

// blockingFetcher hands each call to the test, which decides when and how
// to reply. Enables deterministic supersession scenarios.
type blockingFetcher struct {
	calls chan *fetchCall
}

func newBlockingFetcher() *blockingFetcher {
	return &blockingFetcher{calls: make(chan *fetchCall, 8)}
}

func (f *blockingFetcher) Fetch(ctx context.Context, country string, line model.ProductLine, storeNumbers []string) ([]model.AvailabilityRecord, error) {
	call := &fetchCall{stores: storeNumbers, reply: make(chan fetchReply)}
	f.calls <- call
	select {
	case r := <-call.reply:
		return r.records, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// instantFetcher returns fixed records on every call.
type instantFetcher struct {
	records []model.AvailabilityRecord
	err     error
	called  chan struct{}
}

func (f *instantFetcher) Fetch(ctx context.Context, country string, line model.ProductLine, storeNumbers []string) ([]model.AvailabilityRecord, error) {
	if f.called != nil {
		select {
		case f.called <- struct{}{}:
		default:
		}
	}
	return f.records, f.err
}

type fakeStores struct{ stores []model.Store }

func (f *fakeStores) Stores(ctx context.Context, country string) ([]model.Store, error) {
	return f.stores, nil
}

type fakeProducts struct {
	names map[string]string
	empty bool
}

func (f *fakeProducts) SKUs(country string, line model.ProductLine) []model.SKU {
	if f.empty {
		return nil
	}
	skus := make([]model.SKU, 0, len(f.names))
	for part, name := range f.names {
		skus = append(skus, model.SKU{PartNumber: part, DisplayName: name})
	}
	return skus
}

func (f *fakeProducts) DisplayName(country string, line model.ProductLine, part string) string {
	if name, ok := f.names[part]; ok {
		return name
	}
	return part
}

func (f *fakeProducts) SetCustomSKU(part, nickname string) {}

type fakePrefs struct{ p model.Preferences }

func (f *fakePrefs) Preferences() model.Preferences { return f.p }

type fakeSink struct{ snaps chan store.Snapshot }

func (f *fakeSink) PutSnapshot(snap store.Snapshot) error {
	f.snaps <- snap
	return nil
}

// ─── Fixtures ─────────────────────────────────────────────────────────────────

var schedStores = []model.Store{
	{StoreNumber: "R001", StoreName: "Downtown", City: "Seattle", Latitude: 47.61, Longitude: -122.33},
}

func schedPrefs() model.Preferences {
	return model.Preferences{
		Country:      "US",
		ProductLine:  model.LineMacBookPro,
		StoreNumbers: []string{"R001"},
	}
}

func schedProducts() *fakeProducts {
	return &fakeProducts{names: map[string]string{
		"MK1E3": "14-inch MacBook Pro, 512GB",
		"MK1F3": "14-inch MacBook Pro, 1TB",
	}}
}

func waitState(t *testing.T, s *sched.Scheduler, ok func(model.ResolutionState) bool) model.ResolutionState {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		if st := s.State(); ok(st) {
			return st
		}
		select {
		case <-deadline:
			t.Fatalf("state condition never met; last state: %+v", s.State())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// ─── Tests ────────────────────────────────────────────────────────────────────

func TestResolveOnceSuccess(t *testing.T) {
	fetcher := &instantFetcher{records: []model.AvailabilityRecord{
		{StoreNumber: "R001", PartNumber: "MK1E3"},
	}}
	s := sched.New(fetcher, &fakeStores{schedStores}, schedProducts(), &fakePrefs{schedPrefs()}, nil)

	st, err := s.ResolveOnce(context.Background())
	if err != nil {
		t.Fatalf("ResolveOnce: %v", err)
	}
	if st.Loading {
		t.Error("loading still set after completed cycle")
	}
	if st.LastError != nil {
		t.Errorf("lastError = %v", st.LastError)
	}
	if st.LastUpdated.IsZero() {
		t.Error("lastUpdated not stamped")
	}
	if len(st.Result) != 1 || st.Result[0].Store.StoreNumber != "R001" {
		t.Fatalf("result = %+v", st.Result)
	}
	if len(st.Result[0].Products) != 1 {
		t.Errorf("products = %v", st.Result[0].Products)
	}
}

func TestFailureKeepsPreviousResult(t *testing.T) {
	fetcher := &instantFetcher{records: []model.AvailabilityRecord{
		{StoreNumber: "R001", PartNumber: "MK1E3"},
	}}
	s := sched.New(fetcher, &fakeStores{schedStores}, schedProducts(), &fakePrefs{schedPrefs()}, nil)

	if _, err := s.ResolveOnce(context.Background()); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	good := s.State()

	fetcher.err = model.NewHTTPError(500, "R001")
	st, err := s.ResolveOnce(context.Background())
	if err == nil {
		t.Fatal("expected error from failing cycle")
	}
	if st.LastError == nil || st.LastError.Kind != model.ErrHTTP || st.LastError.Status != 500 {
		t.Errorf("lastError = %+v", st.LastError)
	}
	if len(st.Result) != len(good.Result) {
		t.Errorf("result was blanked on failure: %+v", st.Result)
	}
	if !st.LastUpdated.Equal(good.LastUpdated) {
		t.Error("lastUpdated advanced on a failed cycle")
	}

	// Recovery clears the error.
	fetcher.err = nil
	st, err = s.ResolveOnce(context.Background())
	if err != nil {
		t.Fatalf("recovery cycle: %v", err)
	}
	if st.LastError != nil {
		t.Errorf("lastError not cleared: %+v", st.LastError)
	}
}

func TestNoDataForSelectionSkipsNetwork(t *testing.T) {
	fetcher := newBlockingFetcher() // any call would block and fail the test
	products := &fakeProducts{empty: true}
	s := sched.New(fetcher, &fakeStores{schedStores}, products, &fakePrefs{schedPrefs()}, nil)

	_, err := s.ResolveOnce(context.Background())
	if err == nil {
		t.Fatal("expected NoDataForSelection error")
	}
	ferr, ok := err.(*model.FetchError)
	if !ok || ferr.Kind != model.ErrNoDataForSelection {
		t.Errorf("err = %v, want kind %s", err, model.ErrNoDataForSelection)
	}
	select {
	case <-fetcher.calls:
		t.Error("fetcher was called despite missing catalog data")
	default:
	}
}

func TestSupersession(t *testing.T) {
	fetcher := newBlockingFetcher()
	s := sched.New(fetcher, &fakeStores{schedStores}, schedProducts(), &fakePrefs{schedPrefs()}, nil)

	done := make(chan struct{}, 2)
	run := func() {
		s.ResolveOnce(context.Background())
		done <- struct{}{}
	}

	// Cycle N starts and blocks in its fetch.
	go run()
	callN := <-fetcher.calls

	// Cycle N+1 starts before N resolves.
	go run()
	callN1 := <-fetcher.calls

	// N+1 commits first.
	callN1.reply <- fetchReply{records: []model.AvailabilityRecord{
		{StoreNumber: "R001", PartNumber: "MK1F3"},
	}}
	<-done

	committed := waitState(t, s, func(st model.ResolutionState) bool {
		return len(st.Result) == 1 && len(st.Result[0].Products) == 1
	})
	if committed.Result[0].Products[0] != "14-inch MacBook Pro, 1TB" {
		t.Fatalf("committed result = %+v", committed.Result)
	}

	// N finally resolves with different data; it must be discarded.
	callN.reply <- fetchReply{records: []model.AvailabilityRecord{
		{StoreNumber: "R001", PartNumber: "MK1E3"},
	}}
	<-done

	final := s.State()
	if final.Result[0].Products[0] != "14-inch MacBook Pro, 1TB" {
		t.Errorf("stale cycle overwrote newer result: %+v", final.Result)
	}
	if !final.LastUpdated.Equal(committed.LastUpdated) {
		t.Error("stale cycle advanced lastUpdated")
	}
}

func TestStaleFailureDoesNotTaintNewerSuccess(t *testing.T) {
	fetcher := newBlockingFetcher()
	s := sched.New(fetcher, &fakeStores{schedStores}, schedProducts(), &fakePrefs{schedPrefs()}, nil)

	done := make(chan struct{}, 2)
	run := func() {
		s.ResolveOnce(context.Background())
		done <- struct{}{}
	}

	go run()
	callN := <-fetcher.calls
	go run()
	callN1 := <-fetcher.calls

	callN1.reply <- fetchReply{records: nil}
	<-done
	callN.reply <- fetchReply{err: model.NewHTTPError(503, "R001")}
	<-done

	if st := s.State(); st.LastError != nil {
		t.Errorf("stale failure surfaced: %+v", st.LastError)
	}
}

func TestRunManualRefresh(t *testing.T) {
	fetcher := &instantFetcher{
		records: []model.AvailabilityRecord{{StoreNumber: "R001", PartNumber: "MK1E3"}},
		called:  make(chan struct{}, 8),
	}
	s := sched.New(fetcher, &fakeStores{schedStores}, schedProducts(), &fakePrefs{schedPrefs()}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := s.Subscribe()
	go s.Run(ctx)

	// Initial cycle.
	<-fetcher.called
	waitState(t, s, func(st model.ResolutionState) bool { return !st.LastUpdated.IsZero() })
	first := s.State()

	// Manual refresh triggers another cycle and a subscriber signal.
	s.Refresh()
	<-fetcher.called
	waitState(t, s, func(st model.ResolutionState) bool { return st.LastUpdated.After(first.LastUpdated) })

	select {
	case <-sub:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never notified")
	}
}

func TestRunTickerSuppressedWhileFetchInFlight(t *testing.T) {
	fetcher := newBlockingFetcher()
	prefs := schedPrefs()
	prefs.RefreshInterval = 25 * time.Millisecond
	s := sched.New(fetcher, &fakeStores{schedStores}, schedProducts(), &fakePrefs{prefs}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// Initial cycle starts and blocks in its fetch.
	first := <-fetcher.calls

	// Several intervals elapse while the fetch is in flight; no tick may
	// start a second cycle.
	select {
	case <-fetcher.calls:
		t.Fatal("tick started a cycle while one was in flight")
	case <-time.After(100 * time.Millisecond):
	}

	first.reply <- fetchReply{records: []model.AvailabilityRecord{
		{StoreNumber: "R001", PartNumber: "MK1E3"},
	}}
	committed := waitState(t, s, func(st model.ResolutionState) bool {
		return !st.LastUpdated.IsZero()
	})

	// Once idle again, the next tick runs a fresh cycle.
	var tick *fetchCall
	select {
	case tick = <-fetcher.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker never fired after the cycle completed")
	}
	tick.reply <- fetchReply{records: []model.AvailabilityRecord{
		{StoreNumber: "R001", PartNumber: "MK1F3"},
	}}
	waitState(t, s, func(st model.ResolutionState) bool {
		return st.LastUpdated.After(committed.LastUpdated)
	})
}

func TestSuccessfulCyclePersistsSnapshot(t *testing.T) {
	fetcher := &instantFetcher{records: []model.AvailabilityRecord{
		{StoreNumber: "R001", PartNumber: "MK1E3"},
	}}
	sink := &fakeSink{snaps: make(chan store.Snapshot, 1)}
	s := sched.New(fetcher, &fakeStores{schedStores}, schedProducts(), &fakePrefs{schedPrefs()}, sink)

	if _, err := s.ResolveOnce(context.Background()); err != nil {
		t.Fatalf("ResolveOnce: %v", err)
	}

	select {
	case snap := <-sink.snaps:
		if snap.Country != "US" || snap.ProductLine != model.LineMacBookPro {
			t.Errorf("snapshot = %+v", snap)
		}
		if len(snap.Result) != 1 {
			t.Errorf("snapshot result = %+v", snap.Result)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot persisted")
	}
}
