package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/radieske/sports-wager-ledger/internal/ledger"
	"github.com/radieske/sports-wager-ledger/pkg/contracts/events"
)

// fakeStore guarda o último snapshot salvo e pode falhar sob demanda
type fakeStore struct {
	mu       sync.Mutex
	saved    *ledger.Snapshot
	saves    int
	failSave error
	closed   bool
}

func (s *fakeStore) Load(context.Context) (*ledger.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		return ledger.NewSnapshot(), nil
	}
	return s.saved.Clone(), nil
}

func (s *fakeStore) Save(_ context.Context, snap *ledger.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave != nil {
		return s.failSave
	}
	s.saved = snap.Clone()
	s.saves++
	return nil
}

func (s *fakeStore) Close() error {
	s.closed = true
	return nil
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type recordingNotifier struct {
	mu   sync.Mutex
	envs []events.Envelope
}

func (n *recordingNotifier) Notify(_ context.Context, env events.Envelope) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.envs = append(n.envs, env)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.envs))
	for i, e := range n.envs {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	ledger   *ledger.Ledger
	store    *fakeStore
	notifier *recordingNotifier
	now      time.Time
}

var gameStart = time.Date(2026, 1, 15, 19, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    &fakeStore{},
		notifier: &recordingNotifier{},
		now:      gameStart.Add(-2 * time.Hour),
	}
	l, err := ledger.Open(context.Background(), f.store, ledger.Options{
		Notifier: f.notifier,
		Now:      func() time.Time { return f.now },
	})
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	f.ledger = l
	return f
}

func (f *fixture) createEvent(t *testing.T, home, away string, homeOdds, awayOdds float64) ledger.Event {
	t.Helper()
	e, err := f.ledger.CreateEvent(context.Background(), ledger.EventInput{
		Home:      home,
		Away:      away,
		HomeOdds:  homeOdds,
		AwayOdds:  awayOdds,
		StartTime: gameStart,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return e
}

func mustAccount(t *testing.T, l *ledger.Ledger, userID string) ledger.Account {
	t.Helper()
	a, err := l.Account(context.Background(), userID)
	if err != nil {
		t.Fatalf("account %s: %v", userID, err)
	}
	return a
}

func TestAccountCreatedWithDefaults(t *testing.T) {
	f := newFixture(t)

	a := mustAccount(t, f.ledger, "u1")
	if a.Balance != 1000 {
		t.Fatalf("expected balance 1000, got %d", a.Balance)
	}
	if a.Wins != 0 || a.Losses != 0 || a.TotalWagered != 0 || a.LoanAmount != 0 {
		t.Fatalf("expected zero counters, got %+v", a)
	}
	if f.store.saveCount() != 1 {
		t.Fatalf("expected account creation to persist once, got %d saves", f.store.saveCount())
	}

	mustAccount(t, f.ledger, "u1")
	if f.store.saveCount() != 1 {
		t.Fatalf("expected existing account lookup not to persist, got %d saves", f.store.saveCount())
	}
}

func TestAccountRequiresUserID(t *testing.T) {
	f := newFixture(t)
	if _, err := f.ledger.Account(context.Background(), "  "); !errors.Is(err, ledger.ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
}

func TestOpenRestoresPersistedState(t *testing.T) {
	f := newFixture(t)
	if _, err := f.ledger.AdjustBalance(context.Background(), "u1", 250); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	reopened, err := ledger.Open(context.Background(), f.store, ledger.Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := mustAccount(t, reopened, "u1").Balance; got != 1250 {
		t.Fatalf("expected restored balance 1250, got %d", got)
	}
}

func TestPersistFailureLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, "A", "B", -110, 120)
	mustAccount(t, f.ledger, "u1")

	f.store.failSave = errors.New("disk full")
	_, _, err := f.ledger.PlaceWager(context.Background(), e.ID, "u1", "home", 50)
	if !errors.Is(err, ledger.ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
	if ledger.KindOf(err) != ledger.KindInternal {
		t.Fatalf("expected internal kind, got %v", ledger.KindOf(err))
	}

	f.store.failSave = nil
	if got := mustAccount(t, f.ledger, "u1").Balance; got != 1000 {
		t.Fatalf("expected balance untouched after failed persist, got %d", got)
	}
	wagers, err := f.ledger.Wagers(e.ID)
	if err != nil {
		t.Fatalf("wagers: %v", err)
	}
	if len(wagers) != 0 {
		t.Fatalf("expected no wager after failed persist, got %d", len(wagers))
	}
}

func TestCloseFlushesAndClosesStore(t *testing.T) {
	f := newFixture(t)
	mustAccount(t, f.ledger, "u1")
	before := f.store.saveCount()

	if err := f.ledger.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if f.store.saveCount() != before+1 {
		t.Fatalf("expected final flush, saves %d -> %d", before, f.store.saveCount())
	}
	if !f.store.closed {
		t.Fatal("expected store to be closed")
	}
}

func TestSettingsPersist(t *testing.T) {
	f := newFixture(t)
	if !f.ledger.Settings().SlotsEnabled {
		t.Fatal("expected slots enabled by default")
	}
	_, err := f.ledger.UpdateSettings(context.Background(), ledger.Settings{AnnounceChannel: "sports", SlotsEnabled: false})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	e := f.createEvent(t, "A", "B", -110, 120)
	if e.SourceChannel != "sports" {
		t.Fatalf("expected event to inherit announce channel, got %q", e.SourceChannel)
	}
	if f.store.saved.Settings.AnnounceChannel != "sports" {
		t.Fatalf("expected settings persisted, got %+v", f.store.saved.Settings)
	}
}

func TestPatchSettingsSingleWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.store.saveCount()

	got, err := f.ledger.PatchSettings(ctx, func(s *ledger.Settings) error {
		s.AnnounceChannel = "sports"
		s.SlotsEnabled = false
		s.AutoFetchEnabled = false
		return nil
	})
	if err != nil {
		t.Fatalf("patch settings: %v", err)
	}
	if got.AnnounceChannel != "sports" || got.SlotsEnabled || got.AutoFetchEnabled {
		t.Fatalf("unexpected settings %+v", got)
	}
	if n := f.store.saveCount() - before; n != 1 {
		t.Fatalf("expected one save for the whole patch, got %d", n)
	}

	// sem mudança não grava
	before = f.store.saveCount()
	if _, err := f.ledger.PatchSettings(ctx, func(s *ledger.Settings) error {
		s.SlotsEnabled = false
		return nil
	}); err != nil {
		t.Fatalf("noop patch: %v", err)
	}
	if f.store.saveCount() != before {
		t.Fatal("unchanged settings must not be saved")
	}
}

func TestPatchSettingsErrorDiscardsChanges(t *testing.T) {
	f := newFixture(t)
	before := f.store.saveCount()
	boom := errors.New("bad value")

	_, err := f.ledger.PatchSettings(context.Background(), func(s *ledger.Settings) error {
		s.AnnounceChannel = "sports"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if f.ledger.Settings().AnnounceChannel != "" {
		t.Fatalf("settings changed despite error: %+v", f.ledger.Settings())
	}
	if f.store.saveCount() != before {
		t.Fatal("failed patch must not be saved")
	}
}

func TestConcurrentWagersAndTickSerialize(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, "Lakers", "Warriors", -110, 150)
	mustAccount(t, f.ledger, "u1")
	ctx := context.Background()

	const workers = 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		others    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, err := f.ledger.PlaceWager(ctx, e.ID, "u1", "home", 10)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			others = append(others, err)
		}()
		go func() {
			defer wg.Done()
			if _, err := f.ledger.Tick(ctx, gameStart.Add(-time.Hour)); err != nil {
				t.Errorf("tick: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one accepted wager, got %d", successes)
	}
	for _, err := range others {
		if !errors.Is(err, ledger.ErrDuplicateWager) {
			t.Fatalf("expected ErrDuplicateWager, got %v", err)
		}
	}
	if bal := mustAccount(t, f.ledger, "u1").Balance; bal != 990 {
		t.Fatalf("expected a single stake debited, balance %d", bal)
	}
	ws, err := f.ledger.Wagers(e.ID)
	if err != nil {
		t.Fatalf("wagers: %v", err)
	}
	if len(ws) != 1 {
		t.Fatalf("expected one wager stored, got %d", len(ws))
	}
}

func TestConcurrentWagersRacingLockStayConsistent(t *testing.T) {
	f := newFixture(t)
	e := f.createEvent(t, "Lakers", "Warriors", -110, 150)
	users := []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8"}
	for _, u := range users {
		mustAccount(t, f.ledger, u)
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := map[string]bool{}
	for _, u := range users {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			_, _, err := f.ledger.PlaceWager(ctx, e.ID, u, "away", 25)
			if err == nil {
				mu.Lock()
				accepted[u] = true
				mu.Unlock()
				return
			}
			if !errors.Is(err, ledger.ErrBettingClosed) {
				t.Errorf("%s: unexpected error %v", u, err)
			}
		}(u)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := f.ledger.Tick(ctx, gameStart); err != nil {
			t.Errorf("tick: %v", err)
		}
	}()
	wg.Wait()

	ws, err := f.ledger.Wagers(e.ID)
	if err != nil {
		t.Fatalf("wagers: %v", err)
	}
	if len(ws) != len(accepted) {
		t.Fatalf("stored %d wagers, accepted %d", len(ws), len(accepted))
	}
	for _, u := range users {
		want := int64(1000)
		if accepted[u] {
			want -= 25
		}
		if bal := mustAccount(t, f.ledger, u).Balance; bal != want {
			t.Fatalf("%s: balance %d, want %d", u, bal, want)
		}
	}
	got, err := f.ledger.Event(e.ID)
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if got.Status() != ledger.StatusLocked {
		t.Fatalf("expected locked event, got %v", got.Status())
	}
}

func TestKindOfClassifiesErrors(t *testing.T) {
	tests := []struct {
		err  error
		want ledger.Kind
	}{
		{ledger.ErrEventNotFound, ledger.KindNotFound},
		{ledger.ErrInvalidSelection, ledger.KindInvalidInput},
		{ledger.ErrDuplicateWager, ledger.KindStateConflict},
		{&ledger.CooldownError{Remaining: time.Hour}, ledger.KindStateConflict},
		{ledger.ErrInsufficientFunds, ledger.KindInsufficientFunds},
		{errors.New("boom"), ledger.KindInternal},
	}
	for _, tt := range tests {
		if got := ledger.KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
