package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/radieske/sports-wager-ledger/internal/ledger"
)

func TestEndToEndSettlement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createEvent(t, "A", "B", -150, 130)

	if _, _, err := f.ledger.PlaceWager(ctx, e.ID, "u1", "away", 100); err != nil {
		t.Fatalf("place wager: %v", err)
	}
	if got := mustAccount(t, f.ledger, "u1").Balance; got != 900 {
		t.Fatalf("expected 900 after wager, got %d", got)
	}

	res, err := f.ledger.ResolveEvent(ctx, e.ID, "away")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Event.Status() != ledger.StatusResolved {
		t.Fatalf("expected resolved status, got %s", res.Event.Status())
	}
	if len(res.Outcomes) != 1 || res.Outcomes[0].Kind != ledger.OutcomeWon || res.Outcomes[0].Amount != 230 {
		t.Fatalf("unexpected outcomes %+v", res.Outcomes)
	}

	acct := mustAccount(t, f.ledger, "u1")
	if acct.Balance != 1130 || acct.Wins != 1 || acct.Losses != 0 {
		t.Fatalf("expected balance 1130 with one win, got %+v", acct)
	}
}

func TestResolveTwiceFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createEvent(t, "A", "B", -110, 120)
	if _, _, err := f.ledger.PlaceWager(ctx, e.ID, "u1", "home", 100); err != nil {
		t.Fatalf("place wager: %v", err)
	}
	if _, err := f.ledger.ResolveEvent(ctx, e.ID, "home"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	before := mustAccount(t, f.ledger, "u1")

	_, err := f.ledger.ResolveEvent(ctx, e.ID, "home")
	if !errors.Is(err, ledger.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	_, err = f.ledger.ResolveEvent(ctx, e.ID, "draw")
	if !errors.Is(err, ledger.ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection on resolved event, got %v", err)
	}
	after := mustAccount(t, f.ledger, "u1")
	if after.Balance != before.Balance || after.Wins != before.Wins {
		t.Fatalf("expected no change on second resolve: %+v -> %+v", before, after)
	}
}

func TestResolveValidationOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createEvent(t, "A", "B", -110, 120)

	if _, err := f.ledger.ResolveEvent(ctx, "missing", "draw"); !errors.Is(err, ledger.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
	if _, err := f.ledger.ResolveEvent(ctx, e.ID, "draw"); !errors.Is(err, ledger.ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection, got %v", err)
	}
}

func TestResolveOpenEventSettlesAndLocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createEvent(t, "A", "B", -110, 120)

	res, err := f.ledger.ResolveEvent(ctx, e.ID, "home")
	if err != nil {
		t.Fatalf("resolve open event: %v", err)
	}
	if !res.Event.Locked {
		t.Fatal("expected resolved event to be locked")
	}
	if _, _, err := f.ledger.PlaceWager(ctx, e.ID, "u1", "home", 10); !errors.Is(err, ledger.ErrBettingClosed) {
		t.Fatalf("expected ErrBettingClosed after resolve, got %v", err)
	}
}

func TestLosingOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		items       map[ledger.Item]int64
		drainTo     int64
		stake       int64
		wantKind    ledger.OutcomeKind
		wantAmount  int64
		wantBalance int64
	}{
		{
			name:        "plain loss",
			stake:       100,
			wantKind:    ledger.OutcomeLost,
			wantBalance: 900,
		},
		{
			name:        "insurance refunds half",
			items:       map[ledger.Item]int64{ledger.ItemInsurance: 1},
			stake:       101,
			wantKind:    ledger.OutcomeLostWithInsurance,
			wantAmount:  50,
			wantBalance: 949,
		},
		{
			name:        "multiplier penalty takes stake again",
			items:       map[ledger.Item]int64{ledger.ItemMultiplier: 1},
			stake:       100,
			wantKind:    ledger.OutcomeLostWithPenalty,
			wantAmount:  100,
			wantBalance: 800,
		},
		{
			name:        "penalty clamps at zero",
			items:       map[ledger.Item]int64{ledger.ItemMultiplier: 1},
			drainTo:     130,
			stake:       100,
			wantKind:    ledger.OutcomeLostWithPenalty,
			wantAmount:  30,
			wantBalance: 0,
		},
		{
			name:        "insurance wins over penalty",
			items:       map[ledger.Item]int64{ledger.ItemMultiplier: 1, ledger.ItemInsurance: 1},
			stake:       100,
			wantKind:    ledger.OutcomeLostWithInsurance,
			wantAmount:  50,
			wantBalance: 950,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			e := f.createEvent(t, "A", "B", -110, 120)

			for item, n := range tt.items {
				if _, err := f.ledger.SetInventory(ctx, "u1", item, n); err != nil {
					t.Fatalf("set inventory: %v", err)
				}
			}
			if tt.drainTo > 0 {
				if _, err := f.ledger.AdjustBalance(ctx, "u1", tt.drainTo-1000); err != nil {
					t.Fatalf("drain: %v", err)
				}
			}
			if _, _, err := f.ledger.PlaceWager(ctx, e.ID, "u1", "home", tt.stake); err != nil {
				t.Fatalf("place wager: %v", err)
			}

			res, err := f.ledger.ResolveEvent(ctx, e.ID, "away")
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			o := res.Outcomes[0]
			if o.Kind != tt.wantKind || o.Amount != tt.wantAmount {
				t.Fatalf("expected %s/%d, got %s/%d", tt.wantKind, tt.wantAmount, o.Kind, o.Amount)
			}
			acct := mustAccount(t, f.ledger, "u1")
			if acct.Balance != tt.wantBalance {
				t.Fatalf("expected balance %d, got %d", tt.wantBalance, acct.Balance)
			}
			if acct.Losses != 1 || acct.Wins != 0 {
				t.Fatalf("expected one loss, got %+v", acct)
			}
		})
	}
}

func TestSettlementCoversEveryWager(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createEvent(t, "A", "B", 100, -200)

	users := []struct {
		id   string
		team string
	}{{"u1", "home"}, {"u2", "away"}, {"u3", "home"}}
	for _, u := range users {
		if _, _, err := f.ledger.PlaceWager(ctx, e.ID, u.id, u.team, 100); err != nil {
			t.Fatalf("place wager %s: %v", u.id, err)
		}
	}

	res, err := f.ledger.ResolveEvent(ctx, e.ID, "home")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(res.Outcomes))
	}
	want := map[string]int64{"u1": 1100, "u2": 900, "u3": 1100}
	for id, bal := range want {
		if got := mustAccount(t, f.ledger, id).Balance; got != bal {
			t.Errorf("%s: expected balance %d, got %d", id, bal, got)
		}
	}
}
