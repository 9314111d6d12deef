package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/sports-wager-ledger/internal/ledger"
	"github.com/radieske/sports-wager-ledger/internal/shared/db"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	conn, err := db.ConnectSQLite(filepath.Join(t.TempDir(), "ledger.sqlite"))
	if err != nil {
		t.Fatalf("connect sqlite: %v", err)
	}
	s, err := New(context.Background(), conn, SQLite)
	if err != nil {
		_ = conn.Close()
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	snap := ledger.NewSnapshot()
	snap.Accounts["u1"] = &ledger.Account{UserID: "u1", Balance: 900, TotalWagered: 100, Inventory: map[ledger.Item]int64{}}
	snap.Events["A_B_1"] = &ledger.Event{ID: "A_B_1", Home: "A", Away: "B", HomeOdds: -150, AwayOdds: 130, StartTime: now}
	snap.Wagers["A_B_1"] = []*ledger.Wager{
		{EventID: "A_B_1", UserID: "u2", Team: ledger.TeamHome, Stake: 10, Odds: -150, PotentialPayout: decimal.NewFromInt(16), PlacedAt: now},
		{EventID: "A_B_1", UserID: "u1", Team: ledger.TeamAway, Stake: 100, Odds: 130, PotentialPayout: decimal.NewFromInt(230), PlacedAt: now},
	}
	snap.Settings.AnnounceChannel = "general"
	snap.SavedAt = now

	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := loaded.Accounts["u1"]; got == nil || got.Balance != 900 || got.TotalWagered != 100 {
		t.Fatalf("unexpected account %+v", got)
	}
	ws := loaded.Wagers["A_B_1"]
	if len(ws) != 2 || ws[0].UserID != "u2" || ws[1].UserID != "u1" {
		t.Fatalf("expected wagers in insertion order, got %+v", ws)
	}
	if !ws[1].PotentialPayout.Equal(decimal.NewFromInt(230)) {
		t.Fatalf("unexpected payout %s", ws[1].PotentialPayout)
	}
	if loaded.Settings.AnnounceChannel != "general" {
		t.Fatalf("unexpected settings %+v", loaded.Settings)
	}
	if !loaded.SavedAt.Equal(now) {
		t.Fatalf("unexpected saved_at %v", loaded.SavedAt)
	}
}

func TestSQLiteSaveReplaces(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	first := ledger.NewSnapshot()
	first.Accounts["u1"] = &ledger.Account{UserID: "u1", Balance: 1}
	first.Accounts["u2"] = &ledger.Account{UserID: "u2", Balance: 2}
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := ledger.NewSnapshot()
	second.Accounts["u3"] = &ledger.Account{UserID: "u3", Balance: 3}
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Accounts) != 1 || loaded.Accounts["u3"] == nil {
		t.Fatalf("expected only u3, got %+v", loaded.Accounts)
	}
}

func TestSQLiteEmptyLoadUsesDefaults(t *testing.T) {
	s := openSQLite(t)
	loaded, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.Settings.SlotsEnabled || len(loaded.Events) != 0 {
		t.Fatalf("expected default snapshot, got %+v", loaded)
	}
}

func TestPostgresPlaceholders(t *testing.T) {
	if got := Postgres.PayloadCast(Postgres.Placeholder(2)); got != "$2::jsonb" {
		t.Fatalf("unexpected postgres payload placeholder %q", got)
	}
	if got := SQLite.PayloadCast(SQLite.Placeholder(2)); got != "?" {
		t.Fatalf("unexpected sqlite payload placeholder %q", got)
	}
}
