// Package sqlstore persiste o snapshot do ledger em Postgres ou SQLite.
// Cada Save apaga e regrava as tabelas dentro de uma transação.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/radieske/sports-wager-ledger/internal/ledger"
)

// Dialect isola as diferenças de SQL entre os bancos suportados
type Dialect struct {
	Name        string
	PayloadType string
	// Placeholder devolve o marcador do n-ésimo argumento (1-based)
	Placeholder func(n int) string
	// PayloadCast envolve o marcador do payload JSON
	PayloadCast func(ph string) string
}

var Postgres = Dialect{
	Name:        "postgres",
	PayloadType: "JSONB",
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	PayloadCast: func(ph string) string { return ph + "::jsonb" },
}

var SQLite = Dialect{
	Name:        "sqlite",
	PayloadType: "TEXT",
	Placeholder: func(int) string { return "?" },
	PayloadCast: func(ph string) string { return ph },
}

const (
	settingsKey = "settings"
	savedAtKey  = "saved_at"
)

// Store usa um *sql.DB já conectado; Close fecha a conexão
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New cria as tabelas se preciso e devolve o store
func New(ctx context.Context, db *sql.DB, d Dialect) (*Store, error) {
	s := &Store{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	pt := s.dialect.PayloadType
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ledger_accounts (
			user_id TEXT PRIMARY KEY,
			payload ` + pt + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_events (
			event_id TEXT PRIMARY KEY,
			payload ` + pt + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_wagers (
			event_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			payload ` + pt + ` NOT NULL,
			PRIMARY KEY (event_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%s migrate: %w", s.dialect.Name, err)
		}
	}
	return nil
}

// Load reconstrói o snapshot; apostas voltam em ordem de seq
func (s *Store) Load(ctx context.Context) (*ledger.Snapshot, error) {
	snap := ledger.NewSnapshot()

	if err := s.scanPayloads(ctx, `SELECT user_id, payload FROM ledger_accounts`, func(id string, b []byte) error {
		var a ledger.Account
		if err := json.Unmarshal(b, &a); err != nil {
			return fmt.Errorf("unmarshal account %s: %w", id, err)
		}
		snap.Accounts[id] = &a
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.scanPayloads(ctx, `SELECT event_id, payload FROM ledger_events`, func(id string, b []byte) error {
		var e ledger.Event
		if err := json.Unmarshal(b, &e); err != nil {
			return fmt.Errorf("unmarshal event %s: %w", id, err)
		}
		snap.Events[id] = &e
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.scanPayloads(ctx, `SELECT event_id, payload FROM ledger_wagers ORDER BY event_id, seq`, func(id string, b []byte) error {
		var w ledger.Wager
		if err := json.Unmarshal(b, &w); err != nil {
			return fmt.Errorf("unmarshal wager on %s: %w", id, err)
		}
		snap.Wagers[id] = append(snap.Wagers[id], &w)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.scanPayloads(ctx, `SELECT key, value FROM ledger_meta`, func(key string, b []byte) error {
		switch key {
		case settingsKey:
			if err := json.Unmarshal(b, &snap.Settings); err != nil {
				return fmt.Errorf("unmarshal settings: %w", err)
			}
		case savedAtKey:
			t, err := time.Parse(time.RFC3339Nano, string(b))
			if err != nil {
				return fmt.Errorf("parse saved_at: %w", err)
			}
			snap.SavedAt = t
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return snap, nil
}

func (s *Store) scanPayloads(ctx context.Context, q string, fn func(id string, payload []byte) error) error {
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if err := fn(id, payload); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Save substitui todo o conteúdo numa transação; erro faz rollback
func (s *Store) Save(ctx context.Context, snap *ledger.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"ledger_wagers", "ledger_events", "ledger_accounts", "ledger_meta"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	ph, cast := s.dialect.Placeholder, s.dialect.PayloadCast
	insAccount := `INSERT INTO ledger_accounts(user_id, payload) VALUES(` + ph(1) + `,` + cast(ph(2)) + `)`
	insEvent := `INSERT INTO ledger_events(event_id, payload) VALUES(` + ph(1) + `,` + cast(ph(2)) + `)`
	insWager := `INSERT INTO ledger_wagers(event_id, seq, payload) VALUES(` + ph(1) + `,` + ph(2) + `,` + cast(ph(3)) + `)`
	insMeta := `INSERT INTO ledger_meta(key, value) VALUES(` + ph(1) + `,` + ph(2) + `)`

	for _, id := range sortedKeys(snap.Accounts) {
		b, err := json.Marshal(snap.Accounts[id])
		if err != nil {
			return fmt.Errorf("marshal account %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, insAccount, id, string(b)); err != nil {
			return fmt.Errorf("insert account %s: %w", id, err)
		}
	}
	for _, id := range sortedKeys(snap.Events) {
		b, err := json.Marshal(snap.Events[id])
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, insEvent, id, string(b)); err != nil {
			return fmt.Errorf("insert event %s: %w", id, err)
		}
	}
	for _, id := range sortedKeys(snap.Wagers) {
		for seq, w := range snap.Wagers[id] {
			b, err := json.Marshal(w)
			if err != nil {
				return fmt.Errorf("marshal wager on %s: %w", id, err)
			}
			if _, err := tx.ExecContext(ctx, insWager, id, seq, string(b)); err != nil {
				return fmt.Errorf("insert wager on %s: %w", id, err)
			}
		}
	}

	settings, err := json.Marshal(snap.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insMeta, settingsKey, string(settings)); err != nil {
		return fmt.Errorf("insert settings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insMeta, savedAtKey, snap.SavedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("insert saved_at: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
