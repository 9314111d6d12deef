// Package bolt persiste o snapshot do ledger num arquivo bbolt.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/radieske/sports-wager-ledger/internal/ledger"
)

const (
	accountsBucket = "accounts"
	eventsBucket   = "events"
	wagersBucket   = "wagers"
	metaBucket     = "meta"

	settingsKey = "settings"
	savedAtKey  = "saved_at"
)

var buckets = []string{accountsBucket, eventsBucket, wagersBucket, metaBucket}

// Store grava contas, jogos e apostas em buckets separados
type Store struct {
	db *bbolt.DB
}

// Open abre (ou cria) o arquivo e garante os buckets
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("bolt path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureBuckets(); err != nil {
		_ = db.Close()
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

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// Load lê o snapshot inteiro; arquivo vazio devolve um ledger novo
func (s *Store) Load(ctx context.Context) (*ledger.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := ledger.NewSnapshot()

	err := s.db.View(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(accountsBucket)).ForEach(func(k, v []byte) error {
			var a ledger.Account
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("unmarshal account %s: %w", k, err)
			}
			snap.Accounts[string(k)] = &a
			return nil
		}); err != nil {
			return err
		}

		if err := tx.Bucket([]byte(eventsBucket)).ForEach(func(k, v []byte) error {
			var e ledger.Event
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("unmarshal event %s: %w", k, err)
			}
			snap.Events[string(k)] = &e
			return nil
		}); err != nil {
			return err
		}

		if err := tx.Bucket([]byte(wagersBucket)).ForEach(func(k, v []byte) error {
			var ws []*ledger.Wager
			if err := json.Unmarshal(v, &ws); err != nil {
				return fmt.Errorf("unmarshal wagers %s: %w", k, err)
			}
			snap.Wagers[string(k)] = ws
			return nil
		}); err != nil {
			return err
		}

		meta := tx.Bucket([]byte(metaBucket))
		if v := meta.Get([]byte(settingsKey)); v != nil {
			if err := json.Unmarshal(v, &snap.Settings); err != nil {
				return fmt.Errorf("unmarshal settings: %w", err)
			}
		}
		if v := meta.Get([]byte(savedAtKey)); v != nil {
			if err := snap.SavedAt.UnmarshalText(v); err != nil {
				return fmt.Errorf("unmarshal saved_at: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Save regrava todos os buckets numa única transação
func (s *Store) Save(ctx context.Context, snap *ledger.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if err := tx.DeleteBucket([]byte(name)); err != nil {
				return fmt.Errorf("reset %s bucket: %w", name, err)
			}
			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}

		accounts := tx.Bucket([]byte(accountsBucket))
		for id, a := range snap.Accounts {
			if err := putJSON(accounts, id, a); err != nil {
				return err
			}
		}
		evs := tx.Bucket([]byte(eventsBucket))
		for id, e := range snap.Events {
			if err := putJSON(evs, id, e); err != nil {
				return err
			}
		}
		wagers := tx.Bucket([]byte(wagersBucket))
		for id, ws := range snap.Wagers {
			if len(ws) == 0 {
				continue
			}
			if err := putJSON(wagers, id, ws); err != nil {
				return err
			}
		}

		meta := tx.Bucket([]byte(metaBucket))
		if err := putJSON(meta, settingsKey, snap.Settings); err != nil {
			return err
		}
		ts, err := snap.SavedAt.MarshalText()
		if err != nil {
			return fmt.Errorf("marshal saved_at: %w", err)
		}
		return meta.Put([]byte(savedAtKey), ts)
	})
}

func putJSON(b *bbolt.Bucket, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return b.Put([]byte(key), payload)
}
