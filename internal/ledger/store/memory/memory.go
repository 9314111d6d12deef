package memory

import (
	"context"
	"sync"

	"github.com/radieske/sports-wager-ledger/internal/ledger"
)

// Store mantém o último snapshot salvo em memória
type Store struct {
	mu   sync.Mutex
	snap *ledger.Snapshot
}

func New() *Store { return &Store{} }

func (s *Store) Load(ctx context.Context) (*ledger.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return ledger.NewSnapshot(), nil
	}
	return s.snap.Clone(), nil
}

func (s *Store) Save(ctx context.Context, snap *ledger.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap.Clone()
	return nil
}

func (s *Store) Close() error { return nil }
