// Package ledger é o núcleo da economia de apostas: contas, jogos, apostas e
// liquidação. Todo o estado vive num único Snapshot protegido por um mutex e
// é regravado inteiro no Store após cada operação que altera saldo ou jogo.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-wager-ledger/pkg/contracts/events"
)

// Store persiste o snapshot completo; Save deve ser tudo-ou-nada
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, s *Snapshot) error
	Close() error
}

// Notifier recebe as notificações já persistidas, fora do lock do ledger
type Notifier interface {
	Notify(ctx context.Context, env events.Envelope)
}

// Hooks são callbacks de métricas, todos opcionais
type Hooks struct {
	OnWagerPlaced  func(stake int64)
	OnSettled      func(outcome OutcomeKind)
	OnRejected     func(op, code string)
	OnPersistError func(op string)
	OnEventLocked  func()
	OnEventCreated func()
	OnSlotSpin     func(won bool)
}

type Options struct {
	Log      *zap.Logger
	Notifier Notifier
	Hooks    Hooks
	Now      func() time.Time
	// Pick devolve um inteiro em [0,n); usado pelo caça-níquel
	Pick func(n int) int
}

// Ledger serializa todas as operações de escrita atrás de um único mutex
type Ledger struct {
	mu    sync.Mutex
	state *Snapshot
	store Store

	log      *zap.Logger
	notifier Notifier
	hooks    Hooks
	now      func() time.Time
	pick     func(n int) int
}

// Open carrega o snapshot uma vez e devolve o ledger pronto para uso
func Open(ctx context.Context, store Store, opts Options) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("ledger store is required")
	}
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if snap == nil {
		snap = NewSnapshot()
	}
	snap.normalize()

	l := &Ledger{
		state:    snap,
		store:    store,
		log:      opts.Log,
		notifier: opts.Notifier,
		hooks:    opts.Hooks,
		now:      opts.Now,
		pick:     opts.Pick,
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}
	if l.now == nil {
		l.now = func() time.Time { return time.Now().UTC() }
	}
	if l.pick == nil {
		l.pick = rand.IntN
	}

	l.log.Info("ledger loaded",
		zap.Int("accounts", len(snap.Accounts)),
		zap.Int("events", len(snap.Events)),
	)
	return l, nil
}

// Close grava o estado final e fecha o store
func (l *Ledger) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := l.state.Clone()
	snap.SavedAt = l.now()
	if err := l.store.Save(ctx, snap); err != nil {
		_ = l.store.Close()
		return fmt.Errorf("final flush: %w", err)
	}
	return l.store.Close()
}

// txn é a cópia de trabalho de uma operação; só vira estado após Save
type txn struct {
	st    *Snapshot
	now   time.Time
	dirty bool
	notes []note
}

type note struct {
	typ     string
	eventID string
	channel string
	payload any
}

func (tx *txn) notify(typ, eventID, channel string, payload any) {
	tx.notes = append(tx.notes, note{typ: typ, eventID: eventID, channel: channel, payload: payload})
}

// mutate executa fn sobre uma cópia do estado e só troca o estado se a
// gravação durável der certo; notificações saem depois do unlock
func (l *Ledger) mutate(ctx context.Context, op string, fn func(tx *txn) error) error {
	l.mu.Lock()

	tx := &txn{st: l.state.Clone(), now: l.now()}
	if err := fn(tx); err != nil {
		l.mu.Unlock()
		if l.hooks.OnRejected != nil {
			l.hooks.OnRejected(op, CodeOf(err))
		}
		return err
	}

	if tx.dirty {
		tx.st.SavedAt = tx.now
		if err := l.store.Save(ctx, tx.st); err != nil {
			l.mu.Unlock()
			l.log.Error("ledger persist failed", zap.String("op", op), zap.Error(err))
			if l.hooks.OnPersistError != nil {
				l.hooks.OnPersistError(op)
			}
			return fmt.Errorf("%s: %w: %w", op, ErrPersist, err)
		}
		l.state = tx.st
	}
	l.mu.Unlock()

	l.publish(ctx, tx.now, tx.notes)
	return nil
}

// view executa leitura sob o lock; fn não deve reter ponteiros do estado
func (l *Ledger) view(fn func(st *Snapshot)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.state)
}

func (l *Ledger) publish(ctx context.Context, ts time.Time, notes []note) {
	if l.notifier == nil || len(notes) == 0 {
		return
	}
	for _, n := range notes {
		env, err := events.NewEnvelope(n.typ, n.eventID, n.channel, ts, n.payload)
		if err != nil {
			l.log.Warn("encode notification", zap.String("type", n.typ), zap.Error(err))
			continue
		}
		l.notifier.Notify(ctx, env)
	}
}

// Settings devolve o registro de configuração atual
func (l *Ledger) Settings() Settings {
	var s Settings
	l.view(func(st *Snapshot) { s = st.Settings })
	return s
}

// UpdateSettings substitui o registro de configuração
func (l *Ledger) UpdateSettings(ctx context.Context, s Settings) (Settings, error) {
	return l.PatchSettings(ctx, func(cur *Settings) error {
		*cur = s
		return nil
	})
}

// PatchSettings aplica fn sobre as configurações atuais numa única escrita
// Erro de fn descarta a alteração inteira
func (l *Ledger) PatchSettings(ctx context.Context, fn func(s *Settings) error) (Settings, error) {
	var out Settings
	err := l.mutate(ctx, "update_settings", func(tx *txn) error {
		next := tx.st.Settings
		if err := fn(&next); err != nil {
			return err
		}
		if next != tx.st.Settings {
			tx.st.Settings = next
			tx.dirty = true
		}
		out = next
		return nil
	})
	return out, err
}

// Ping confere que o ledger está carregado (health check)
func (l *Ledger) Ping(context.Context) error {
	ok := false
	l.view(func(st *Snapshot) { ok = st != nil })
	if !ok {
		return errors.New("ledger not loaded")
	}
	return nil
}
