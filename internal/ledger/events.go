package ledger

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-wager-ledger/pkg/contracts/events"
)

// EventInput são os dados para abrir um jogo
type EventInput struct {
	Home      string
	Away      string
	HomeOdds  float64
	AwayOdds  float64
	StartTime time.Time
	LockTime  *time.Time // nil: trava no início do jogo
	Channel   string     // vazio: usa Settings.AnnounceChannel
}

func validOdds(v float64) bool {
	return v != 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CreateEvent abre um jogo no estado Open
func (l *Ledger) CreateEvent(ctx context.Context, in EventInput) (Event, error) {
	var out Event
	err := l.mutate(ctx, "create_event", func(tx *txn) error {
		home, away := strings.TrimSpace(in.Home), strings.TrimSpace(in.Away)
		// "_" separa as partes do id; nomes com "_" colidiriam
		if home == "" || away == "" || strings.EqualFold(home, away) || in.StartTime.IsZero() ||
			strings.Contains(home, "_") || strings.Contains(away, "_") {
			return ErrInvalidEvent
		}
		if !validOdds(in.HomeOdds) || !validOdds(in.AwayOdds) {
			return ErrInvalidOdds
		}

		start := in.StartTime.UTC()
		id := EventID(home, away, start)
		if _, exists := tx.st.Events[id]; exists {
			return ErrDuplicateEvent
		}

		channel := in.Channel
		if channel == "" {
			channel = tx.st.Settings.AnnounceChannel
		}
		e := &Event{
			ID:            id,
			Home:          home,
			Away:          away,
			HomeOdds:      in.HomeOdds,
			AwayOdds:      in.AwayOdds,
			StartTime:     start,
			SourceChannel: channel,
			CreatedAt:     tx.now,
		}
		if in.LockTime != nil {
			lt := in.LockTime.UTC()
			e.LockTime = &lt
		}
		tx.st.Events[id] = e
		tx.st.Wagers[id] = nil
		tx.dirty = true

		tx.notify(events.TypeEventCreated, id, channel, events.EventCreated{
			EventID:   id,
			Home:      home,
			Away:      away,
			HomeOdds:  e.HomeOdds,
			AwayOdds:  e.AwayOdds,
			StartTime: start,
			LockTime:  e.EffectiveLockTime(),
		})
		out = *e.clone()
		return nil
	})
	if err == nil {
		l.log.Info("event created", zap.String("event_id", out.ID))
		if l.hooks.OnEventCreated != nil {
			l.hooks.OnEventCreated()
		}
	}
	return out, err
}

// Tick trava todo jogo aberto cujo horário de trava já passou
// Idempotente: um jogo travado não é retornado de novo
func (l *Ledger) Tick(ctx context.Context, now time.Time) ([]Event, error) {
	var locked []Event
	err := l.mutate(ctx, "tick", func(tx *txn) error {
		for _, e := range tx.st.Events {
			if e.Locked || e.Result != nil {
				continue
			}
			if now.Before(e.EffectiveLockTime()) {
				continue
			}
			e.Locked = true
			tx.dirty = true
			locked = append(locked, *e.clone())
		}
		sort.Slice(locked, func(i, j int) bool { return locked[i].ID < locked[j].ID })
		for _, e := range locked {
			tx.notify(events.TypeEventLocked, e.ID, e.SourceChannel, events.EventLocked{
				EventID: e.ID,
				Home:    e.Home,
				Away:    e.Away,
				At:      now,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, e := range locked {
		l.log.Info("betting closed", zap.String("event_id", e.ID))
		if l.hooks.OnEventLocked != nil {
			l.hooks.OnEventLocked()
		}
	}
	return locked, nil
}

// Event devolve um jogo pelo id
func (l *Ledger) Event(id string) (Event, error) {
	var (
		out Event
		ok  bool
	)
	l.view(func(st *Snapshot) {
		var e *Event
		if e, ok = st.Events[id]; ok {
			out = *e.clone()
		}
	})
	if !ok {
		return Event{}, ErrEventNotFound
	}
	return out, nil
}

// Events lista jogos por horário; sem includeResolved só os pendentes
func (l *Ledger) Events(includeResolved bool) []Event {
	var out []Event
	l.view(func(st *Snapshot) {
		out = sortedEvents(st.Events, func(e *Event) bool {
			return includeResolved || e.Result == nil
		})
	})
	return out
}

// Wagers devolve as apostas do jogo na ordem de inserção
func (l *Ledger) Wagers(eventID string) ([]Wager, error) {
	var (
		out []Wager
		ok  bool
	)
	l.view(func(st *Snapshot) {
		if _, ok = st.Events[eventID]; !ok {
			return
		}
		for _, w := range st.Wagers[eventID] {
			out = append(out, *w)
		}
	})
	if !ok {
		return nil, ErrEventNotFound
	}
	return out, nil
}

// ActiveWager junta a aposta com o jogo ainda não liquidado
type ActiveWager struct {
	Wager Wager
	Event Event
}

// ActiveWagers lista as apostas do usuário em jogos sem resultado
func (l *Ledger) ActiveWagers(userID string) []ActiveWager {
	var out []ActiveWager
	l.view(func(st *Snapshot) {
		for _, e := range sortedEvents(st.Events, func(e *Event) bool { return e.Result == nil }) {
			for _, w := range st.Wagers[e.ID] {
				if w.UserID == userID {
					out = append(out, ActiveWager{Wager: *w, Event: e})
					break
				}
			}
		}
	})
	return out
}
