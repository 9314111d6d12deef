package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/sports-wager-ledger/pkg/contracts/events"
)

var decimalTwo = decimal.NewFromInt(2)

// OutcomeKind é o desfecho de uma aposta na liquidação
type OutcomeKind string

const (
	OutcomeWon               OutcomeKind = "won"
	OutcomeLostWithInsurance OutcomeKind = "lost_with_insurance"
	OutcomeLostWithPenalty   OutcomeKind = "lost_with_penalty"
	OutcomeLost              OutcomeKind = "lost"
)

// Outcome: Amount é o crédito (won/insurance) ou a multa debitada (penalty)
type Outcome struct {
	UserID string      `json:"user_id"`
	Team   Team        `json:"team"`
	Stake  int64       `json:"stake"`
	Kind   OutcomeKind `json:"kind"`
	Amount int64       `json:"amount"`
}

// Resolution é o jogo liquidado com o resultado de cada aposta
type Resolution struct {
	Event    Event     `json:"event"`
	Outcomes []Outcome `json:"outcomes"`
}

// ResolveEvent grava o vencedor e liquida todas as apostas do jogo numa única gravação
func (l *Ledger) ResolveEvent(ctx context.Context, eventID, winner string) (Resolution, error) {
	var out Resolution
	err := l.mutate(ctx, "resolve_event", func(tx *txn) error {
		e, ok := tx.st.Events[eventID]
		if !ok {
			return ErrEventNotFound
		}
		side, ok := ParseTeam(winner)
		if !ok {
			return ErrInvalidSelection
		}
		if e.Result != nil {
			return ErrAlreadyResolved
		}

		e.Locked = true
		e.Result = &side
		tx.dirty = true

		wagers := tx.st.Wagers[eventID]
		outcomes := make([]Outcome, 0, len(wagers))
		settled := make([]events.SettledWager, 0, len(wagers))
		for _, w := range wagers {
			o := settle(tx, w, side)
			outcomes = append(outcomes, o)
			settled = append(settled, events.SettledWager{
				UserID:  o.UserID,
				Team:    string(o.Team),
				Stake:   o.Stake,
				Outcome: string(o.Kind),
				Amount:  o.Amount,
			})
		}

		tx.notify(events.TypeEventResolved, eventID, e.SourceChannel, events.EventResolved{
			EventID: eventID,
			Home:    e.Home,
			Away:    e.Away,
			Winner:  string(side),
			Wagers:  settled,
		})
		out = Resolution{Event: *e.clone(), Outcomes: outcomes}
		return nil
	})
	if err != nil {
		return Resolution{}, err
	}

	l.log.Info("event resolved",
		zap.String("event_id", eventID),
		zap.String("winner", winner),
		zap.Int("wagers", len(out.Outcomes)),
	)
	if l.hooks.OnSettled != nil {
		for _, o := range out.Outcomes {
			l.hooks.OnSettled(o.Kind)
		}
	}
	return out, nil
}

// settle aplica o desfecho de uma aposta; seguro tem precedência sobre a multa do multiplicador
func settle(tx *txn, w *Wager, winner Team) Outcome {
	o := Outcome{UserID: w.UserID, Team: w.Team, Stake: w.Stake}
	a := tx.account(w.UserID)

	switch {
	case w.Team == winner:
		o.Kind = OutcomeWon
		o.Amount = w.PotentialPayout.Floor().IntPart()
		tx.adjust(w.UserID, o.Amount)
		a.Wins++
	case w.Modifiers.Insurance:
		o.Kind = OutcomeLostWithInsurance
		o.Amount = w.Stake / 2
		tx.adjust(w.UserID, o.Amount)
		a.Losses++
	case w.Modifiers.Multiplier:
		o.Kind = OutcomeLostWithPenalty
		o.Amount = min(w.Stake, max(a.Balance, 0))
		tx.adjust(w.UserID, -o.Amount)
		a.Losses++
	default:
		o.Kind = OutcomeLost
		a.Losses++
	}
	tx.dirty = true
	return o
}
