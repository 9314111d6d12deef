package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/sports-wager-ledger/pkg/contracts/events"
	"github.com/radieske/sports-wager-ledger/pkg/oddsmath"
)

// PlaceWager valida e registra a aposta; a primeira verificação que falha vence
// Modificadores do inventário são consumidos aqui, não na liquidação
func (l *Ledger) PlaceWager(ctx context.Context, eventID, userID, team string, stake int64) (Wager, Account, error) {
	var (
		out  Wager
		acct Account
	)
	err := l.mutate(ctx, "place_wager", func(tx *txn) error {
		if err := validUser(userID); err != nil {
			return err
		}
		e, ok := tx.st.Events[eventID]
		if !ok {
			return ErrEventNotFound
		}
		if e.Locked || e.Result != nil {
			return ErrBettingClosed
		}
		side, ok := ParseTeam(team)
		if !ok {
			return ErrInvalidSelection
		}
		if stake < MinimumStake {
			return ErrStakeTooSmall
		}
		if stake > tx.account(userID).Balance {
			return ErrInsufficientFunds
		}
		for _, w := range tx.st.Wagers[eventID] {
			if w.UserID == userID {
				return ErrDuplicateWager
			}
		}

		odds := e.OddsFor(side)
		payout, err := oddsmath.Payout(stake, odds)
		if err != nil {
			return fmt.Errorf("event %s has invalid odds: %w", eventID, err)
		}

		a := tx.adjust(userID, -stake)
		a.TotalWagered += stake

		var mods Modifiers
		if a.Inventory[ItemMultiplier] > 0 {
			payout = payout.Mul(decimalTwo)
			tx.consume(a, ItemMultiplier)
			mods.Multiplier = true
		}
		if a.Inventory[ItemInsurance] > 0 {
			tx.consume(a, ItemInsurance)
			mods.Insurance = true
		}

		w := &Wager{
			EventID:         eventID,
			UserID:          userID,
			Team:            side,
			Stake:           stake,
			Odds:            odds,
			PotentialPayout: payout,
			Modifiers:       mods,
			PlacedAt:        tx.now,
		}
		tx.st.Wagers[eventID] = append(tx.st.Wagers[eventID], w)

		tx.notify(events.TypeWagerPlaced, eventID, e.SourceChannel, events.WagerPlaced{
			EventID:         eventID,
			UserID:          userID,
			Team:            string(side),
			Stake:           stake,
			Odds:            odds,
			PotentialPayout: payout.StringFixed(2),
			Multiplier:      mods.Multiplier,
			Insurance:       mods.Insurance,
			NewBalance:      a.Balance,
		})
		out = *w
		acct = *a.clone()
		return nil
	})
	if err != nil {
		return Wager{}, Account{}, err
	}

	l.log.Debug("wager placed",
		zap.String("event_id", eventID),
		zap.String("user_id", userID),
		zap.Int64("stake", stake),
	)
	if l.hooks.OnWagerPlaced != nil {
		l.hooks.OnWagerPlaced(stake)
	}
	return out, acct, nil
}
