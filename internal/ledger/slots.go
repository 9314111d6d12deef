package ledger

import "context"

// Symbol de um rolo do caça-níquel
type Symbol string

const (
	SymbolCherry  Symbol = "cherry"
	SymbolLemon   Symbol = "lemon"
	SymbolBell    Symbol = "bell"
	SymbolSeven   Symbol = "seven"
	SymbolDiamond Symbol = "diamond"
)

type reelStop struct {
	symbol Symbol
	weight int
	triple int64 // multiplicador para três iguais
}

// reel é a mesma para os três rolos; pesos somam 15
var reel = []reelStop{
	{SymbolCherry, 5, 3},
	{SymbolLemon, 4, 5},
	{SymbolBell, 3, 10},
	{SymbolSeven, 2, 20},
	{SymbolDiamond, 1, 50},
}

func reelWeight() int {
	total := 0
	for _, s := range reel {
		total += s.weight
	}
	return total
}

// SpinResult é o resultado de um giro
type SpinResult struct {
	Reels      [3]Symbol `json:"reels"`
	Stake      int64     `json:"stake"`
	Payout     int64     `json:"payout"`
	Net        int64     `json:"net"`
	NewBalance int64     `json:"new_balance"`
}

func (l *Ledger) spinReel() reelStop {
	n := l.pick(reelWeight())
	for _, s := range reel {
		if n < s.weight {
			return s
		}
		n -= s.weight
	}
	return reel[len(reel)-1]
}

// slotPayout: trinca paga o multiplicador do símbolo, par paga 1.5x (piso)
func slotPayout(stake int64, stops [3]reelStop) int64 {
	a, b, c := stops[0].symbol, stops[1].symbol, stops[2].symbol
	switch {
	case a == b && b == c:
		return stake * stops[0].triple
	case a == b || b == c || a == c:
		return stake * 3 / 2
	default:
		return 0
	}
}

// SpinSlots debita a aposta, gira os rolos e credita o prêmio
// Só usa o débito/crédito das contas; não afeta estatísticas de apostas
func (l *Ledger) SpinSlots(ctx context.Context, userID string, stake int64) (SpinResult, error) {
	var out SpinResult
	err := l.mutate(ctx, "spin_slots", func(tx *txn) error {
		if err := validUser(userID); err != nil {
			return err
		}
		if !tx.st.Settings.SlotsEnabled {
			return ErrFeatureDisabled
		}
		if stake < MinimumStake {
			return ErrStakeTooSmall
		}
		if stake > tx.account(userID).Balance {
			return ErrInsufficientFunds
		}

		var stops [3]reelStop
		for i := range stops {
			stops[i] = l.spinReel()
			out.Reels[i] = stops[i].symbol
		}
		out.Stake = stake
		out.Payout = slotPayout(stake, stops)
		out.Net = out.Payout - stake

		a := tx.adjust(userID, out.Net)
		out.NewBalance = a.Balance
		return nil
	})
	if err == nil && l.hooks.OnSlotSpin != nil {
		l.hooks.OnSlotSpin(out.Payout > 0)
	}
	return out, err
}
