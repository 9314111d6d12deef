package ledger

import "context"

// Prices é a tabela da loja de power-ups
var Prices = map[Item]int64{
	ItemMultiplier: 200,
	ItemInsurance:  100,
}

// BuyItem debita o preço e adiciona uma unidade ao inventário
func (l *Ledger) BuyItem(ctx context.Context, userID string, item string) (Account, error) {
	var out Account
	err := l.mutate(ctx, "buy_item", func(tx *txn) error {
		if err := validUser(userID); err != nil {
			return err
		}
		it, ok := ParseItem(item)
		if !ok {
			return ErrInvalidItem
		}
		price := Prices[it]
		if tx.account(userID).Balance < price {
			return ErrInsufficientFunds
		}
		a := tx.adjust(userID, -price)
		a.Inventory[it]++
		out = *a.clone()
		return nil
	})
	return out, err
}
