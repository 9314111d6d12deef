package ledger

import (
	"context"
	"sort"
	"strings"
)

// account é o getOrCreate dentro de uma operação
func (tx *txn) account(userID string) *Account {
	a, ok := tx.st.Accounts[userID]
	if !ok {
		a = newAccount(userID)
		tx.st.Accounts[userID] = a
		tx.dirty = true
	}
	return a
}

// adjust soma delta ao saldo sem piso; quem debita confere fundos antes
func (tx *txn) adjust(userID string, delta int64) *Account {
	a := tx.account(userID)
	a.Balance += delta
	tx.dirty = true
	return a
}

// consume decrementa uma unidade do item; em zero não faz nada
func (tx *txn) consume(a *Account, item Item) {
	if a.Inventory[item] <= 0 {
		return
	}
	a.Inventory[item]--
	tx.dirty = true
}

func validUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidUser
	}
	return nil
}

// Account devolve a conta do usuário, criando com saldo inicial se não existir
func (l *Ledger) Account(ctx context.Context, userID string) (Account, error) {
	var out Account
	err := l.mutate(ctx, "get_balance", func(tx *txn) error {
		if err := validUser(userID); err != nil {
			return err
		}
		out = *tx.account(userID).clone()
		return nil
	})
	return out, err
}

// AdjustBalance aplica um delta administrativo (pode ser negativo)
func (l *Ledger) AdjustBalance(ctx context.Context, userID string, delta int64) (Account, error) {
	var out Account
	err := l.mutate(ctx, "adjust_balance", func(tx *txn) error {
		if err := validUser(userID); err != nil {
			return err
		}
		out = *tx.adjust(userID, delta).clone()
		return nil
	})
	return out, err
}

// SetInventory define a quantidade de um item (ação administrativa)
func (l *Ledger) SetInventory(ctx context.Context, userID string, item Item, count int64) (Account, error) {
	var out Account
	err := l.mutate(ctx, "set_inventory", func(tx *txn) error {
		if err := validUser(userID); err != nil {
			return err
		}
		if _, ok := ParseItem(string(item)); !ok {
			return ErrInvalidItem
		}
		if count < 0 {
			return ErrInvalidCount
		}
		a := tx.account(userID)
		a.Inventory[item] = count
		tx.dirty = true
		out = *a.clone()
		return nil
	})
	return out, err
}

// ClaimDaily credita o bônus diário respeitando o cooldown de 24h
func (l *Ledger) ClaimDaily(ctx context.Context, userID string) (Account, error) {
	var out Account
	err := l.mutate(ctx, "claim_daily", func(tx *txn) error {
		if err := validUser(userID); err != nil {
			return err
		}
		a := tx.account(userID)
		if a.LastDailyClaim != nil {
			if elapsed := tx.now.Sub(*a.LastDailyClaim); elapsed < DailyCooldown {
				return &CooldownError{Remaining: DailyCooldown - elapsed}
			}
		}
		now := tx.now
		a.Balance += DailyBonus
		a.LastDailyClaim = &now
		tx.dirty = true
		out = *a.clone()
		return nil
	})
	return out, err
}

// TakeLoan credita o valor e registra a dívida com 20% de juros (arredondado para cima)
func (l *Ledger) TakeLoan(ctx context.Context, userID string, amount int64) (Account, error) {
	var out Account
	err := l.mutate(ctx, "take_loan", func(tx *txn) error {
		if err := validUser(userID); err != nil {
			return err
		}
		a := tx.account(userID)
		if a.LoanAmount > 0 {
			return ErrLoanAlreadyOutstanding
		}
		if amount < LoanMin || amount > LoanMax {
			return ErrAmountOutOfRange
		}
		a.Balance += amount
		a.LoanAmount = loanOwed(amount)
		tx.dirty = true
		out = *a.clone()
		return nil
	})
	return out, err
}

// loanOwed = ceil(amount * 1.2) em aritmética inteira
func loanOwed(amount int64) int64 {
	return (amount*12 + 9) / 10
}

// RepayLoan quita a dívida inteira; sem dívida é um no-op bem-sucedido
func (l *Ledger) RepayLoan(ctx context.Context, userID string) (repaid int64, acct Account, err error) {
	err = l.mutate(ctx, "repay_loan", func(tx *txn) error {
		if err := validUser(userID); err != nil {
			return err
		}
		a := tx.account(userID)
		if a.LoanAmount == 0 {
			acct = *a.clone()
			return nil
		}
		if a.Balance < a.LoanAmount {
			return ErrInsufficientFunds
		}
		repaid = a.LoanAmount
		a.Balance -= a.LoanAmount
		a.LoanAmount = 0
		tx.dirty = true
		acct = *a.clone()
		return nil
	})
	return repaid, acct, err
}

// TransferResult traz as duas contas após a transferência
type TransferResult struct {
	From   Account
	To     Account
	Amount int64
}

// Transfer move saldo entre usuários; o destinatário é criado se preciso
func (l *Ledger) Transfer(ctx context.Context, fromUserID, toUserID string, amount int64) (TransferResult, error) {
	var out TransferResult
	err := l.mutate(ctx, "transfer", func(tx *txn) error {
		if err := validUser(fromUserID); err != nil {
			return err
		}
		if err := validUser(toUserID); err != nil {
			return err
		}
		if amount <= 0 {
			return ErrAmountOutOfRange
		}
		if fromUserID == toUserID {
			return ErrSelfTransfer
		}
		if tx.account(fromUserID).Balance < amount {
			return ErrInsufficientFunds
		}
		from := tx.adjust(fromUserID, -amount)
		to := tx.adjust(toUserID, amount)
		out = TransferResult{From: *from.clone(), To: *to.clone(), Amount: amount}
		return nil
	})
	return out, err
}

// Leaderboard devolve as contas mais ricas; empate desfeito pelo id
func (l *Ledger) Leaderboard(limit int) []Account {
	var out []Account
	l.view(func(st *Snapshot) {
		out = make([]Account, 0, len(st.Accounts))
		for _, a := range st.Accounts {
			out = append(out, *a.clone())
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Balance != out[j].Balance {
			return out[i].Balance > out[j].Balance
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
