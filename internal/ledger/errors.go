package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Kind agrupa os erros esperados em classes que o adaptador sabe renderizar
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidInput
	KindStateConflict
	KindInsufficientFunds
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindStateConflict:
		return "state_conflict"
	case KindInsufficientFunds:
		return "insufficient_funds"
	default:
		return "internal"
	}
}

// Error é um erro de negócio esperado; o estado do ledger não muda quando ele ocorre
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrEventNotFound = newError(KindNotFound, "event_not_found", "event not found")

	ErrInvalidSelection = newError(KindInvalidInput, "invalid_selection", "selection must be home or away")
	ErrInvalidItem      = newError(KindInvalidInput, "invalid_item", "unknown item")
	ErrInvalidOdds      = newError(KindInvalidInput, "invalid_odds", "odds must be non-zero")
	ErrInvalidEvent     = newError(KindInvalidInput, "invalid_event", "home and away must be distinct, non-empty names without underscores")
	ErrInvalidUser      = newError(KindInvalidInput, "invalid_user", "user id is required")
	ErrInvalidCount     = newError(KindInvalidInput, "invalid_count", "count must be zero or positive")
	ErrStakeTooSmall    = newError(KindInvalidInput, "stake_too_small", "stake below minimum")
	ErrAmountOutOfRange = newError(KindInvalidInput, "amount_out_of_range", "amount out of range")
	ErrSelfTransfer     = newError(KindInvalidInput, "self_transfer", "cannot transfer to yourself")

	ErrBettingClosed          = newError(KindStateConflict, "betting_closed", "betting is closed for this event")
	ErrAlreadyResolved        = newError(KindStateConflict, "already_resolved", "event already resolved")
	ErrDuplicateWager         = newError(KindStateConflict, "duplicate_wager", "wager already placed on this event")
	ErrDuplicateEvent         = newError(KindStateConflict, "duplicate_event", "event already exists")
	ErrLoanAlreadyOutstanding = newError(KindStateConflict, "loan_outstanding", "loan already outstanding")
	ErrCooldownActive         = newError(KindStateConflict, "cooldown_active", "daily bonus already claimed")
	ErrFeatureDisabled        = newError(KindStateConflict, "feature_disabled", "feature is disabled")

	ErrInsufficientFunds = newError(KindInsufficientFunds, "insufficient_funds", "insufficient funds")
)

// ErrPersist marca falha de escrita durável; a operação falha fechada
var ErrPersist = errors.New("ledger persist failed")

// CooldownError carrega o tempo restante até o próximo bônus diário
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: next claim in %s", ErrCooldownActive.Message, e.Remaining.Round(time.Minute))
}

func (e *CooldownError) Unwrap() error { return ErrCooldownActive }

// KindOf classifica qualquer erro devolvido pelo ledger
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindInternal
}

// CodeOf devolve o código estável do erro, ou "internal"
func CodeOf(err error) string {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return "internal"
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
