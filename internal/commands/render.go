package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/radieske/sports-wager-ledger/internal/ledger"
)

var messages = map[*ledger.Error]string{
	ledger.ErrEventNotFound:          "Game not found!",
	ledger.ErrBettingClosed:          "Betting is closed for this game!",
	ledger.ErrInvalidSelection:       "Choose 'home' or 'away'!",
	ledger.ErrStakeTooSmall:          fmt.Sprintf("Minimum bet is %s!", money(ledger.MinimumStake)),
	ledger.ErrInsufficientFunds:      "You don't have enough cash for that!",
	ledger.ErrDuplicateWager:         "You already have a bet on this game!",
	ledger.ErrAlreadyResolved:        "This game is already finished!",
	ledger.ErrDuplicateEvent:         "That game already exists!",
	ledger.ErrInvalidOdds:            "Odds must be non-zero American odds like -110 or +150!",
	ledger.ErrInvalidEvent:           "Home and away teams must be two different names!",
	ledger.ErrInvalidItem:            "Unknown item! Try multiplier or insurance.",
	ledger.ErrInvalidUser:            "A user is required!",
	ledger.ErrInvalidCount:           "Count can't be negative!",
	ledger.ErrLoanAlreadyOutstanding: "You already have a loan, repay it first!",
	ledger.ErrAmountOutOfRange:       "Amount out of range!",
	ledger.ErrSelfTransfer:           "You can't send cash to yourself!",
	ledger.ErrFeatureDisabled:        "That feature is turned off right now.",
}

// Render converte um erro em texto curto para o usuário
func Render(err error) string {
	if err == nil {
		return ""
	}

	var cd *ledger.CooldownError
	if errors.As(err, &cd) {
		return "Daily bonus already claimed! Come back in " + cd.Remaining.Round(time.Minute).String() + "."
	}
	var ue *UsageError
	if errors.As(err, &ue) {
		if ue.Reason != "" {
			return fmt.Sprintf("%s. Usage: %s", ue.Reason, ue.Usage)
		}
		return "Usage: " + ue.Usage
	}
	var le *ledger.Error
	if errors.As(err, &le) {
		if msg, ok := messages[le]; ok {
			return msg
		}
		return le.Message
	}

	switch {
	case errors.Is(err, ErrUnknownCommand):
		return "Unknown command. Try !help"
	case errors.Is(err, ErrForbidden):
		return "You don't have permission to do that."
	case errors.Is(err, ErrNotCommand):
		return "Commands start with " + Prefix
	default:
		return "Something went wrong, try again later."
	}
}
