// Package oddsmath converte odds americanas em pagamento e em outros formatos.
package oddsmath

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrZeroOdds indica odd americana indefinida (0)
var ErrZeroOdds = errors.New("invalid American odds: cannot be 0")

var hundred = decimal.NewFromInt(100)

// Payout devolve o retorno total (stake incluído) de uma aposta vencedora
// +150 com stake 100 → 250; -110 com stake 100 → 190.909...
func Payout(stake int64, american float64) (decimal.Decimal, error) {
	if american == 0 || math.IsNaN(american) || math.IsInf(american, 0) {
		return decimal.Zero, ErrZeroOdds
	}

	s := decimal.NewFromInt(stake)
	odds := decimal.NewFromFloat(american)

	if american > 0 {
		return s.Mul(decimal.NewFromInt(1).Add(odds.Div(hundred))), nil
	}
	return s.Mul(decimal.NewFromInt(1).Add(hundred.Div(odds.Abs()))), nil
}

// AmericanToDecimal converte odds americanas para decimais
// +150 → 2.50 ; -150 → 1.67
func AmericanToDecimal(american float64) (float64, error) {
	if american == 0 {
		return 0, ErrZeroOdds
	}
	if american > 0 {
		return american/100.0 + 1.0, nil
	}
	return 100.0/math.Abs(american) + 1.0, nil
}

// DecimalToAmerican converte odds decimais (fornecedor) para americanas
// 2.50 → +150 ; 1.67 → -149 (arredondado)
func DecimalToAmerican(dec float64) (float64, error) {
	if dec <= 1.0 {
		return 0, fmt.Errorf("invalid decimal odds %.4f: must be > 1.0", dec)
	}
	if dec >= 2.0 {
		return math.Round((dec - 1.0) * 100.0), nil
	}
	return math.Round(-100.0 / (dec - 1.0)), nil
}

// ImpliedProbability devolve a probabilidade implícita de uma odd americana
func ImpliedProbability(american float64) (float64, error) {
	dec, err := AmericanToDecimal(american)
	if err != nil {
		return 0, err
	}
	return 1.0 / dec, nil
}
