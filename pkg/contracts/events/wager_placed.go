package events

// Evento publicado após uma aposta ser persistida no ledger
type WagerPlaced struct {
	EventID         string  `json:"event_id"`
	UserID          string  `json:"user_id"`
	Team            string  `json:"team"` // "home" | "away"
	Stake           int64   `json:"stake"`
	Odds            float64 `json:"odds"`
	PotentialPayout string  `json:"potential_payout"` // decimal serializado
	Multiplier      bool    `json:"multiplier"`
	Insurance       bool    `json:"insurance"`
	NewBalance      int64   `json:"new_balance"`
}
