package events

import "time"

// Evento consumido do tópico "odds_updates" (odds decimais do fornecedor)
type Odds struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw,omitempty"`
	Away float64 `json:"away"`
}

type OddsUpdate struct {
	EventID   string    `json:"event_id"` // id do fornecedor, não o id do ledger
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	Market    string    `json:"market"` // só "h2h"/"1x2" viram jogo no ledger
	Odds      Odds      `json:"odds"`
	StartTime time.Time `json:"start_time"`
	UpdatedAt time.Time `json:"updated_at"`
	Source    string    `json:"source"`
	Version   int       `json:"version"`
}
