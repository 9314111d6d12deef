package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Tipos de notificação do ledger
const (
	TypeEventCreated  = "event_created"
	TypeEventLocked   = "event_locked"
	TypeEventResolved = "event_resolved"
	TypeWagerPlaced   = "wager_placed"
)

// Envelope é o formato comum publicado no Kafka, Redis Pub/Sub e WebSocket
type Envelope struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	EventID string          `json:"event_id"`
	Channel string          `json:"channel,omitempty"` // canal de origem do jogo (roteamento do adaptador)
	Ts      time.Time       `json:"ts"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope serializa o payload e gera um id único para deduplicação
func NewEnvelope(typ, eventID, channel string, ts time.Time, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:      uuid.NewString(),
		Type:    typ,
		EventID: eventID,
		Channel: channel,
		Ts:      ts,
		Payload: b,
	}, nil
}

type EventCreated struct {
	EventID   string    `json:"event_id"`
	Home      string    `json:"home"`
	Away      string    `json:"away"`
	HomeOdds  float64   `json:"home_odds"`
	AwayOdds  float64   `json:"away_odds"`
	StartTime time.Time `json:"start_time"`
	LockTime  time.Time `json:"lock_time"`
}

type EventLocked struct {
	EventID string    `json:"event_id"`
	Home    string    `json:"home"`
	Away    string    `json:"away"`
	At      time.Time `json:"at"`
}

// Resultado individual de cada aposta na liquidação
type SettledWager struct {
	UserID  string `json:"user_id"`
	Team    string `json:"team"`
	Stake   int64  `json:"stake"`
	Outcome string `json:"outcome"` // won | lost_with_insurance | lost_with_penalty | lost
	Amount  int64  `json:"amount"`
}

type EventResolved struct {
	EventID string         `json:"event_id"`
	Home    string         `json:"home"`
	Away    string         `json:"away"`
	Winner  string         `json:"winner"`
	Wagers  []SettledWager `json:"wagers"`
}
