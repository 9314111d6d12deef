package notify

import (
	"context"
	"encoding/json"
	"fmt"

	sharedkafka "github.com/radieske/sports-wager-ledger/internal/shared/kafka"
	"github.com/radieske/sports-wager-ledger/pkg/contracts/events"
)

// KafkaPublisher publica o envelope no tópico de eventos do ledger
// A chave é o EventID: notificações de um jogo caem na mesma partição
type KafkaPublisher struct {
	Writer sharedkafka.MessageWriter
	Topic  string
}

func NewKafkaPublisher(w sharedkafka.MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

func (p *KafkaPublisher) Name() string { return "kafka" }

func (p *KafkaPublisher) Send(ctx context.Context, env events.Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return sharedkafka.WriteJSON(ctx, p.Writer, env.EventID, b)
}
