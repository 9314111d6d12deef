// Package notify entrega as notificações do ledger aos transportes
// (Kafka, Redis Pub/Sub e o hub WebSocket local).
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/radieske/sports-wager-ledger/pkg/contracts/events"
)

// Sink é um destino de notificações
type Sink interface {
	Name() string
	Send(ctx context.Context, env events.Envelope) error
}

// Hook é chamado a cada envio, com o erro (nil em sucesso)
type Hook func(sink string, err error)

// Fanout implementa ledger.Notifier repassando para todos os sinks
// Falha de um sink é logada e não afeta os demais nem o ledger
type Fanout struct {
	sinks  []Sink
	log    *zap.Logger
	onSend Hook
}

func NewFanout(log *zap.Logger, onSend Hook, sinks ...Sink) *Fanout {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fanout{sinks: sinks, log: log, onSend: onSend}
}

func (f *Fanout) Notify(ctx context.Context, env events.Envelope) {
	for _, s := range f.sinks {
		err := s.Send(ctx, env)
		if err != nil {
			f.log.Warn("notification publish failed",
				zap.String("sink", s.Name()),
				zap.String("type", env.Type),
				zap.String("event_id", env.EventID),
				zap.Error(err),
			)
		}
		if f.onSend != nil {
			f.onSend(s.Name(), err)
		}
	}
}

// Broadcaster é o hub que entrega envelopes aos clientes conectados
type Broadcaster interface {
	Broadcast(env events.Envelope)
}

// Local entrega direto no hub do processo (usado quando o Redis está desligado)
type Local struct {
	hub Broadcaster
}

func NewLocal(hub Broadcaster) *Local { return &Local{hub: hub} }

func (l *Local) Name() string { return "local" }

func (l *Local) Send(_ context.Context, env events.Envelope) error {
	l.hub.Broadcast(env)
	return nil
}
