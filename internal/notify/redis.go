package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/sports-wager-ledger/pkg/contracts/events"
)

// DefaultChannel é o canal Pub/Sub padrão das notificações
const DefaultChannel = "ledger_notifications"

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisBroadcaster publica envelopes no Pub/Sub; cada instância da API
// assina o canal e repassa para os seus clientes WebSocket
type RedisBroadcaster struct {
	r       publisher
	channel string
}

func NewRedisBroadcaster(r publisher, channel string) *RedisBroadcaster {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) Name() string { return "redis" }

func (b *RedisBroadcaster) Send(ctx context.Context, env events.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return b.r.Publish(ctx, b.channel, payload).Err()
}

// StartRedisSubscriber escuta o canal e entrega cada envelope ao hub
// Encerra quando ctx é cancelado
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub Broadcaster, log *zap.Logger) {
	if channel == "" {
		channel = DefaultChannel
	}
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				env, err := decodeEnvelope(msg.Payload)
				if err != nil {
					log.Warn("redis subscriber decode", zap.Error(err))
					continue
				}
				hub.Broadcast(env)
			}
		}
	}()
}

func decodeEnvelope(payload string) (events.Envelope, error) {
	var env events.Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return events.Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Type == "" {
		return events.Envelope{}, fmt.Errorf("envelope without type")
	}
	return env, nil
}
