package fixtures

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	sharedkafka "github.com/radieske/sports-wager-ledger/internal/shared/kafka"
	"github.com/radieske/sports-wager-ledger/pkg/contracts/events"
	"github.com/radieske/sports-wager-ledger/pkg/oddsmath"
)

// StreamConsumer consome odds decimais do fornecedor e abre os jogos novos
// Callbacks de métricas são opcionais
type StreamConsumer struct {
	Log      *zap.Logger
	Reader   sharedkafka.MessageReader
	Ingester *Ingester

	OnConsumed func()
	OnError    func(phase string)

	// Pausa após erro de leitura; zero usa 500ms
	ReadBackoff time.Duration
}

func (c *StreamConsumer) backoff() time.Duration {
	if c.ReadBackoff > 0 {
		return c.ReadBackoff
	}
	return 500 * time.Millisecond
}

func (c *StreamConsumer) fail(phase string) {
	if c.OnError != nil {
		c.OnError(phase)
	}
}

// Run lê até ctx ser cancelado
func (c *StreamConsumer) Run(ctx context.Context) error {
	for {
		_, value, err := sharedkafka.ReadNext(ctx, c.Reader)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.Log.Warn("kafka read failed", zap.Error(err))
			c.fail("read")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff()):
			}
			continue
		}
		if c.OnConsumed != nil {
			c.OnConsumed()
		}

		var ev events.OddsUpdate
		if err := json.Unmarshal(value, &ev); err != nil {
			c.Log.Warn("invalid odds message", zap.Error(err))
			c.fail("decode")
			continue
		}
		f, ok, err := FromOddsUpdate(ev)
		if err != nil {
			c.Log.Warn("odds conversion failed", zap.String("source_id", ev.EventID), zap.Error(err))
			c.fail("convert")
			continue
		}
		if !ok {
			continue
		}
		if _, err := c.Ingester.Ingest(ctx, []Fixture{f}); err != nil {
			c.Log.Error("fixture ingest failed", zap.String("source_id", ev.EventID), zap.Error(err))
			c.fail("ingest")
		}
	}
}

// FromOddsUpdate converte a mensagem do fornecedor; só mercados moneyline viram jogo
func FromOddsUpdate(ev events.OddsUpdate) (Fixture, bool, error) {
	switch ev.Market {
	case "h2h", "1x2", "moneyline":
	default:
		return Fixture{}, false, nil
	}
	if ev.StartTime.IsZero() {
		return Fixture{}, false, nil
	}
	home, err := oddsmath.DecimalToAmerican(ev.Odds.Home)
	if err != nil {
		return Fixture{}, false, err
	}
	away, err := oddsmath.DecimalToAmerican(ev.Odds.Away)
	if err != nil {
		return Fixture{}, false, err
	}
	return Fixture{
		SourceID:  ev.EventID,
		Home:      ev.HomeTeam,
		Away:      ev.AwayTeam,
		HomeOdds:  home,
		AwayOdds:  away,
		StartTime: ev.StartTime.UTC(),
	}, true, nil
}
