// Package simulator gera um feed de odds de fornecedor para desenvolvimento local.
// Publica OddsUpdate no Kafka e serve o mesmo catálogo no formato da The Odds API.
package simulator

import (
	"context"
	"encoding/json"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	sharedkafka "github.com/radieske/sports-wager-ledger/internal/shared/kafka"
	"github.com/radieske/sports-wager-ledger/pkg/contracts/events"
)

// Match é uma partida do catálogo; Offset é somado à âncora do feed
type Match struct {
	SourceID string
	Home     string
	Away     string
	Offset   time.Duration
}

// Catálogo fixo de partidas simuladas
var DefaultCatalog = []Match{
	{SourceID: "MATCH_001", Home: "Flamengo", Away: "Palmeiras", Offset: 2 * time.Hour},
	{SourceID: "MATCH_002", Home: "Grêmio", Away: "Internacional", Offset: 4 * time.Hour},
	{SourceID: "MATCH_003", Home: "Corinthians", Away: "Santos", Offset: 26 * time.Hour},
	{SourceID: "MATCH_004", Home: "São Paulo", Away: "Vasco", Offset: 28 * time.Hour},
}

// Feed gera rodadas de odds; horários de início ficam fixos enquanto o feed vive
type Feed struct {
	mu      sync.Mutex
	catalog []Match
	anchor  time.Time
	rnd     *rand.Rand
	now     func() time.Time
	source  string
	version int
	latest  []events.OddsUpdate
}

func NewFeed(source string, catalog []Match, seed uint64, now func() time.Time) *Feed {
	if now == nil {
		now = time.Now
	}
	if seed == 0 {
		seed = uint64(now().UnixNano())
	}
	return &Feed{
		catalog: catalog,
		anchor:  now().UTC().Truncate(time.Hour),
		rnd:     rand.New(rand.NewPCG(seed, seed>>1)),
		now:     now,
		source:  source,
	}
}

// gera número aleatório entre min e max com duas casas
func (f *Feed) between(min, max float64) float64 {
	v := f.rnd.Float64()*(max-min) + min
	return math.Round(v*100) / 100
}

// Next sorteia uma nova rodada de odds decimais para todo o catálogo
func (f *Feed) Next() []events.OddsUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.version++
	out := make([]events.OddsUpdate, len(f.catalog))
	for i, m := range f.catalog {
		out[i] = events.OddsUpdate{
			EventID:   m.SourceID,
			HomeTeam:  m.Home,
			AwayTeam:  m.Away,
			Market:    "h2h",
			Odds:      events.Odds{Home: f.between(1.40, 3.50), Away: f.between(2.00, 5.00)},
			StartTime: f.anchor.Add(m.Offset),
			UpdatedAt: f.now().UTC(),
			Source:    f.source,
			Version:   f.version,
		}
	}
	f.latest = out
	return out
}

// Latest devolve a última rodada gerada (sorteia uma se ainda não houver)
func (f *Feed) Latest() []events.OddsUpdate {
	f.mu.Lock()
	latest := f.latest
	f.mu.Unlock()
	if latest == nil {
		return f.Next()
	}
	return latest
}

// Publish envia a rodada ao tópico de odds, chave = id do fornecedor
func Publish(ctx context.Context, w sharedkafka.MessageWriter, updates []events.OddsUpdate) error {
	for _, u := range updates {
		b, err := json.Marshal(u)
		if err != nil {
			return err
		}
		if err := sharedkafka.WriteJSON(ctx, w, u.EventID, b); err != nil {
			return err
		}
	}
	return nil
}
