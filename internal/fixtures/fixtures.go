// Package fixtures alimenta o ledger com jogos vindos de fontes externas
// (feed HTTP de odds ou stream Kafka de odds do fornecedor).
package fixtures

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-wager-ledger/internal/ledger"
)

// Fixture é um jogo candidato com odds americanas
type Fixture struct {
	SourceID  string
	Home      string
	Away      string
	HomeOdds  float64
	AwayOdds  float64
	StartTime time.Time
}

func (f Fixture) input() ledger.EventInput {
	return ledger.EventInput{
		Home:      f.Home,
		Away:      f.Away,
		HomeOdds:  f.HomeOdds,
		AwayOdds:  f.AwayOdds,
		StartTime: f.StartTime,
	}
}

// Source busca a lista atual de jogos
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Fixture, error)
}

// Creator é o pedaço do ledger usado pela ingestão
type Creator interface {
	CreateEvent(ctx context.Context, in ledger.EventInput) (ledger.Event, error)
	Settings() ledger.Settings
}

// Result resume um ciclo de ingestão
type Result struct {
	Created    int
	Duplicates int
	Rejected   int
	Skipped    bool
}

// Ingester transforma fixtures em jogos no ledger
// Jogo repetido é ignorado em silêncio; jogo inválido é logado e descartado
type Ingester struct {
	Log     *zap.Logger
	Ledger  Creator
	OnEvent func(result string) // created | duplicate | rejected | failed
}

func (i *Ingester) hook(result string) {
	if i.OnEvent != nil {
		i.OnEvent(result)
	}
}

// Ingest cria os jogos; só erro de persistência interrompe o lote
func (i *Ingester) Ingest(ctx context.Context, fixtures []Fixture) (Result, error) {
	var res Result
	if !i.Ledger.Settings().AutoFetchEnabled {
		res.Skipped = true
		return res, nil
	}
	for _, f := range fixtures {
		_, err := i.Ledger.CreateEvent(ctx, f.input())
		switch {
		case err == nil:
			res.Created++
			i.hook("created")
		case errors.Is(err, ledger.ErrDuplicateEvent):
			res.Duplicates++
			i.hook("duplicate")
		case ledger.KindOf(err) == ledger.KindInvalidInput:
			res.Rejected++
			i.hook("rejected")
			i.Log.Warn("fixture rejected",
				zap.String("source_id", f.SourceID),
				zap.String("home", f.Home),
				zap.String("away", f.Away),
				zap.Error(err),
			)
		default:
			i.hook("failed")
			return res, err
		}
	}
	return res, nil
}

// FetchJob busca numa Source a cada ciclo; falha após os retries pula o ciclo
type FetchJob struct {
	Log      *zap.Logger
	Source   Source
	Ingester *Ingester
	Retry    *RetryPolicy
}

// RunOnce executa um ciclo de busca e ingestão
func (j *FetchJob) RunOnce(ctx context.Context) (Result, error) {
	if !j.Ingester.Ledger.Settings().AutoFetchEnabled {
		return Result{Skipped: true}, nil
	}

	var list []Fixture
	err := j.Retry.Execute(ctx, func() error {
		var err error
		list, err = j.Source.Fetch(ctx)
		return err
	})
	if err != nil {
		j.Log.Warn("fixture fetch failed, skipping cycle", zap.String("source", j.Source.Name()), zap.Error(err))
		j.Ingester.hook("failed")
		return Result{Skipped: true}, err
	}

	res, err := j.Ingester.Ingest(ctx, list)
	j.Log.Info("fixtures ingested",
		zap.String("source", j.Source.Name()),
		zap.Int("fetched", len(list)),
		zap.Int("created", res.Created),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("rejected", res.Rejected),
	)
	return res, err
}
