package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-wager-ledger/internal/fixtures"
	"github.com/radieske/sports-wager-ledger/internal/ledger"
)

// Ticker é o pedaço do ledger que a trava automática usa
type Ticker interface {
	Tick(ctx context.Context, now time.Time) ([]ledger.Event, error)
}

// NewLockJob trava os jogos cujo horário de trava passou
// Falha de persistência só é logada; o próximo tick tenta de novo
func NewLockJob(log *zap.Logger, t Ticker, interval time.Duration, now func() time.Time) Job {
	if now == nil {
		now = time.Now
	}
	return &Every{
		JobName:  "lock",
		Interval: interval,
		Run: func(ctx context.Context) {
			locked, err := t.Tick(ctx, now().UTC())
			if err != nil {
				log.Error("lock tick failed", zap.Error(err))
				return
			}
			if len(locked) > 0 {
				log.Debug("lock tick", zap.Int("locked", len(locked)))
			}
		},
	}
}

// NewFetchJob busca fixtures a cada intervalo
func NewFetchJob(fj *fixtures.FetchJob, interval time.Duration) Job {
	return &Every{
		JobName:  "fixtures:" + fj.Source.Name(),
		Interval: interval,
		Run: func(ctx context.Context) {
			// erro já logado dentro do FetchJob
			_, _ = fj.RunOnce(ctx)
		},
	}
}

// streamJob adapta um consumidor bloqueante ao Manager
type streamJob struct {
	name string
	log  *zap.Logger
	run  func(ctx context.Context) error
}

// NewStreamJob roda um consumidor contínuo (ex.: stream de odds) até ctx cair
func NewStreamJob(log *zap.Logger, name string, run func(ctx context.Context) error) Job {
	return &streamJob{name: name, log: log, run: run}
}

func (s *streamJob) Name() string { return s.name }

func (s *streamJob) Start(ctx context.Context) {
	if err := s.run(ctx); err != nil && ctx.Err() == nil {
		s.log.Error("stream job exited", zap.String("job", s.name), zap.Error(err))
	}
}
