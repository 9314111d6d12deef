// Package scheduler roda as tarefas periódicas do serviço: trava de apostas
// no horário do jogo e busca de fixtures
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Start(ctx context.Context)
}

type Manager struct {
	log  *zap.Logger
	jobs []Job
}

func New(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{log: log}
}

func (m *Manager) Register(job Job) {
	m.jobs = append(m.jobs, job)
}

// Start bloqueia até ctx ser cancelado e todos os jobs retornarem
func (m *Manager) Start(ctx context.Context) {
	var wg sync.WaitGroup

	for _, job := range m.jobs {
		wg.Add(1)

		go func(j Job) {
			defer wg.Done()
			m.log.Info("job started", zap.String("job", j.Name()))
			j.Start(ctx)
			m.log.Info("job stopped", zap.String("job", j.Name()))
		}(job)
	}

	<-ctx.Done()
	wg.Wait()
}

// Every executa fn já na largada e depois a cada intervalo
type Every struct {
	JobName  string
	Interval time.Duration
	Run      func(ctx context.Context)
}

func (e *Every) Name() string { return e.JobName }

func (e *Every) Start(ctx context.Context) {
	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	e.Run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Run(ctx)
		}
	}
}
