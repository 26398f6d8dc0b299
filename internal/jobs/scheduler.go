package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"terramap/api/internal/service"
)

// Scheduler keeps the cached public map stats warm so anonymous visitors
// never pay for the aggregate query.
type Scheduler struct {
	cron     *cron.Cron
	terrains *service.TerrainService
	spec     string
	log      zerolog.Logger
}

func NewScheduler(terrains *service.TerrainService, spec string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		terrains: terrains,
		spec:     spec,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.terrains == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.refreshPublicStats); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() context.CancelFunc {
	_, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		s.cron.Stop()
		cancel()
	}()
	return cancel
}

func (s *Scheduler) refreshPublicStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.terrains.RefreshPublicStats(ctx); err != nil {
		s.log.Error().Err(err).Msg("public stats refresh failed")
	}
}
