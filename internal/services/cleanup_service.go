package services

import (
	"time"

	"drowsyguard/internal/registry"
	"drowsyguard/pkg/logger"

	"github.com/robfig/cron/v3"
)

// CleanupService periodically prunes registry entries whose expiry passed
// without a disconnect event (crashed clients, network partitions). The
// alert and profile stores expire their own records via TTL indexes.
type CleanupService struct {
	registry *registry.Registry
	cron     *cron.Cron
	schedule string
	logger   *logger.Logger
}

func NewCleanupService(reg *registry.Registry, schedule string, log *logger.Logger) *CleanupService {
	return &CleanupService{
		registry: reg,
		cron:     cron.New(),
		schedule: schedule,
		logger:   log,
	}
}

func (s *CleanupService) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if pruned := s.registry.PruneExpired(time.Now()); pruned > 0 {
			s.logger.WithField("pruned", pruned).Info("Pruned expired connections")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *CleanupService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
