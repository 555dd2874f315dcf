package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"drowsyguard/internal/models"
	"drowsyguard/internal/registry"
	"drowsyguard/pkg/logger"
)

// PushSender delivers one payload to one dashboard connection. It returns
// models.ErrConnectionGone when the underlying session no longer exists;
// any other error is treated as transient.
type PushSender interface {
	Send(ctx context.Context, connectionID string, payload []byte) error
}

// DispatchReport summarizes one fan-out round.
type DispatchReport struct {
	Total     int
	Delivered int
	Failed    int
	Evicted   int
}

type DispatchService interface {
	Dispatch(ctx context.Context, enriched *models.EnrichedAlert) *DispatchReport
}

type dispatchService struct {
	registry      *registry.Registry
	sender        PushSender
	roundDeadline time.Duration
	logger        *logger.Logger
}

func NewDispatchService(reg *registry.Registry, sender PushSender, roundDeadline time.Duration, log *logger.Logger) DispatchService {
	return &dispatchService{
		registry:      reg,
		sender:        sender,
		roundDeadline: roundDeadline,
		logger:        log,
	}
}

type sendResult struct {
	connectionID string
	err          error
}

// Dispatch delivers the enriched alert to every connection in one registry
// snapshot. Sends run concurrently and failures are isolated per
// connection: a gone connection is evicted immediately, a transient error
// bumps its failure count, and neither stops the rest of the round. The
// round has one deadline; sends still pending at the deadline are counted
// as failures and abandoned.
func (s *dispatchService) Dispatch(ctx context.Context, enriched *models.EnrichedAlert) *DispatchReport {
	report := &DispatchReport{}

	payload, err := json.Marshal(enriched)
	if err != nil {
		s.logger.WithAlertID(enriched.Alert.AlertID).WithError(err).Error("Failed to encode enriched alert")
		return report
	}

	connectionIDs := s.registry.Snapshot()
	report.Total = len(connectionIDs)
	if report.Total == 0 {
		s.logger.WithAlertID(enriched.Alert.AlertID).Warn("No dashboard connections registered for dispatch")
		return report
	}

	roundCtx, cancel := context.WithTimeout(ctx, s.roundDeadline)
	defer cancel()

	results := make(chan sendResult, len(connectionIDs))
	var wg sync.WaitGroup

	for _, connectionID := range connectionIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			results <- sendResult{connectionID: id, err: s.sender.Send(roundCtx, id, payload)}
		}(connectionID)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	received := 0
	for received < report.Total {
		select {
		case result, ok := <-results:
			if !ok {
				received = report.Total
				break
			}
			received++
			s.recordOutcome(enriched.Alert.AlertID, result, report)

		case <-roundCtx.Done():
			pending := report.Total - received
			report.Failed += pending
			s.logger.WithAlertID(enriched.Alert.AlertID).
				WithField("pending", pending).
				Warn("Dispatch round deadline elapsed with sends pending")
			received = report.Total
		}
	}

	s.logger.LogDispatchRound(enriched.Alert.AlertID, report.Delivered, report.Failed, report.Evicted)

	return report
}

func (s *dispatchService) recordOutcome(alertID string, result sendResult, report *DispatchReport) {
	log := s.logger.WithAlertID(alertID).WithConnectionID(result.connectionID)

	switch {
	case result.err == nil:
		s.registry.RecordSuccess(result.connectionID)
		report.Delivered++

	case errors.Is(result.err, models.ErrConnectionGone):
		s.registry.Evict(result.connectionID)
		report.Failed++
		report.Evicted++
		log.Warn("Connection gone during dispatch, evicted")

	default:
		report.Failed++
		if s.registry.RecordFailure(result.connectionID) {
			report.Evicted++
		}
		log.WithError(result.err).Warn("Delivery to connection failed")
	}
}
