package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"drowsyguard/internal/config"
	"drowsyguard/internal/models"
	"drowsyguard/internal/repositories/interfaces"
	"drowsyguard/internal/utils"
	"drowsyguard/internal/validators"
	"drowsyguard/pkg/logger"
)

// AlertService drives one inbound alert event through
// validation, driver join, persistence, fan-out and acknowledgment.
type AlertService interface {
	ProcessAlert(ctx context.Context, event *models.AlertEvent) (*models.AlertOutcome, error)
}

type alertService struct {
	driverRepo interfaces.DriverRepository
	alertRepo  interfaces.AlertRepository
	dispatcher DispatchService
	ackEmitter AckEmitter
	notifier   NotificationService
	directory  *config.DirectoryConfig
	alertTTL   time.Duration
	logger     *logger.Logger
}

func NewAlertService(
	driverRepo interfaces.DriverRepository,
	alertRepo interfaces.AlertRepository,
	dispatcher DispatchService,
	ackEmitter AckEmitter,
	notifier NotificationService,
	directory *config.DirectoryConfig,
	alertTTL time.Duration,
	log *logger.Logger,
) AlertService {
	return &alertService{
		driverRepo: driverRepo,
		alertRepo:  alertRepo,
		dispatcher: dispatcher,
		ackEmitter: ackEmitter,
		notifier:   notifier,
		directory:  directory,
		alertTTL:   alertTTL,
		logger:     log,
	}
}

// ProcessAlert runs the per-event state machine. Terminal states are
// Acknowledged and Rejected; exactly one acknowledgment goes out on either
// path. A returned error means persistence failed before any side effect
// the vehicle could observe, so the transport's at-least-once redelivery
// retries the whole event.
func (s *alertService) ProcessAlert(ctx context.Context, event *models.AlertEvent) (*models.AlertOutcome, error) {
	outcome := &models.AlertOutcome{AlertID: event.AlertID, State: models.AlertStateReceived}
	log := s.logger.WithAlertID(event.AlertID).WithDriverID(event.DriverID)

	// Received -> Validated
	if err := validators.ValidateAlertEvent(event); err != nil {
		outcome.State = models.AlertStateRejected
		outcome.Reason = "MalformedAlert"
		log.WithError(err).Warn("Alert rejected: malformed event")
		s.ackEmitter.Acknowledge(event.AlertID, models.AckStatusRejected, "MalformedAlert")
		return outcome, nil
	}
	s.transition(outcome, models.AlertStateValidated)

	// Validated -> Joined. A missing profile never blocks a potentially
	// life-critical alert; only the lookup result degrades.
	driverInfo := s.lookupDriver(ctx, event.DriverID, log)
	s.transition(outcome, models.AlertStateJoined)

	// Joined -> Persisted
	timestamp, _ := utils.ParseTimeISO(event.Timestamp)
	stored := &models.StoredAlert{
		AlertID:         event.AlertID,
		DriverID:        event.DriverID,
		Timestamp:       timestamp,
		Location:        event.Location,
		Message:         event.Message,
		DrowsinessLevel: event.DrowsinessLevel,
		Confidence:      event.Confidence,
		Speed:           event.Speed,
		Expiry:          time.Now().Add(s.alertTTL),
	}

	result, err := s.alertRepo.Upsert(ctx, stored)
	if err != nil {
		log.WithError(err).Error("Failed to persist alert")
		return outcome, fmt.Errorf("failed to persist alert %s: %w", event.AlertID, err)
	}
	s.transition(outcome, models.AlertStatePersisted)

	if !result.Inserted {
		// Replayed delivery: reuse the record the first delivery wrote
		// so both dispatches carry identical content.
		outcome.Replayed = true
		stored = result.Existing
		log.Info("Duplicate alert delivery absorbed, reusing stored record")
	}

	// Persisted -> Dispatched. Per-connection failures inside the round
	// never fail the alert.
	enriched := &models.EnrichedAlert{Alert: stored, DriverInfo: driverInfo}
	report := s.dispatcher.Dispatch(ctx, enriched)
	outcome.Delivered = report.Delivered
	outcome.Failed = report.Failed
	s.transition(outcome, models.AlertStateDispatched)

	if err := s.alertRepo.MarkProcessed(ctx, stored.AlertID); err != nil {
		log.WithError(err).Warn("Failed to mark alert processed")
	}

	if s.notifier != nil {
		s.notifier.EscalateAlert(ctx, enriched, report.Delivered)
	}

	// Dispatched -> Acknowledged
	s.ackEmitter.Acknowledge(event.AlertID, models.AckStatusOK, "")
	s.transition(outcome, models.AlertStateAcknowledged)

	return outcome, nil
}

// lookupDriver distinguishes "no such profile" from a directory outage:
// not-found degrades immediately, anything else retries with doubling
// backoff before degrading. Either way the alert proceeds with a nil
// profile.
func (s *alertService) lookupDriver(ctx context.Context, driverID string, log *logger.Logger) *models.DriverProfile {
	backoff := s.directory.LookupBackoff

	for attempt := 1; attempt <= s.directory.LookupAttempts; attempt++ {
		lookupCtx, cancel := context.WithTimeout(ctx, s.directory.LookupTimeout)
		profile, err := s.driverRepo.GetByDriverID(lookupCtx, driverID)
		cancel()

		if err == nil {
			return profile
		}
		if errors.Is(err, models.ErrDriverNotFound) {
			log.Warn("No driver profile found, dispatching without medical data")
			return nil
		}

		log.WithError(err).WithField("attempt", attempt).Warn("Driver directory lookup failed")

		if attempt < s.directory.LookupAttempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil
			}
			backoff *= 2
		}
	}

	log.WithError(models.ErrDirectoryUnavailable).Error("Dispatching without medical data")
	return nil
}

func (s *alertService) transition(outcome *models.AlertOutcome, to models.AlertState) {
	s.logger.LogAlertTransition(outcome.AlertID, string(outcome.State), string(to))
	outcome.State = to
}
