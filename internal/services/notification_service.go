package services

import (
	"context"
	"encoding/json"
	"fmt"

	"drowsyguard/internal/config"
	"drowsyguard/internal/models"
	"drowsyguard/pkg/logger"
	"drowsyguard/pkg/notify"
)

// NotificationService handles best-effort escalation outside the dashboard
// path: an SNS topic publish when a dispatch round reached nobody, and an
// SMS to the driver's emergency contact when the profile names one.
// Nothing here ever gates the alert's state machine.
type NotificationService interface {
	EscalateAlert(ctx context.Context, enriched *models.EnrichedAlert, delivered int)
}

type notificationService struct {
	notifier *notify.SNSNotifier
	config   *config.NotificationConfig
	logger   *logger.Logger
}

func NewNotificationService(notifier *notify.SNSNotifier, cfg *config.NotificationConfig, log *logger.Logger) NotificationService {
	return &notificationService{
		notifier: notifier,
		config:   cfg,
		logger:   log,
	}
}

func (s *notificationService) EscalateAlert(ctx context.Context, enriched *models.EnrichedAlert, delivered int) {
	log := s.logger.WithAlertID(enriched.Alert.AlertID)

	if delivered == 0 && s.config.EscalationTopicARN != "" {
		payload, err := json.Marshal(enriched)
		if err != nil {
			log.WithError(err).Error("Failed to encode escalation payload")
		} else if err := s.notifier.PublishTopic(ctx, s.config.EscalationTopicARN, "Drowsiness alert undelivered", payload); err != nil {
			log.WithError(err).Error("Failed to publish escalation notification")
		} else {
			log.Warn("Alert escalated: no dashboard received it")
		}
	}

	if s.config.SMSEnabled && enriched.DriverInfo != nil && enriched.DriverInfo.EmergencyContact != "" {
		message := fmt.Sprintf(
			"Drowsiness alert for %s at %s. %s",
			enriched.DriverInfo.Name,
			enriched.Alert.Timestamp.Format("15:04 MST"),
			enriched.Alert.Message,
		)
		if err := s.notifier.SendSMS(ctx, enriched.DriverInfo.EmergencyContact, message); err != nil {
			log.WithError(err).Error("Failed to notify emergency contact")
		}
	}
}
