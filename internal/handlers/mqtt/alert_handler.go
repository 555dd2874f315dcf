package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"drowsyguard/internal/config"
	"drowsyguard/internal/models"
	"drowsyguard/internal/services"
	"drowsyguard/pkg/logger"
	"drowsyguard/pkg/mqtt"
)

const handleTimeout = 30 * time.Second

// AlertHandler bridges the vehicle-facing MQTT topics to the alert and
// profile services. Each inbound message is processed under its own
// deadline.
type AlertHandler struct {
	client         *mqtt.Client
	alertService   services.AlertService
	profileService services.ProfileService
	config         *config.MQTTConfig
	logger         *logger.Logger
}

func NewAlertHandler(
	client *mqtt.Client,
	alertService services.AlertService,
	profileService services.ProfileService,
	cfg *config.MQTTConfig,
	log *logger.Logger,
) *AlertHandler {
	return &AlertHandler{
		client:         client,
		alertService:   alertService,
		profileService: profileService,
		config:         cfg,
		logger:         log,
	}
}

// Subscribe attaches the handler to the alert and profile topics.
func (h *AlertHandler) Subscribe() error {
	qos := byte(h.config.QoS)

	if err := h.client.Subscribe(h.config.AlertTopic, qos, h.handleAlert); err != nil {
		return err
	}

	if err := h.client.Subscribe(h.config.ProfileTopic, qos, h.handleProfile); err != nil {
		return err
	}

	h.logger.WithFields(map[string]interface{}{
		"alert_topic":   h.config.AlertTopic,
		"profile_topic": h.config.ProfileTopic,
	}).Info("Subscribed to vehicle topics")

	return nil
}

func (h *AlertHandler) handleAlert(topic string, payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	// An undecodable payload flows through as an empty event so the
	// processor rejects it and the vehicle still gets an acknowledgment.
	var event models.AlertEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.WithError(err).Warn("Undecodable alert payload")
	}

	outcome, err := h.alertService.ProcessAlert(ctx, &event)
	if err != nil {
		// Persistence failed before any ack; returning the error leaves
		// redelivery to the transport's at-least-once semantics.
		return err
	}

	h.logger.WithAlertID(outcome.AlertID).
		WithFields(map[string]interface{}{
			"state":     string(outcome.State),
			"replayed":  outcome.Replayed,
			"delivered": outcome.Delivered,
		}).Info("Alert processed")

	return nil
}

func (h *AlertHandler) handleProfile(topic string, payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	var update models.ProfileUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		h.logger.WithError(err).Warn("Undecodable profile payload")
		return nil
	}

	if err := h.profileService.ProcessUpdate(ctx, &update); err != nil {
		// Malformed and stale updates are terminal; anything else is
		// worth a redelivery.
		if isTerminalProfileError(err) {
			return nil
		}
		return err
	}

	return nil
}

func isTerminalProfileError(err error) bool {
	return errors.Is(err, models.ErrMalformedAlert) || errors.Is(err, models.ErrStaleProfileUpdate)
}
