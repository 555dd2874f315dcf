package services

import (
	"encoding/json"

	"drowsyguard/internal/models"
	"drowsyguard/pkg/logger"
)

// AckPublisher is the outbound vehicle channel; pkg/mqtt.Client satisfies
// it.
type AckPublisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// AckEmitter sends the terminal status message for one alert back to the
// originating vehicle. Fire-and-forget: a failed send is logged, and the
// vehicle's retry-on-missing-ack logic owns recovery.
type AckEmitter interface {
	Acknowledge(alertID string, status models.AckStatus, reason string)
}

type ackEmitter struct {
	publisher AckPublisher
	topic     string
	qos       byte
	logger    *logger.Logger
}

func NewAckEmitter(publisher AckPublisher, topic string, qos byte, log *logger.Logger) AckEmitter {
	return &ackEmitter{
		publisher: publisher,
		topic:     topic,
		qos:       qos,
		logger:    log,
	}
}

func (e *ackEmitter) Acknowledge(alertID string, status models.AckStatus, reason string) {
	ack := models.Acknowledgment{
		AlertID: alertID,
		Status:  status,
		Reason:  reason,
	}

	payload, err := json.Marshal(ack)
	if err != nil {
		e.logger.WithAlertID(alertID).WithError(err).Error("Failed to encode acknowledgment")
		return
	}

	if err := e.publisher.Publish(e.topic, e.qos, false, payload); err != nil {
		e.logger.WithAlertID(alertID).WithError(err).Error("Failed to send acknowledgment")
		return
	}

	e.logger.WithAlertID(alertID).WithField("status", string(status)).Debug("Acknowledgment sent")
}
