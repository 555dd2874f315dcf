package services

import (
	"context"
	"encoding/json"

	"drowsyguard/internal/models"
	"drowsyguard/pkg/logger"
)

// dashboardBridge decorates a DispatchService and mirrors every enriched
// alert onto the MQTT dashboard topic before the websocket round, keeping
// consoles that still subscribe over MQTT in the loop. The mirror is
// best-effort and does not count toward the round's delivery report.
type dashboardBridge struct {
	next      DispatchService
	publisher AckPublisher
	topic     string
	qos       byte
	logger    *logger.Logger
}

func NewDashboardBridge(next DispatchService, publisher AckPublisher, topic string, qos byte, log *logger.Logger) DispatchService {
	return &dashboardBridge{
		next:      next,
		publisher: publisher,
		topic:     topic,
		qos:       qos,
		logger:    log,
	}
}

func (b *dashboardBridge) Dispatch(ctx context.Context, enriched *models.EnrichedAlert) *DispatchReport {
	log := b.logger.WithAlertID(enriched.Alert.AlertID)

	payload, err := json.Marshal(enriched)
	if err != nil {
		log.WithError(err).Error("Failed to encode alert for dashboard topic")
	} else if err := b.publisher.Publish(b.topic, b.qos, false, payload); err != nil {
		log.WithError(err).Warn("Failed to mirror alert to dashboard topic")
	}

	return b.next.Dispatch(ctx, enriched)
}
