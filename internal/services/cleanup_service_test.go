package services

import (
	"testing"
	"time"

	"drowsyguard/internal/registry"
	"drowsyguard/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupServiceStartStop(t *testing.T) {
	reg := registry.NewRegistry(time.Hour, 3, logger.NewNop())
	svc := NewCleanupService(reg, "@every 1m", logger.NewNop())

	require.NoError(t, svc.Start())
	svc.Stop()
}

func TestCleanupServiceRejectsBadSchedule(t *testing.T) {
	reg := registry.NewRegistry(time.Hour, 3, logger.NewNop())
	svc := NewCleanupService(reg, "every minute or so", logger.NewNop())

	assert.Error(t, svc.Start())
}
