package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"drowsyguard/internal/models"
	"drowsyguard/internal/registry"
	"drowsyguard/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender scripts per-connection outcomes and records payloads.
type fakeSender struct {
	mu       sync.Mutex
	errs     map[string]error
	delay    map[string]time.Duration
	payloads map[string][][]byte
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		errs:     make(map[string]error),
		delay:    make(map[string]time.Duration),
		payloads: make(map[string][][]byte),
	}
}

func (f *fakeSender) Send(ctx context.Context, connectionID string, payload []byte) error {
	f.mu.Lock()
	d := f.delay[connectionID]
	f.mu.Unlock()

	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[connectionID] = append(f.payloads[connectionID], payload)
	return f.errs[connectionID]
}

func (f *fakeSender) deliveredTo(connectionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads[connectionID])
}

func testEnrichedAlert() *models.EnrichedAlert {
	return &models.EnrichedAlert{
		Alert: &models.StoredAlert{
			AlertID:  "alert-1",
			DriverID: "driver-1",
			Message:  "Drowsiness detected",
		},
	}
}

func TestDispatchDeliversToAllConnections(t *testing.T) {
	reg := registry.NewRegistry(time.Hour, 3, logger.NewNop())
	reg.Register("conn-1", models.RoleAmbulanceUnit)
	reg.Register("conn-2", models.RoleAmbulanceUnit)
	reg.Register("conn-3", models.RoleEmergencyCenter)

	sender := newFakeSender()
	svc := NewDispatchService(reg, sender, time.Second, logger.NewNop())

	report := svc.Dispatch(context.Background(), testEnrichedAlert())

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Delivered)
	assert.Equal(t, 0, report.Failed)
	for _, id := range []string{"conn-1", "conn-2", "conn-3"} {
		assert.Equal(t, 1, sender.deliveredTo(id))
	}
}

func TestDispatchEmptyRegistry(t *testing.T) {
	reg := registry.NewRegistry(time.Hour, 3, logger.NewNop())
	svc := NewDispatchService(reg, newFakeSender(), time.Second, logger.NewNop())

	report := svc.Dispatch(context.Background(), testEnrichedAlert())

	assert.Equal(t, 0, report.Total)
	assert.Equal(t, 0, report.Delivered)
}

func TestDispatchIsolatesFailures(t *testing.T) {
	reg := registry.NewRegistry(time.Hour, 3, logger.NewNop())
	reg.Register("conn-ok", models.RoleAmbulanceUnit)
	reg.Register("conn-bad", models.RoleAmbulanceUnit)

	sender := newFakeSender()
	sender.errs["conn-bad"] = errors.New("write: broken pipe")

	svc := NewDispatchService(reg, sender, time.Second, logger.NewNop())
	report := svc.Dispatch(context.Background(), testEnrichedAlert())

	assert.Equal(t, 1, report.Delivered)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Evicted)

	// Both connections remain registered after a single transient failure.
	assert.Equal(t, 2, reg.Len())
}

func TestDispatchEvictsGoneConnection(t *testing.T) {
	reg := registry.NewRegistry(time.Hour, 3, logger.NewNop())
	reg.Register("conn-gone", models.RoleAmbulanceUnit)
	reg.Register("conn-ok", models.RoleAmbulanceUnit)

	sender := newFakeSender()
	sender.errs["conn-gone"] = models.ErrConnectionGone

	svc := NewDispatchService(reg, sender, time.Second, logger.NewNop())
	report := svc.Dispatch(context.Background(), testEnrichedAlert())

	assert.Equal(t, 1, report.Delivered)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Evicted)
	assert.Equal(t, 1, reg.Len())
	assert.NotContains(t, reg.Snapshot(), "conn-gone")
}

func TestDispatchEvictsAfterRepeatedTransientFailures(t *testing.T) {
	reg := registry.NewRegistry(time.Hour, 3, logger.NewNop())
	reg.Register("conn-flaky", models.RoleAmbulanceUnit)

	sender := newFakeSender()
	sender.errs["conn-flaky"] = errors.New("send buffer full")

	svc := NewDispatchService(reg, sender, time.Second, logger.NewNop())

	for i := 0; i < 2; i++ {
		report := svc.Dispatch(context.Background(), testEnrichedAlert())
		assert.Equal(t, 0, report.Evicted)
	}
	require.Equal(t, 1, reg.Len())

	report := svc.Dispatch(context.Background(), testEnrichedAlert())
	assert.Equal(t, 1, report.Evicted)
	assert.Equal(t, 0, reg.Len())
}

func TestDispatchRoundDeadline(t *testing.T) {
	reg := registry.NewRegistry(time.Hour, 3, logger.NewNop())
	reg.Register("conn-fast", models.RoleAmbulanceUnit)
	reg.Register("conn-slow", models.RoleAmbulanceUnit)

	sender := newFakeSender()
	sender.delay["conn-slow"] = 500 * time.Millisecond

	svc := NewDispatchService(reg, sender, 50*time.Millisecond, logger.NewNop())
	report := svc.Dispatch(context.Background(), testEnrichedAlert())

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Delivered)
	assert.Equal(t, 1, report.Failed)

	// The slow connection stays registered; missing one deadline is not
	// grounds for eviction.
	assert.Equal(t, 2, reg.Len())
}
