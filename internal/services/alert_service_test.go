package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"drowsyguard/internal/config"
	"drowsyguard/internal/models"
	"drowsyguard/internal/repositories/interfaces"
	"drowsyguard/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDriverRepo struct {
	mu       sync.Mutex
	profiles map[string]*models.DriverProfile
	// failures errors are returned before the profile map is consulted,
	// one per call, to script transient outages.
	failures []error
	calls    int
}

func newFakeDriverRepo() *fakeDriverRepo {
	return &fakeDriverRepo{profiles: make(map[string]*models.DriverProfile)}
}

func (f *fakeDriverRepo) GetByDriverID(ctx context.Context, driverID string) (*models.DriverProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return nil, err
	}

	profile, ok := f.profiles[driverID]
	if !ok {
		return nil, models.ErrDriverNotFound
	}
	return profile, nil
}

func (f *fakeDriverRepo) Upsert(ctx context.Context, profile *models.DriverProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.profiles[profile.DriverID]; ok && profile.LastUpdated.Before(existing.LastUpdated) {
		return models.ErrStaleProfileUpdate
	}
	f.profiles[profile.DriverID] = profile
	return nil
}

func (f *fakeDriverRepo) Delete(ctx context.Context, driverID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.profiles, driverID)
	return nil
}

type fakeAlertRepo struct {
	mu        sync.Mutex
	alerts    map[string]*models.StoredAlert
	upsertErr error
	upserts   int
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{alerts: make(map[string]*models.StoredAlert)}
}

func (f *fakeAlertRepo) Upsert(ctx context.Context, alert *models.StoredAlert) (*interfaces.UpsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++

	if f.upsertErr != nil {
		return nil, f.upsertErr
	}

	if existing, ok := f.alerts[alert.AlertID]; ok {
		return &interfaces.UpsertResult{Inserted: false, Existing: existing}, nil
	}

	alert.CreatedAt = time.Now()
	stored := *alert
	f.alerts[alert.AlertID] = &stored
	return &interfaces.UpsertResult{Inserted: true, Existing: alert}, nil
}

func (f *fakeAlertRepo) GetByID(ctx context.Context, alertID string) (*models.StoredAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.alerts[alertID]
	if !ok {
		return nil, errors.New("alert not found")
	}
	return alert, nil
}

func (f *fakeAlertRepo) GetByDriverID(ctx context.Context, driverID string, since time.Time, limit int64) ([]*models.StoredAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.StoredAlert
	for _, alert := range f.alerts {
		if alert.DriverID == driverID && !alert.Timestamp.Before(since) {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (f *fakeAlertRepo) MarkProcessed(ctx context.Context, alertID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if alert, ok := f.alerts[alertID]; ok {
		alert.Processed = true
	}
	return nil
}

type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched []*models.EnrichedAlert
	report     DispatchReport
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, enriched *models.EnrichedAlert) *DispatchReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatched = append(f.dispatched, enriched)
	report := f.report
	return &report
}

type recordedAck struct {
	AlertID string
	Status  models.AckStatus
	Reason  string
}

type fakeAckEmitter struct {
	mu   sync.Mutex
	acks []recordedAck
}

func (f *fakeAckEmitter) Acknowledge(alertID string, status models.AckStatus, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks = append(f.acks, recordedAck{AlertID: alertID, Status: status, Reason: reason})
}

type alertServiceFixture struct {
	driverRepo *fakeDriverRepo
	alertRepo  *fakeAlertRepo
	dispatcher *fakeDispatcher
	acks       *fakeAckEmitter
	service    AlertService
}

func newAlertServiceFixture() *alertServiceFixture {
	f := &alertServiceFixture{
		driverRepo: newFakeDriverRepo(),
		alertRepo:  newFakeAlertRepo(),
		dispatcher: &fakeDispatcher{report: DispatchReport{Total: 1, Delivered: 1}},
		acks:       &fakeAckEmitter{},
	}
	directory := &config.DirectoryConfig{
		LookupAttempts: 3,
		LookupBackoff:  time.Millisecond,
		LookupTimeout:  time.Second,
	}
	f.service = NewAlertService(
		f.driverRepo, f.alertRepo, f.dispatcher, f.acks, nil,
		directory, 30*24*time.Hour, logger.NewNop(),
	)
	return f
}

func validAlertEvent() *models.AlertEvent {
	return &models.AlertEvent{
		AlertID:   "alert-1",
		DriverID:  "driver-1",
		Timestamp: "2026-08-30T10:15:00Z",
		Location:  models.Location{Latitude: 13.7563, Longitude: 100.5018},
		Message:   "Drowsiness detected",
	}
}

func TestProcessAlertHappyPath(t *testing.T) {
	f := newAlertServiceFixture()
	f.driverRepo.profiles["driver-1"] = &models.DriverProfile{
		DriverID:  "driver-1",
		Name:      "Somchai",
		BloodType: "O+",
	}

	outcome, err := f.service.ProcessAlert(context.Background(), validAlertEvent())
	require.NoError(t, err)

	assert.Equal(t, models.AlertStateAcknowledged, outcome.State)
	assert.False(t, outcome.Replayed)
	assert.Equal(t, 1, outcome.Delivered)

	// Persisted with the alert id as key and processed after dispatch.
	stored, err := f.alertRepo.GetByID(context.Background(), "alert-1")
	require.NoError(t, err)
	assert.True(t, stored.Processed)

	// The joined profile rode along with the dispatch.
	require.Len(t, f.dispatcher.dispatched, 1)
	require.NotNil(t, f.dispatcher.dispatched[0].DriverInfo)
	assert.Equal(t, "Somchai", f.dispatcher.dispatched[0].DriverInfo.Name)

	require.Len(t, f.acks.acks, 1)
	assert.Equal(t, models.AckStatusOK, f.acks.acks[0].Status)
}

func TestProcessAlertMissingProfileDegrades(t *testing.T) {
	f := newAlertServiceFixture()

	outcome, err := f.service.ProcessAlert(context.Background(), validAlertEvent())
	require.NoError(t, err)

	assert.Equal(t, models.AlertStateAcknowledged, outcome.State)

	// One lookup, no retries: not-found is a definitive answer.
	assert.Equal(t, 1, f.driverRepo.calls)

	require.Len(t, f.dispatcher.dispatched, 1)
	assert.Nil(t, f.dispatcher.dispatched[0].DriverInfo)

	require.Len(t, f.acks.acks, 1)
	assert.Equal(t, models.AckStatusOK, f.acks.acks[0].Status)
}

func TestProcessAlertRejectsMalformedEvent(t *testing.T) {
	f := newAlertServiceFixture()

	event := validAlertEvent()
	event.DriverID = ""

	outcome, err := f.service.ProcessAlert(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, models.AlertStateRejected, outcome.State)
	assert.Equal(t, "MalformedAlert", outcome.Reason)

	// Nothing persisted, nothing dispatched.
	assert.Equal(t, 0, f.alertRepo.upserts)
	assert.Empty(t, f.dispatcher.dispatched)

	require.Len(t, f.acks.acks, 1)
	assert.Equal(t, models.AckStatusRejected, f.acks.acks[0].Status)
	assert.Equal(t, "MalformedAlert", f.acks.acks[0].Reason)
}

func TestProcessAlertRejectsBadTimestamp(t *testing.T) {
	f := newAlertServiceFixture()

	event := validAlertEvent()
	event.Timestamp = "yesterday around noon"

	outcome, err := f.service.ProcessAlert(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, models.AlertStateRejected, outcome.State)
	assert.Equal(t, 0, f.alertRepo.upserts)
}

func TestProcessAlertReplayIsIdempotent(t *testing.T) {
	f := newAlertServiceFixture()

	first, err := f.service.ProcessAlert(context.Background(), validAlertEvent())
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	// Redelivery of the same event: same record, second dispatch, second
	// ack, no second insert.
	second, err := f.service.ProcessAlert(context.Background(), validAlertEvent())
	require.NoError(t, err)
	assert.True(t, second.Replayed)

	assert.Len(t, f.alertRepo.alerts, 1)
	require.Len(t, f.dispatcher.dispatched, 2)
	assert.Equal(t, f.dispatcher.dispatched[0].Alert.CreatedAt, f.dispatcher.dispatched[1].Alert.CreatedAt)

	require.Len(t, f.acks.acks, 2)
	assert.Equal(t, models.AckStatusOK, f.acks.acks[1].Status)
}

func TestProcessAlertPersistFailureReturnsErrorWithoutAck(t *testing.T) {
	f := newAlertServiceFixture()
	f.alertRepo.upsertErr = errors.New("mongo: connection refused")

	_, err := f.service.ProcessAlert(context.Background(), validAlertEvent())
	require.Error(t, err)

	// No ack and no dispatch: the transport redelivers the whole event.
	assert.Empty(t, f.acks.acks)
	assert.Empty(t, f.dispatcher.dispatched)
}

func TestProcessAlertDirectoryOutageRetriesThenDegrades(t *testing.T) {
	f := newAlertServiceFixture()
	outage := errors.New("directory timeout")
	f.driverRepo.failures = []error{outage, outage, outage}
	f.driverRepo.profiles["driver-1"] = &models.DriverProfile{DriverID: "driver-1", Name: "Somchai"}

	outcome, err := f.service.ProcessAlert(context.Background(), validAlertEvent())
	require.NoError(t, err)

	assert.Equal(t, models.AlertStateAcknowledged, outcome.State)
	assert.Equal(t, 3, f.driverRepo.calls)

	// All attempts failed, so the alert went out without the profile.
	require.Len(t, f.dispatcher.dispatched, 1)
	assert.Nil(t, f.dispatcher.dispatched[0].DriverInfo)
}

func TestProcessAlertDirectoryRecoversMidRetry(t *testing.T) {
	f := newAlertServiceFixture()
	f.driverRepo.failures = []error{errors.New("directory timeout")}
	f.driverRepo.profiles["driver-1"] = &models.DriverProfile{DriverID: "driver-1", Name: "Somchai"}

	_, err := f.service.ProcessAlert(context.Background(), validAlertEvent())
	require.NoError(t, err)

	assert.Equal(t, 2, f.driverRepo.calls)
	require.Len(t, f.dispatcher.dispatched, 1)
	require.NotNil(t, f.dispatcher.dispatched[0].DriverInfo)
	assert.Equal(t, "Somchai", f.dispatcher.dispatched[0].DriverInfo.Name)
}

func TestProcessAlertDispatchFailuresDoNotFailAlert(t *testing.T) {
	f := newAlertServiceFixture()
	f.dispatcher.report = DispatchReport{Total: 3, Delivered: 1, Failed: 2}

	outcome, err := f.service.ProcessAlert(context.Background(), validAlertEvent())
	require.NoError(t, err)

	assert.Equal(t, models.AlertStateAcknowledged, outcome.State)
	assert.Equal(t, 1, outcome.Delivered)
	assert.Equal(t, 2, outcome.Failed)

	require.Len(t, f.acks.acks, 1)
	assert.Equal(t, models.AckStatusOK, f.acks.acks[0].Status)
}
