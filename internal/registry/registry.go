package registry

import (
	"sort"
	"sync"
	"time"

	"drowsyguard/internal/models"

	"drowsyguard/pkg/logger"
)

// Registry is the authoritative set of live dashboard connections. All
// operations run under one mutex; none of them perform I/O, so dispatch
// rounds never block lifecycle events for longer than a map update.
type Registry struct {
	mu               sync.Mutex
	entries          map[string]*models.ConnectionEntry
	entryTTL         time.Duration
	failureThreshold int
	log              *logger.Logger
}

func NewRegistry(entryTTL time.Duration, failureThreshold int, log *logger.Logger) *Registry {
	return &Registry{
		entries:          make(map[string]*models.ConnectionEntry),
		entryTTL:         entryTTL,
		failureThreshold: failureThreshold,
		log:              log,
	}
}

// Register adds a connection. Registering an existing id overwrites its
// metadata: a reconnect with the same id, not an error.
func (r *Registry) Register(connectionID string, role models.SubscriberRole) {
	now := time.Now()

	r.mu.Lock()
	r.entries[connectionID] = &models.ConnectionEntry{
		ConnectionID:  connectionID,
		Role:          role,
		EstablishedAt: now,
		Expiry:        now.Add(r.entryTTL),
	}
	r.mu.Unlock()

	r.log.WithConnectionID(connectionID).WithField("role", string(role)).Info("Connection registered")
}

// Unregister removes a connection. Absent ids are a no-op; disconnect
// events may race or arrive twice.
func (r *Registry) Unregister(connectionID string) {
	r.mu.Lock()
	_, existed := r.entries[connectionID]
	delete(r.entries, connectionID)
	r.mu.Unlock()

	if existed {
		r.log.WithConnectionID(connectionID).Info("Connection unregistered")
	}
}

// Evict removes a connection whose transport session is known to be gone.
func (r *Registry) Evict(connectionID string) {
	r.mu.Lock()
	_, existed := r.entries[connectionID]
	delete(r.entries, connectionID)
	r.mu.Unlock()

	if existed {
		r.log.WithConnectionID(connectionID).Warn("Stale connection evicted")
	}
}

// Snapshot returns the connection ids for one dispatch round, ordered by
// registration time then id. Connections added after the snapshot join the
// next round.
func (r *Registry) Snapshot() []string {
	r.mu.Lock()
	entries := make([]*models.ConnectionEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	r.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].EstablishedAt.Equal(entries[j].EstablishedAt) {
			return entries[i].ConnectionID < entries[j].ConnectionID
		}
		return entries[i].EstablishedAt.Before(entries[j].EstablishedAt)
	})

	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ConnectionID
	}
	return ids
}

// RecordFailure increments the consecutive-failure count for a connection
// after a transient delivery error and evicts it once the threshold is
// exceeded. Reports whether the connection was evicted.
func (r *Registry) RecordFailure(connectionID string) bool {
	r.mu.Lock()
	entry, ok := r.entries[connectionID]
	if !ok {
		r.mu.Unlock()
		return false
	}

	entry.Failures++
	evicted := entry.Failures >= r.failureThreshold
	if evicted {
		delete(r.entries, connectionID)
	}
	r.mu.Unlock()

	if evicted {
		r.log.WithConnectionID(connectionID).Warn("Connection evicted after repeated delivery failures")
	}
	return evicted
}

// RecordSuccess resets the consecutive-failure count after a delivery.
func (r *Registry) RecordSuccess(connectionID string) {
	r.mu.Lock()
	if entry, ok := r.entries[connectionID]; ok {
		entry.Failures = 0
	}
	r.mu.Unlock()
}

// PruneExpired drops entries past their expiry, covering crashed clients
// whose disconnect event was never observed. Returns the removed count.
func (r *Registry) PruneExpired(now time.Time) int {
	var pruned []string

	r.mu.Lock()
	for id, entry := range r.entries {
		if now.After(entry.Expiry) {
			delete(r.entries, id)
			pruned = append(pruned, id)
		}
	}
	r.mu.Unlock()

	for _, id := range pruned {
		r.log.WithConnectionID(id).Warn("Expired connection pruned")
	}
	return len(pruned)
}

// Len reports the current number of registered connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Entries returns a copy of the current entries for status reporting.
func (r *Registry) Entries() []models.ConnectionEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.ConnectionEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, *entry)
	}
	return out
}
