package alerts

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Auyante/refineryiq-system/models"
)

var (
	ErrNotFound            = errors.New("alert not found")
	ErrAlreadyAcknowledged = errors.New("alert already acknowledged")
)

type dedupKey struct {
	entity    string
	condition models.AlertCondition
}

// Manager owns alert creation and the OPEN -> ACKNOWLEDGED state machine.
// The record list is append-only; acknowledgment is the only mutation and
// it is terminal. At most one OPEN alert exists per (entity, condition):
// repeated threshold crossings reuse the open record until someone
// acknowledges it.
type Manager struct {
	mu     sync.RWMutex
	alerts []*models.Alert
	byID   map[string]*models.Alert
	open   map[dedupKey]string
}

func NewManager() *Manager {
	return &Manager{
		byID: make(map[string]*models.Alert),
		open: make(map[dedupKey]string),
	}
}

// Raise creates an alert for a threshold crossing unless one is already
// open for the same (entity, condition). It returns the governing alert
// and whether it was created by this call.
func (m *Manager) Raise(condition models.AlertCondition, entityID, unitID, tagID string, severity models.Severity, message string) (models.Alert, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := dedupKey{entity: entityID, condition: condition}
	if id, ok := m.open[key]; ok {
		return *m.byID[id], false
	}

	alert := &models.Alert{
		ID:        uuid.NewString(),
		EntityID:  entityID,
		UnitID:    unitID,
		TagID:     tagID,
		Condition: condition,
		Severity:  severity,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	m.alerts = append(m.alerts, alert)
	m.byID[alert.ID] = alert
	m.open[key] = alert.ID

	return *alert, true
}

// Acknowledge moves an alert to its terminal state, recording who and
// when. A later crossing of the same condition creates a fresh alert.
func (m *Manager) Acknowledge(id, by string) (models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.byID[id]
	if !ok {
		return models.Alert{}, ErrNotFound
	}
	if alert.Acknowledged {
		return models.Alert{}, ErrAlreadyAcknowledged
	}

	now := time.Now().UTC()
	alert.Acknowledged = true
	alert.AcknowledgedAt = &now
	alert.AcknowledgedBy = by

	delete(m.open, dedupKey{entity: alert.EntityID, condition: alert.Condition})

	return *alert, nil
}

// List returns up to limit alerts, newest first. limit <= 0 means all.
func (m *Manager) List(limit int) []models.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.alerts)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]models.Alert, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, *m.alerts[i])
	}
	return out
}

// OpenCount reports how many alerts are currently unacknowledged.
func (m *Manager) OpenCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.open)
}
