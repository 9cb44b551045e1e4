// Package health tracks the readiness of the loader services: NATS
// connectivity, the job host, and the metrics endpoint.
package health

import (
	"sync"
	"time"
)

// Health states
const (
	StateHealthy   = "healthy"
	StateDegraded  = "degraded"
	StateUnhealthy = "unhealthy"
)

// Status is the health of one subsystem at a point in time
type Status struct {
	Component string    `json:"component"`
	State     string    `json:"state"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Healthy builds a healthy status
func Healthy(component, message string) Status {
	return Status{Component: component, State: StateHealthy, Message: message, Timestamp: time.Now()}
}

// Degraded builds a degraded status
func Degraded(component, message string) Status {
	return Status{Component: component, State: StateDegraded, Message: message, Timestamp: time.Now()}
}

// Unhealthy builds an unhealthy status
func Unhealthy(component, message string) Status {
	return Status{Component: component, State: StateUnhealthy, Message: message, Timestamp: time.Now()}
}

// Report is the aggregated system health
type Report struct {
	State      string    `json:"state"`
	Timestamp  time.Time `json:"timestamp"`
	Components []Status  `json:"components"`
}

// Monitor tracks subsystem health. Safe for concurrent use.
type Monitor struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

// NewMonitor creates an empty monitor
func NewMonitor() *Monitor {
	return &Monitor{statuses: make(map[string]Status)}
}

// Update records a subsystem's status
func (m *Monitor) Update(status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}
	m.statuses[status.Component] = status
}

// Get returns a subsystem's last status
func (m *Monitor) Get(component string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, ok := m.statuses[component]
	return status, ok
}

// Report aggregates all subsystem statuses: any unhealthy subsystem makes
// the system unhealthy, otherwise any degraded one makes it degraded
func (m *Monitor) Report() Report {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report := Report{
		State:      StateHealthy,
		Timestamp:  time.Now(),
		Components: make([]Status, 0, len(m.statuses)),
	}

	for _, status := range m.statuses {
		report.Components = append(report.Components, status)
		switch status.State {
		case StateUnhealthy:
			report.State = StateUnhealthy
		case StateDegraded:
			if report.State == StateHealthy {
				report.State = StateDegraded
			}
		}
	}
	return report
}
