package status

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNoProbes is returned when no probe result exists for an upstream.
	ErrNoProbes = errors.New("no probe results for upstream")
)

// ProbeResult is one health-check outcome for an upstream dependency.
type ProbeResult struct {
	Upstream  string    `json:"upstream"`
	Healthy   bool      `json:"healthy"`
	CheckedAt time.Time `json:"checkedAt"`
	Error     string    `json:"error,omitempty"`
}

// Monitor is a concurrency-safe in-memory log of upstream probe results.
// It holds operational telemetry only; upstream response data is never
// cached here.
type Monitor struct {
	mu sync.RWMutex

	// key: upstream name, value: time-ordered probe history
	data map[string][]ProbeResult

	// maxHistory caps the number of results kept per upstream (<= 0 means unlimited).
	maxHistory int
}

// NewMonitor creates a Monitor with an optional per-upstream history cap.
func NewMonitor(maxHistory int) *Monitor {
	return &Monitor{
		data:       make(map[string][]ProbeResult),
		maxHistory: maxHistory,
	}
}

// Record appends a probe result for its upstream and enforces retention.
func (m *Monitor) Record(res ProbeResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := append(m.data[res.Upstream], res)

	if m.maxHistory > 0 && len(history) > m.maxHistory {
		over := len(history) - m.maxHistory
		history = history[over:]
	}

	m.data[res.Upstream] = history
}

// Latest returns the most recent probe result for an upstream.
func (m *Monitor) Latest(upstream string) (ProbeResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history, ok := m.data[upstream]
	if !ok || len(history) == 0 {
		return ProbeResult{}, ErrNoProbes
	}
	return history[len(history)-1], nil
}

// Snapshot returns the latest probe result per upstream.
func (m *Monitor) Snapshot() map[string]ProbeResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]ProbeResult, len(m.data))
	for name, history := range m.data {
		if len(history) == 0 {
			continue
		}
		out[name] = history[len(history)-1]
	}
	return out
}
