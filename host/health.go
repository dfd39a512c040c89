package host

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Health tracks liveness for the /healthz endpoint.
type Health struct {
	mu            sync.RWMutex
	startedAt     time.Time
	feedConnected bool
	bars          int
	lastBarTime   time.Time
}

func NewHealth() *Health {
	return &Health{startedAt: time.Now()}
}

func (h *Health) SetFeedConnected(v bool) {
	h.mu.Lock()
	h.feedConnected = v
	h.mu.Unlock()
}

// Observe records the bar total and newest bar time after a
// recalculation.
func (h *Health) Observe(bars int, last time.Time) {
	h.mu.Lock()
	h.bars = bars
	h.lastBarTime = last
	h.mu.Unlock()
}

// ServeHTTP answers /healthz with a JSON status document. Losing the
// feed degrades the status to 503.
func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "ok"
	code := http.StatusOK
	if !h.feedConnected {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	barAge := ""
	if !h.lastBarTime.IsZero() {
		barAge = time.Since(h.lastBarTime).Round(time.Millisecond).String()
	}

	doc := struct {
		Status        string `json:"status"`
		Uptime        string `json:"uptime"`
		FeedConnected bool   `json:"feed_connected"`
		Bars          int    `json:"bars"`
		LastBarTime   string `json:"last_bar_time,omitempty"`
		BarAge        string `json:"bar_age,omitempty"`
	}{
		Status:        status,
		Uptime:        time.Since(h.startedAt).Round(time.Second).String(),
		FeedConnected: h.feedConnected,
		Bars:          h.bars,
		BarAge:        barAge,
	}
	if !h.lastBarTime.IsZero() {
		doc.LastBarTime = h.lastBarTime.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(doc)
}
