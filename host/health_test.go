package host

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	h := NewHealth()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h.SetFeedConnected(true)
	h.Observe(42, time.Now().Add(-time.Second))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Status        string `json:"status"`
		FeedConnected bool   `json:"feed_connected"`
		Bars          int    `json:"bars"`
		BarAge        string `json:"bar_age"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "ok", doc.Status)
	assert.True(t, doc.FeedConnected)
	assert.Equal(t, 42, doc.Bars)
	assert.NotEmpty(t, doc.BarAge)
}
