package telemetry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	mu      sync.Mutex
	batches [][]Event
}

func (c *capture) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Events []Event `json:"events"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		c.mu.Lock()
		c.batches = append(c.batches, payload.Events)
		c.mu.Unlock()
	})
}

func (c *capture) events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var all []Event
	for _, b := range c.batches {
		all = append(all, b...)
	}
	return all
}

func TestDisabledDispatcherIsNop(t *testing.T) {
	d := New(Options{Enabled: false, ServerURL: "https://qs.example.com"})
	d.Record("login", true, time.Second)
	d.Close()
	d.Close()

	d = New(Options{Enabled: true}) // no server URL
	d.Record("login", true, time.Second)
	d.Close()
}

func TestCloseFlushesPendingEvents(t *testing.T) {
	var c capture
	server := httptest.NewServer(c.handler())
	defer server.Close()

	d := New(Options{
		Enabled:       true,
		ServerURL:     server.URL,
		Version:       "1.2.3",
		FlushInterval: time.Hour, // only the Close flush may deliver
	})
	d.Record("projects list", true, 120*time.Millisecond)
	d.Record("issues list", false, 80*time.Millisecond)
	d.Close()

	events := c.events()
	require.Len(t, events, 2)
	assert.Equal(t, "projects list", events[0].Command)
	assert.True(t, events[0].Success)
	assert.False(t, events[1].Success)
	assert.Equal(t, "1.2.3", events[0].Version)
	assert.NotEmpty(t, events[0].ID)
	assert.NotEqual(t, events[0].ID, events[1].ID)
}

func TestPeriodicFlush(t *testing.T) {
	var c capture
	server := httptest.NewServer(c.handler())
	defer server.Close()

	d := New(Options{
		Enabled:       true,
		ServerURL:     server.URL,
		FlushInterval: 20 * time.Millisecond,
	})
	defer d.Close()

	d.Record("login", true, time.Second)

	require.Eventually(t, func() bool {
		return len(c.events()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFullQueueDropsEvents(t *testing.T) {
	var c capture
	server := httptest.NewServer(c.handler())
	defer server.Close()

	d := New(Options{
		Enabled:       true,
		ServerURL:     server.URL,
		QueueSize:     2,
		FlushInterval: time.Hour,
	})
	for i := 0; i < 10; i++ {
		d.Record("login", true, time.Second)
	}
	d.Close()

	assert.Len(t, c.events(), 2)
}

func TestDeliveryFailureIsSilent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	d := New(Options{Enabled: true, ServerURL: server.URL, FlushInterval: time.Hour})
	d.Record("login", true, time.Second)
	d.Close()
}
