// Package telemetry sends anonymous CLI usage events to the configured
// server. Collection is best effort: events are batched, rate limited and
// dropped when the queue is full, and a failed delivery never surfaces to
// the user.
package telemetry

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Event is one recorded CLI invocation.
type Event struct {
	ID        string    `json:"id"`
	Command   string    `json:"command"`
	Success   bool      `json:"success"`
	Duration  int64     `json:"durationMs"`
	OS        string    `json:"os"`
	Arch      string    `json:"arch"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// Options configures the dispatcher.
type Options struct {
	// Enabled controls whether events are collected at all. When false,
	// Record and Close are no-ops.
	Enabled bool

	// ServerURL is the base URL events are posted to.
	ServerURL string

	// Version is the CLI version stamped on every event.
	Version string

	// QueueSize bounds the number of events waiting for delivery.
	// Default: 64. Events recorded while the queue is full are dropped.
	QueueSize int

	// FlushInterval is how often the queue is drained. Default: 5s.
	FlushInterval time.Duration

	// RatePerMinute caps deliveries to the server. Default: 30.
	RatePerMinute int

	// Logger is used for internal diagnostics.
	Logger *zap.Logger
}

// Dispatcher batches and delivers usage events in the background.
type Dispatcher struct {
	enabled bool
	version string
	queue   chan Event
	limiter *rate.Limiter
	rc      *resty.Client
	log     *zap.Logger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New starts a dispatcher. A disabled dispatcher is returned when
// opts.Enabled is false or no server URL is configured; it accepts events
// and discards them.
func New(opts Options) *Dispatcher {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if !opts.Enabled || opts.ServerURL == "" {
		return &Dispatcher{log: log}
	}

	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 5 * time.Second
	}
	if opts.RatePerMinute <= 0 {
		opts.RatePerMinute = 30
	}

	d := &Dispatcher{
		enabled: true,
		version: opts.Version,
		queue:   make(chan Event, opts.QueueSize),
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), opts.RatePerMinute),
		rc: resty.New().
			SetBaseURL(opts.ServerURL).
			SetTimeout(3 * time.Second),
		log:  log,
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run(opts.FlushInterval)

	return d
}

// Record queues a usage event. It never blocks: when the queue is full the
// event is dropped.
func (d *Dispatcher) Record(command string, success bool, duration time.Duration) {
	if !d.enabled {
		return
	}
	event := Event{
		ID:        uuid.NewString(),
		Command:   command,
		Success:   success,
		Duration:  duration.Milliseconds(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Version:   d.version,
		Timestamp: time.Now().UTC(),
	}
	select {
	case d.queue <- event:
	default:
		d.log.Debug("telemetry queue full, dropping event", zap.String("command", command))
	}
}

// Close flushes pending events and stops the background worker. Safe to call
// more than once.
func (d *Dispatcher) Close() {
	if !d.enabled {
		return
	}
	d.closeOnce.Do(func() {
		close(d.done)
		d.wg.Wait()
	})
}

func (d *Dispatcher) run(flushInterval time.Duration) {
	defer d.wg.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.done:
			d.flush()
			return
		case <-ticker.C:
			d.flush()
		}
	}
}

// flush drains everything currently queued into one batch request.
func (d *Dispatcher) flush() {
	var batch []Event
	for {
		select {
		case event := <-d.queue:
			batch = append(batch, event)
		default:
			if len(batch) == 0 {
				return
			}
			d.send(batch)
			return
		}
	}
}

func (d *Dispatcher) send(batch []Event) {
	if !d.limiter.Allow() {
		d.log.Debug("telemetry delivery rate limited", zap.Int("events", len(batch)))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	resp, err := d.rc.R().
		SetContext(ctx).
		SetBody(map[string]any{"events": batch}).
		Post("api/telemetry/cli")
	if err != nil {
		d.log.Debug("telemetry delivery failed", zap.Error(err))
		return
	}
	if resp.IsError() {
		d.log.Debug("telemetry delivery rejected", zap.Int("status", resp.StatusCode()))
	}
}
